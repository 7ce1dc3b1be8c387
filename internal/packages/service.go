package packages

import (
	"context"
	"fmt"

	"github.com/nao1215/bundle/internal/productcatalog"
)

// ProductFetcher は商品カタログからの商品取得を抽象化するインターフェース。
// 商品が存在しない場合は (nil, nil) を返す実装であること。
type ProductFetcher interface {
	Fetch(ctx context.Context, productID string) (*productcatalog.Product, error)
}

// RateConverter はUSD建て金額の通貨変換を抽象化するインターフェース。
// 対象通貨のレートが得られない場合は0.0を返す実装であること。
type RateConverter interface {
	Convert(ctx context.Context, amountUSD float64, currency string) (float64, error)
}

// Input はパッケージの作成・更新リクエストの入力値。
type Input struct {
	// Name はパッケージ名。
	Name string
	// Description はパッケージの説明。
	Description string
	// ProductIDs は外部カタログの商品IDの順序付きリスト。
	ProductIDs []string
}

// View は呼び出し元に返すパッケージの表示用スナップショット。永続化はしない。
type View struct {
	// ID はパッケージの一意識別子。
	ID int64 `json:"id"`
	// Name はパッケージ名。
	Name string `json:"name"`
	// Description はパッケージの説明。
	Description string `json:"description"`
	// ProductIDs は登録されている商品IDのリスト。
	ProductIDs []string `json:"productIds"`
	// Products はカタログで解決できた商品のスナップショット。
	// 解決できなかった商品IDは含まれない。
	Products []productcatalog.Product `json:"products"`
	// Price は解決できた商品のUSD価格の合計。通貨変換時は変換後の金額。
	// 読み取りごとに再計算され、エンティティには保存されない。
	Price float64 `json:"price"`
}

// Service はパッケージのCRUDと商品情報の付加を担うサービス。
// すべての業務ルール検証はこの層で行う。
type Service struct {
	// store はパッケージの永続化先。
	store Store
	// catalog は商品カタログクライアント。
	catalog ProductFetcher
	// rates は為替レートクライアント。
	rates RateConverter
}

// NewService は新しいServiceを生成する。
func NewService(store Store, catalog ProductFetcher, rates RateConverter) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		rates:   rates,
	}
}

// Create は新しいパッケージを作成する。
// 商品IDリストが空の場合、またはカタログで解決できない商品IDが含まれる場合は
// *ValidationErrorを返し、パッケージは永続化しない。
func (s *Service) Create(ctx context.Context, in Input) (*View, error) {
	if len(in.ProductIDs) == 0 {
		return nil, &ValidationError{Message: "There should be at least one product for a package"}
	}

	if err := s.validateProductIDs(ctx, in.ProductIDs); err != nil {
		return nil, err
	}

	pkg := newPackage(in)
	if err := s.store.Save(ctx, pkg); err != nil {
		return nil, fmt.Errorf("パッケージの保存に失敗: %w", err)
	}

	return s.enrich(ctx, pkg)
}

// Get は指定IDのパッケージを商品情報付きで返す。
// 存在しない場合は*NotFoundErrorを返す。
func (s *Service) Get(ctx context.Context, id int64) (*View, error) {
	pkg, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, pkg)
}

// GetWithCurrency はGetと同様にパッケージを返すが、価格を指定通貨へ変換する。
// currencyは呼び出し元で検証済みであることを前提とする。
func (s *Service) GetWithCurrency(ctx context.Context, id int64, currency string) (*View, error) {
	view, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	converted, err := s.rates.Convert(ctx, view.Price, currency)
	if err != nil {
		return nil, fmt.Errorf("価格の通貨変換に失敗: %w", err)
	}
	view.Price = converted
	return view, nil
}

// List はすべてのパッケージを商品情報付きで返す。並び順はストア依存。
func (s *Service) List(ctx context.Context) ([]*View, error) {
	pkgs, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("パッケージ一覧の取得に失敗: %w", err)
	}

	views := make([]*View, 0, len(pkgs))
	for _, pkg := range pkgs {
		view, err := s.enrich(ctx, pkg)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// Update は指定IDのパッケージの名前・説明・商品IDリストを丸ごと置き換える。
// 存在しない場合は*NotFoundErrorを返す。商品IDはCreateと同様に検証するが、
// 空リストは拒否しない（空のパッケージとして保存される）。
func (s *Service) Update(ctx context.Context, id int64, in Input) (*View, error) {
	pkg, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.validateProductIDs(ctx, in.ProductIDs); err != nil {
		return nil, err
	}

	pkg.Name = in.Name
	pkg.Description = in.Description
	pkg.ProductIDs = in.ProductIDs

	if err := s.store.Save(ctx, pkg); err != nil {
		return nil, fmt.Errorf("パッケージの更新に失敗: %w", err)
	}

	return s.enrich(ctx, pkg)
}

// Delete は指定IDのパッケージを削除する。
// 存在しない場合は*NotFoundErrorを返す。
func (s *Service) Delete(ctx context.Context, id int64) error {
	pkg, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, pkg); err != nil {
		return fmt.Errorf("パッケージの削除に失敗: %w", err)
	}
	return nil
}

// find は指定IDのパッケージを取得し、存在しない場合は*NotFoundErrorを返す。
func (s *Service) find(ctx context.Context, id int64) (*ProductPackage, error) {
	pkg, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("パッケージの取得に失敗: %w", err)
	}
	if pkg == nil {
		return nil, &NotFoundError{ID: id}
	}
	return pkg, nil
}

// validateProductIDs はすべての商品IDがカタログで解決できることを検証する。
// 解決できない商品IDが見つかった時点で即座に*ValidationErrorを返す。
func (s *Service) validateProductIDs(ctx context.Context, productIDs []string) error {
	for _, productID := range productIDs {
		product, err := s.catalog.Fetch(ctx, productID)
		if err != nil {
			return fmt.Errorf("商品ID %s の検証に失敗: %w", productID, err)
		}
		if product == nil {
			return &ValidationError{Message: fmt.Sprintf("Provided productId: %s not found", productID)}
		}
	}
	return nil
}

// enrich はパッケージの商品IDを順にカタログで解決し、表示用のViewを組み立てる。
// 解決できた商品をViewに追加してUSD価格を合計し、解決できなかった商品IDは
// エラーにせず黙ってスキップする。価格は読み取りのたびに再計算される。
func (s *Service) enrich(ctx context.Context, pkg *ProductPackage) (*View, error) {
	view := toView(pkg)
	for _, productID := range pkg.ProductIDs {
		product, err := s.catalog.Fetch(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("商品ID %s の解決に失敗: %w", productID, err)
		}
		if product == nil {
			continue
		}
		view.Products = append(view.Products, *product)
		view.Price += product.UsdPrice
	}
	return view, nil
}

// newPackage は入力値から新しいパッケージエンティティを組み立てる。
// エンティティから表示用への変換はtoViewが担い、双方向の変換は持たない。
func newPackage(in Input) *ProductPackage {
	return &ProductPackage{
		Name:        in.Name,
		Description: in.Description,
		ProductIDs:  in.ProductIDs,
	}
}

// toView はパッケージエンティティから表示用Viewの骨格を組み立てる。
// 商品情報と価格はenrichが埋める。
func toView(pkg *ProductPackage) *View {
	return &View{
		ID:          pkg.ID,
		Name:        pkg.Name,
		Description: pkg.Description,
		ProductIDs:  pkg.ProductIDs,
		Products:    []productcatalog.Product{},
	}
}
