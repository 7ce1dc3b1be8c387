package packages

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/nao1215/bundle/pkg/migration"
)

//go:embed migrations/*.up.sql
var migrationsFS embed.FS

// ProductPackage は永続化されるパッケージエンティティ。
type ProductPackage struct {
	// ID はパッケージの一意識別子。ストアが初回保存時に採番する。
	ID int64
	// Name はパッケージ名。
	Name string
	// Description はパッケージの説明。
	Description string
	// ProductIDs は外部カタログの商品IDの順序付きリスト。
	ProductIDs []string
}

// Store はパッケージの永続化を抽象化するインターフェース。
type Store interface {
	// Save はパッケージを保存する。IDが未採番（0）の場合は新規作成してIDを割り当て、
	// 採番済みの場合は名前・説明・商品IDリストを丸ごと置き換える。
	Save(ctx context.Context, pkg *ProductPackage) error
	// FindByID はIDでパッケージを検索する。存在しない場合は (nil, nil) を返す。
	FindByID(ctx context.Context, id int64) (*ProductPackage, error)
	// FindAll はすべてのパッケージを返す。並び順はストア依存であり保証しない。
	FindAll(ctx context.Context) ([]*ProductPackage, error)
	// Delete はパッケージを削除する。
	Delete(ctx context.Context, pkg *ProductPackage) error
}

// SQLiteStore はSQLiteを使ったStoreの実装。
// packagesテーブルと子テーブルpackage_productsの2テーブルで構成する。
type SQLiteStore struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// SQLiteStoreがStoreインターフェースを満たすことをコンパイル時に保証する。
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore は新しいSQLiteStoreを生成し、スキーママイグレーションを適用する。
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if err := migration.Run(db, migrationsFS, "migrations"); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save はStoreインターフェースを実装する。
// 親行と子行の更新は1トランザクションで行う。
func (s *SQLiteStore) Save(ctx context.Context, pkg *ProductPackage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if pkg.ID == 0 {
		result, err := tx.ExecContext(ctx,
			"INSERT INTO packages (name, description) VALUES (?, ?)",
			pkg.Name, pkg.Description,
		)
		if err != nil {
			return fmt.Errorf("パッケージの挿入に失敗: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("採番されたIDの取得に失敗: %w", err)
		}
		pkg.ID = id
	} else {
		if _, err := tx.ExecContext(ctx,
			"UPDATE packages SET name = ?, description = ?, updated_at = datetime('now') WHERE id = ?",
			pkg.Name, pkg.Description, pkg.ID,
		); err != nil {
			return fmt.Errorf("パッケージの更新に失敗: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM package_products WHERE package_id = ?", pkg.ID,
		); err != nil {
			return fmt.Errorf("商品IDリストの削除に失敗: %w", err)
		}
	}

	for i, productID := range pkg.ProductIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO package_products (package_id, position, product_id) VALUES (?, ?, ?)",
			pkg.ID, i, productID,
		); err != nil {
			return fmt.Errorf("商品IDリストの挿入に失敗: %w", err)
		}
	}

	return tx.Commit()
}

// FindByID はStoreインターフェースを実装する。
func (s *SQLiteStore) FindByID(ctx context.Context, id int64) (*ProductPackage, error) {
	pkg := &ProductPackage{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description FROM packages WHERE id = ?", id,
	).Scan(&pkg.ID, &pkg.Name, &pkg.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("パッケージの検索に失敗: %w", err)
	}

	productIDs, err := s.productIDs(ctx, pkg.ID)
	if err != nil {
		return nil, err
	}
	pkg.ProductIDs = productIDs
	return pkg, nil
}

// FindAll はStoreインターフェースを実装する。
func (s *SQLiteStore) FindAll(ctx context.Context) ([]*ProductPackage, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, description FROM packages")
	if err != nil {
		return nil, fmt.Errorf("パッケージ一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pkgs []*ProductPackage
	for rows.Next() {
		pkg := &ProductPackage{}
		if err := rows.Scan(&pkg.ID, &pkg.Name, &pkg.Description); err != nil {
			return nil, fmt.Errorf("パッケージ行の読み取りに失敗: %w", err)
		}
		pkgs = append(pkgs, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("パッケージ一覧の走査に失敗: %w", err)
	}

	for _, pkg := range pkgs {
		productIDs, err := s.productIDs(ctx, pkg.ID)
		if err != nil {
			return nil, err
		}
		pkg.ProductIDs = productIDs
	}
	return pkgs, nil
}

// Delete はStoreインターフェースを実装する。
// 子テーブルの行も同一トランザクションで削除する。
func (s *SQLiteStore) Delete(ctx context.Context, pkg *ProductPackage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM package_products WHERE package_id = ?", pkg.ID,
	); err != nil {
		return fmt.Errorf("商品IDリストの削除に失敗: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM packages WHERE id = ?", pkg.ID,
	); err != nil {
		return fmt.Errorf("パッケージの削除に失敗: %w", err)
	}

	return tx.Commit()
}

// productIDs は指定パッケージの商品IDリストを保存時の並び順で取得する。
func (s *SQLiteStore) productIDs(ctx context.Context, packageID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT product_id FROM package_products WHERE package_id = ? ORDER BY position", packageID,
	)
	if err != nil {
		return nil, fmt.Errorf("商品IDリストの取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	productIDs := []string{}
	for rows.Next() {
		var productID string
		if err := rows.Scan(&productID); err != nil {
			return nil, fmt.Errorf("商品ID行の読み取りに失敗: %w", err)
		}
		productIDs = append(productIDs, productID)
	}
	return productIDs, rows.Err()
}
