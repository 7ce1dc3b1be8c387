// Package productcatalog は外部の商品カタログサービスへのクライアントを提供する。
//
// カタログサービスは商品ID単位の参照APIをBasic認証付きで公開している。
// 商品が存在しない場合は404を返すため、クライアントはそれをエラーではなく
// 「不在」として呼び出し元に伝える。
package productcatalog

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nao1215/bundle/pkg/httpclient"
)

// Product は商品カタログサービスが返す商品情報のスナップショット。
type Product struct {
	// ID は商品の一意識別子。
	ID string `json:"id"`
	// Name は商品名。
	Name string `json:"name"`
	// UsdPrice は商品のUSD建て価格。
	UsdPrice float64 `json:"usdPrice"`
}

// Client は商品カタログサービスへのHTTPクライアント。
type Client struct {
	// http は外部通信用のHTTPクライアント。
	http *httpclient.Client
}

// New は新しい商品カタログクライアントを生成する。
// username・passwordはカタログサービスのBasic認証の資格情報。
func New(baseURL, username, password string) *Client {
	return &Client{
		http: httpclient.New(baseURL, httpclient.WithBasicAuth(username, password)),
	}
}

// Fetch は商品IDで商品情報を取得する。
// カタログサービスが404を返した場合は (nil, nil) を返す。
// 呼び出し元は不在を正常な結果として扱うこと。
// それ以外の通信失敗はエラーとして返す。
func (c *Client) Fetch(ctx context.Context, productID string) (*Product, error) {
	var product Product
	err := c.http.GetJSON(ctx, "/api/v1/products/"+url.PathEscape(productID), nil, &product)
	if httpclient.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("商品情報の取得に失敗: %w", err)
	}
	return &product, nil
}
