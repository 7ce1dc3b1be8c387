// Package exchangerate は外部の為替レートサービスへのクライアントを提供する。
//
// レートサービスはfrankfurter互換のAPIで、金額と通貨ペアを指定すると
// 変換後の金額をレートマップとして返す。
package exchangerate

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nao1215/bundle/pkg/httpclient"
)

// exchangeResponse はレートサービスのレスポンスのJSON構造。
type exchangeResponse struct {
	// Amount は変換元の金額。
	Amount float64 `json:"amount"`
	// Base は変換元の通貨コード。
	Base string `json:"base"`
	// Date はレートの基準日。
	Date string `json:"date"`
	// Rates は通貨コードから変換後金額へのマップ。
	Rates map[string]float64 `json:"rates"`
}

// Client は為替レートサービスへのHTTPクライアント。
type Client struct {
	// http は外部通信用のHTTPクライアント。
	http *httpclient.Client
}

// New は新しい為替レートクライアントを生成する。
func New(baseURL string) *Client {
	return &Client{http: httpclient.New(baseURL)}
}

// Convert はUSD建て金額を指定通貨へ変換した金額を返す。
// currencyは呼び出し元で検証済みであることを前提とする。
// レートサービスが対象通貨のレートを返さなかった場合は、
// エラーではなく0.0を返す（意図的な縮退動作）。
func (c *Client) Convert(ctx context.Context, amountUSD float64, currency string) (float64, error) {
	query := url.Values{
		"amount": {strconv.FormatFloat(amountUSD, 'f', -1, 64)},
		"from":   {"USD"},
		"to":     {currency},
	}

	var resp exchangeResponse
	if err := c.http.GetJSON(ctx, "/latest", query, &resp); err != nil {
		return 0, fmt.Errorf("為替レートの取得に失敗: %w", err)
	}

	converted, ok := resp.Rates[currency]
	if !ok {
		return 0.0, nil
	}
	return converted, nil
}
