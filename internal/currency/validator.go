// Package currency は通貨コードの検証を提供する。
package currency

import "slices"

// validCurrencies は価格表示に対応している通貨コードの一覧。
var validCurrencies = []string{"USD", "EUR", "GBP", "JPY", "AUD", "CAD", "CHF", "CNY", "SEK", "NZD"}

// InvalidCurrencyError は対応していない通貨コードが指定されたことを表すエラー。
type InvalidCurrencyError struct {
	// Code は指定された通貨コード。
	Code string
}

// Error はerrorインターフェースを実装する。
func (e *InvalidCurrencyError) Error() string {
	return "Invalid currency: " + e.Code
}

// Validate は通貨コードが対応一覧に含まれるかを検証する。
// 大文字・小文字を区別した完全一致で判定し、一覧にない場合は
// *InvalidCurrencyErrorを返す。
func Validate(code string) error {
	if slices.Contains(validCurrencies, code) {
		return nil
	}
	return &InvalidCurrencyError{Code: code}
}
