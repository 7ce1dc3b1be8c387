// Package httpclient は外部サービスとのHTTP通信を行うクライアントを提供する。
//
// 商品カタログサービスへの認証付き問い合わせ、為替レートサービスへの
// 変換リクエストなど、外部依存との通信パターンを統一する。
package httpclient
