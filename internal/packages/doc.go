// Package packages はプロダクトパッケージサービスの内部実装を提供する。
//
// パッケージは外部カタログの商品IDを束ねたエンティティであり、
// 読み取りのたびにカタログから商品情報を取得してUSD価格を合計する。
// currencyクエリが指定された場合は為替レートサービスで表示用に変換する。
// 価格は常に再計算され、エンティティには保存しない。
package packages
