package packages

import "fmt"

// ValidationError はクライアント入力が不正であることを表すエラー。
// HTTP層では400 Bad Requestに変換され、メッセージはそのまま応答に含まれる。
type ValidationError struct {
	// Message はクライアントに返すエラーメッセージ。
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError は指定されたIDのパッケージが存在しないことを表すエラー。
// HTTP層では404 Not Foundに変換される。
type NotFoundError struct {
	// ID は見つからなかったパッケージのID。
	ID int64
}

// Error はerrorインターフェースを実装する。
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Provided packageId: %d not found", e.ID)
}
