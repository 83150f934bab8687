package model

// メッセージ送信者のロール
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message は会話中の1メッセージを表す。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
