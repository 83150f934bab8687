// Package agent はチャット応答を生成する会話エージェントとの連携を提供する。
// エージェント本体は外部サービスであり、このパッケージはその呼び出し口のみを持つ。
package agent

import (
	"context"

	"github.com/hitoshi/chatbridge/internal/model"
)

// Agent は会話履歴を受け取り、応答を含む会話を返すエージェント。
// 実装は複数のゴルーチンから同時に呼び出される。
type Agent interface {
	Respond(ctx context.Context, messages []model.Message, sessionID string, userID int64) ([]model.Message, error)
}

// EchoAgent は最後のユーザーメッセージをそのまま返すエージェント。
// AGENT_URL未設定時の開発用、およびテスト用。
type EchoAgent struct{}

// Respond は入力された会話の末尾にassistantメッセージを追加して返す。
func (EchoAgent) Respond(ctx context.Context, messages []model.Message, _ string, _ int64) ([]model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reply := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == model.RoleUser {
			reply = messages[i].Content
			break
		}
	}
	if reply == "" && len(messages) > 0 {
		reply = messages[len(messages)-1].Content
	}

	out := make([]model.Message, 0, len(messages)+1)
	out = append(out, messages...)
	out = append(out, model.Message{Role: model.RoleAssistant, Content: reply})
	return out, nil
}

// compile-time interface check
var _ Agent = EchoAgent{}
