// Package chat はセッションに紐づくチャット要求をエージェントへ中継する。
package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/chatbridge/internal/agent"
	"github.com/hitoshi/chatbridge/internal/model"
	"github.com/hitoshi/chatbridge/internal/validation"
)

// LatencyRecorder はエージェント呼び出しの所要時間を記録する。
type LatencyRecorder interface {
	ObserveAgentLatency(d time.Duration)
}

// Service はチャット要求の検証とエージェント呼び出しを行うサービス層。
type Service struct {
	agent   agent.Agent
	latency LatencyRecorder
	now     func() time.Time
}

// NewService はServiceを生成する。latencyはnilでもよい。
func NewService(a agent.Agent, latency LatencyRecorder) *Service {
	return &Service{
		agent:   a,
		latency: latency,
		now:     time.Now,
	}
}

// Chat は会話を検証し、セッションの所有者としてエージェントに転送する。
// 検証に失敗した場合はエージェントを呼び出さずに422を返す。
// エージェントのエラーはメッセージをそのまま詳細とした500に変換する。
func (s *Service) Chat(ctx context.Context, session *model.Session, messages []model.Message) ([]model.Message, error) {
	conversation, err := validation.NewConversation(messages)
	if err != nil {
		if apiErr := validation.AsAPIError(err); apiErr != nil {
			return nil, apiErr
		}
		return nil, err
	}

	slog.Info("chat_request_received",
		slog.String("session_id", session.ID),
		slog.Int("message_count", len(conversation)),
	)

	start := s.now()
	reply, err := s.agent.Respond(ctx, conversation, session.ID, session.UserID)
	if s.latency != nil {
		s.latency.ObserveAgentLatency(s.now().Sub(start))
	}
	if err != nil {
		slog.Error("chat_request_failed",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamFailureError(err.Error())
	}

	// エージェントの応答も同じ規則で検証する
	reply, err = validation.NewReply(reply)
	if err != nil {
		slog.Error("chat_request_failed",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamFailureError("agent returned an invalid response: " + err.Error())
	}

	slog.Info("chat_request_processed",
		slog.String("session_id", session.ID),
		slog.Int("message_count", len(reply)),
	)

	return reply, nil
}
