package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/chatbridge/internal/agent"
	"github.com/hitoshi/chatbridge/internal/model"
)

// mockAgent はテスト用のAgentモック。
type mockAgent struct {
	respondFn func(ctx context.Context, messages []model.Message, sessionID string, userID int64) ([]model.Message, error)
	calls     int
	sessionID string
	userID    int64
}

func (m *mockAgent) Respond(ctx context.Context, messages []model.Message, sessionID string, userID int64) ([]model.Message, error) {
	m.calls++
	m.sessionID = sessionID
	m.userID = userID
	return m.respondFn(ctx, messages, sessionID, userID)
}

// mockLatency はテスト用のLatencyRecorderモック。
type mockLatency struct {
	observed []time.Duration
}

func (m *mockLatency) ObserveAgentLatency(d time.Duration) {
	m.observed = append(m.observed, d)
}

var testSession = &model.Session{ID: "2f7b0d38-6a4c-4f0e-9d3b-0c1a2b3c4d5e", UserID: 42}

func TestService_Chat_ForwardsToAgent(t *testing.T) {
	latency := &mockLatency{}
	svc := NewService(agent.EchoAgent{}, latency)

	out, err := svc.Chat(context.Background(), testSession, []model.Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("Chat がエラーを返した: %v", err)
	}
	if len(out) != 2 || out[1].Role != model.RoleAssistant || out[1].Content != "hi" {
		t.Errorf("out = %+v", out)
	}
	if len(latency.observed) != 1 {
		t.Errorf("レイテンシ記録回数 = %d, want 1", len(latency.observed))
	}
}

func TestService_Chat_UsesSessionOwner(t *testing.T) {
	a := &mockAgent{respondFn: func(_ context.Context, m []model.Message, _ string, _ int64) ([]model.Message, error) {
		return m, nil
	}}
	svc := NewService(a, nil)

	if _, err := svc.Chat(context.Background(), testSession, []model.Message{{Role: "user", Content: "hi"}}); err != nil {
		t.Fatalf("Chat がエラーを返した: %v", err)
	}
	if a.sessionID != testSession.ID || a.userID != testSession.UserID {
		t.Errorf("agent called with session=%q user=%d", a.sessionID, a.userID)
	}
}

func TestService_Chat_InvalidConversation_AgentNotCalled(t *testing.T) {
	tests := []struct {
		name     string
		messages []model.Message
	}{
		{"空の会話", nil},
		{"未知のロール", []model.Message{{Role: "tool", Content: "x"}}},
		{"scriptタグ", []model.Message{{Role: "user", Content: "<script>alert(1)</script>"}}},
		{"NULバイト", []model.Message{{Role: "user", Content: "a\x00b"}}},
		{"長すぎる", []model.Message{{Role: "user", Content: strings.Repeat("a", 3001)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &mockAgent{respondFn: func(context.Context, []model.Message, string, int64) ([]model.Message, error) {
				return nil, nil
			}}
			svc := NewService(a, nil)

			_, err := svc.Chat(context.Background(), testSession, tt.messages)

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *model.APIError", err)
			}
			if apiErr.Status != http.StatusUnprocessableEntity {
				t.Errorf("Status = %d, want 422", apiErr.Status)
			}
			if a.calls != 0 {
				t.Errorf("エージェントが呼び出された: %d回", a.calls)
			}
		})
	}
}

func TestService_Chat_AgentError_MapsToUpstreamFailure(t *testing.T) {
	a := &mockAgent{respondFn: func(context.Context, []model.Message, string, int64) ([]model.Message, error) {
		return nil, errors.New("model overloaded")
	}}
	latency := &mockLatency{}
	svc := NewService(a, latency)

	_, err := svc.Chat(context.Background(), testSession, []model.Message{{Role: "user", Content: "hi"}})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *model.APIError", err)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", apiErr.Status)
	}
	if apiErr.Code != model.ErrCodeUpstreamFailure {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeUpstreamFailure)
	}
	if apiErr.Message != "model overloaded" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "model overloaded")
	}
	if len(latency.observed) != 1 {
		t.Errorf("失敗時もレイテンシが記録されること: got %d", len(latency.observed))
	}
}

func TestService_Chat_InvalidAgentReply(t *testing.T) {
	a := &mockAgent{respondFn: func(context.Context, []model.Message, string, int64) ([]model.Message, error) {
		return []model.Message{{Role: "robot", Content: "beep"}}, nil
	}}
	svc := NewService(a, nil)

	_, err := svc.Chat(context.Background(), testSession, []model.Message{{Role: "user", Content: "hi"}})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUpstreamFailure {
		t.Fatalf("err = %v, want upstream failure", err)
	}
}

func TestService_Chat_EmptyAgentReply(t *testing.T) {
	a := &mockAgent{respondFn: func(context.Context, []model.Message, string, int64) ([]model.Message, error) {
		return []model.Message{}, nil
	}}
	svc := NewService(a, nil)

	reply, err := svc.Chat(context.Background(), testSession, []model.Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("空の応答でエラーが返された: %v", err)
	}
	if reply == nil || len(reply) != 0 {
		t.Errorf("reply = %#v, want empty non-nil slice", reply)
	}
}
