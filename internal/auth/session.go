package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/chatbridge/internal/model"
	"github.com/hitoshi/chatbridge/internal/security"
)

// MaxSessionNameLength はセッション名の最大文字数。
const MaxSessionNameLength = 100

// SessionResult はセッション作成の結果。
type SessionResult struct {
	SessionID string      `json:"session_id"`
	Name      string      `json:"name"`
	Token     model.Token `json:"token"`
}

// CreateSession は認証済みユーザーのチャットセッションを作成し、セッショントークンを発行する。
// 所有者は常に認証済みユーザーであり、リクエスト内容から変更されることはない。
func (s *Service) CreateSession(ctx context.Context, user *model.User, name string) (*SessionResult, error) {
	sessionID := uuid.NewString()
	name = truncateRunes(s.sanitizer.Text(name), MaxSessionNameLength)

	session, err := s.sessionRepo.Create(ctx, sessionID, user.ID, name)
	if err != nil {
		s.record(EventSession, OutcomeFailure)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.codec.Issue(security.SubjectSession, session.ID)
	if err != nil {
		s.record(EventSession, OutcomeFailure)
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	s.record(EventSession, OutcomeSuccess)
	slog.Info("session_created",
		slog.String("session_id", session.ID),
		slog.Int64("user_id", user.ID),
		slog.String("name", session.Name),
		slog.String("expires_at", token.ExpiresAt.Format(time.RFC3339)),
	)

	return &SessionResult{
		SessionID: session.ID,
		Name:      session.Name,
		Token:     token,
	}, nil
}

// ListSessions はユーザーが所有するセッションの一覧を返す。
func (s *Service) ListSessions(ctx context.Context, user *model.User) ([]*model.Session, error) {
	sessions, err := s.sessionRepo.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
