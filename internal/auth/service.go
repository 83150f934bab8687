// Package auth はパスワード認証、ベアラートークンの解決、チャットセッションの発行を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/hitoshi/chatbridge/internal/model"
	"github.com/hitoshi/chatbridge/internal/repository"
	"github.com/hitoshi/chatbridge/internal/security"
	"github.com/hitoshi/chatbridge/internal/validation"
)

// dummyPassword はユーザー不在時のパスワード照合に使う平文。
// 照合結果は常に捨てる。
const dummyPassword = "chatbridge-timing-equalizer"

// 認証イベント名と結果。メトリクスのラベルに使用する。
const (
	EventRegister = "register"
	EventLogin    = "login"
	EventSession  = "session"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// TokenCodec はベアラートークンの発行・検証のインターフェース。
type TokenCodec interface {
	Issue(kind security.SubjectKind, subject string) (model.Token, error)
	Verify(raw string) (security.Claims, bool)
}

// EventRecorder は認証イベントを記録する。
type EventRecorder interface {
	RecordAuthEvent(event, outcome string)
}

// RegisterResult はユーザー登録の結果。
type RegisterResult struct {
	ID    int64       `json:"id"`
	Email string      `json:"email"`
	Token model.Token `json:"token"`
}

// Option はServiceのオプション。
type Option func(*Service)

// WithEventRecorder は認証イベントの記録先を設定する。
func WithEventRecorder(r EventRecorder) Option {
	return func(s *Service) {
		s.events = r
	}
}

// Service は認証に関するビジネスロジックを提供する。
// 状態はリポジトリにのみ持つため、複数のリクエストから同時に使用できる。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	hasher      security.PasswordHasher
	codec       TokenCodec
	sanitizer   *security.Sanitizer
	events      EventRecorder
	dummyHash   string
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	hasher security.PasswordHasher,
	codec TokenCodec,
	sanitizer *security.Sanitizer,
	opts ...Option,
) *Service {
	s := &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		codec:       codec,
		sanitizer:   sanitizer,
	}
	for _, opt := range opts {
		opt(s)
	}

	// 失敗してもログイン自体は機能するため、空のまま続行する
	if h, err := hasher.Hash(dummyPassword); err == nil {
		s.dummyHash = h
	}

	return s
}

// Register はユーザーを登録し、ユーザートークンを発行する。
// 検証違反はすべて列挙した422、登録済みメールアドレスも422を返す。
func (s *Service) Register(ctx context.Context, email, password string) (*RegisterResult, error) {
	input, err := validation.NewRegisterInput(s.sanitizer.Field(email), password)
	if err != nil {
		s.record(EventRegister, OutcomeFailure)
		if apiErr := validation.AsAPIError(err); apiErr != nil {
			return nil, apiErr
		}
		return nil, err
	}

	hashed, err := s.hasher.Hash(input.Password.Reveal())
	if err != nil {
		s.record(EventRegister, OutcomeFailure)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, string(input.Email), hashed)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			s.record(EventRegister, OutcomeFailure)
			slog.Info("registration_rejected_duplicate_email")
			return nil, model.NewEmailAlreadyRegisteredError()
		}
		s.record(EventRegister, OutcomeFailure)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.codec.Issue(security.SubjectUser, strconv.FormatInt(user.ID, 10))
	if err != nil {
		s.record(EventRegister, OutcomeFailure)
		return nil, fmt.Errorf("failed to issue user token: %w", err)
	}

	s.record(EventRegister, OutcomeSuccess)
	slog.Info("user_registered",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return &RegisterResult{
		ID:    user.ID,
		Email: user.Email,
		Token: token,
	}, nil
}

// Login はパスワードグラントでユーザーを認証し、ユーザートークンを発行する。
// ユーザー不在とパスワード不一致は同一の401を返し、
// 不在時もダミーハッシュと照合して応答時間を揃える。
func (s *Service) Login(ctx context.Context, username, password, grantType string) (model.Token, error) {
	username = s.sanitizer.Field(username)
	password = s.sanitizer.Field(password)
	grantType = s.sanitizer.Field(grantType)

	if err := validation.RequirePasswordGrant(grantType); err != nil {
		s.record(EventLogin, OutcomeFailure)
		return model.Token{}, model.NewUnsupportedGrantTypeError()
	}

	input, err := validation.NewLoginInput(username, password)
	if err != nil {
		s.record(EventLogin, OutcomeFailure)
		if apiErr := validation.AsAPIError(err); apiErr != nil {
			return model.Token{}, apiErr
		}
		return model.Token{}, err
	}

	user, err := s.userRepo.FindByEmail(ctx, string(input.Email))
	if err != nil {
		return model.Token{}, fmt.Errorf("failed to find user: %w", err)
	}

	if user == nil {
		s.hasher.Verify(input.Password, s.dummyHash)
		s.record(EventLogin, OutcomeFailure)
		slog.Info("login_failed", slog.String("reason", "invalid_credentials"))
		return model.Token{}, model.NewInvalidCredentialsError()
	}
	if !s.hasher.Verify(input.Password, user.HashedPassword) {
		s.record(EventLogin, OutcomeFailure)
		slog.Info("login_failed",
			slog.String("reason", "invalid_credentials"),
			slog.Int64("user_id", user.ID),
		)
		return model.Token{}, model.NewInvalidCredentialsError()
	}

	token, err := s.codec.Issue(security.SubjectUser, strconv.FormatInt(user.ID, 10))
	if err != nil {
		return model.Token{}, fmt.Errorf("failed to issue user token: %w", err)
	}

	s.record(EventLogin, OutcomeSuccess)
	slog.Info("user_logged_in", slog.Int64("user_id", user.ID))

	return token, nil
}

// ResolveUser はユーザートークンから現在のユーザーを取得する。
//   - 検証失敗・種別違い: 401
//   - subjectが正の整数でない: 422
//   - ユーザーが存在しない: 404
func (s *Service) ResolveUser(ctx context.Context, rawToken string) (*model.User, error) {
	claims, err := s.verify(rawToken, security.SubjectUser)
	if err != nil {
		return nil, err
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		slog.Error("invalid_token_subject",
			slog.String("token_part", security.TruncateToken(rawToken)),
		)
		return nil, model.NewInvalidTokenFormatError()
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		slog.Error("user_not_found", slog.Int64("user_id", userID))
		return nil, model.NewUserNotFoundError()
	}

	return user, nil
}

// ResolveSession はセッショントークンからセッションを取得する。
//   - 検証失敗・種別違い: 401
//   - subjectがUUIDでない: 422
//   - セッションが存在しない: 404
func (s *Service) ResolveSession(ctx context.Context, rawToken string) (*model.Session, error) {
	claims, err := s.verify(rawToken, security.SubjectSession)
	if err != nil {
		return nil, err
	}

	sessionID, err := uuid.Parse(claims.Subject)
	if err != nil {
		slog.Error("invalid_token_subject",
			slog.String("token_part", security.TruncateToken(rawToken)),
		)
		return nil, model.NewInvalidTokenFormatError()
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		slog.Error("session_not_found", slog.String("session_id", sessionID.String()))
		return nil, model.NewSessionNotFoundError()
	}

	return session, nil
}

// verify はトークンを無害化・検証し、期待する種別であることを確認する。
func (s *Service) verify(rawToken string, want security.SubjectKind) (security.Claims, error) {
	token := s.sanitizer.Token(rawToken)

	claims, ok := s.codec.Verify(token)
	if !ok {
		slog.Error("invalid_token", slog.String("token_part", security.TruncateToken(rawToken)))
		return security.Claims{}, model.NewInvalidTokenError()
	}
	if claims.Kind != want {
		slog.Error("invalid_token_kind",
			slog.String("token_part", security.TruncateToken(rawToken)),
			slog.String("kind", string(claims.Kind)),
			slog.String("want", string(want)),
		)
		return security.Claims{}, model.NewInvalidTokenError()
	}

	return claims, nil
}

func (s *Service) record(event, outcome string) {
	if s.events != nil {
		s.events.RecordAuthEvent(event, outcome)
	}
}
