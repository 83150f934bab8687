package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/chatbridge/internal/model"
)

// SubjectKind はトークンのsubjectがどの種類のIDかを表す。
// 検証側はこの値でユーザートークンとセッショントークンを区別する。
type SubjectKind string

const (
	// SubjectUser はsubjectがユーザーIDであることを示す。
	SubjectUser SubjectKind = "user"
	// SubjectSession はsubjectがセッションIDであることを示す。
	SubjectSession SubjectKind = "session"
)

func (k SubjectKind) valid() bool {
	return k == SubjectUser || k == SubjectSession
}

var (
	// ErrMissingSecret は署名鍵が設定されていない場合に返される。
	ErrMissingSecret = errors.New("token signing secret is not configured")
	// ErrInvalidTTL はトークン有効期間が0以下の場合に返される。
	ErrInvalidTTL = errors.New("token TTL must be positive")
)

// Claims は検証済みトークンから取り出した情報。
type Claims struct {
	Subject   string
	Kind      SubjectKind
	ExpiresAt time.Time
}

// tokenClaims はJWTペイロードの構造。
type tokenClaims struct {
	Kind SubjectKind `json:"kind"`
	jwt.RegisteredClaims
}

// TokenCodec はHS256署名のベアラートークンを発行・検証する。
// 状態を持たないため、任意の数のゴルーチンから同時に使用できる。
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption はTokenCodecのオプション。
type TokenOption func(*TokenCodec)

// WithClock は現在時刻の取得関数を差し替える。テスト用。
func WithClock(now func() time.Time) TokenOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

// NewTokenCodec はTokenCodecを生成する。
// 署名鍵が空の場合は起動を中止できるようエラーを返す。
func NewTokenCodec(secret string, ttl time.Duration, opts ...TokenOption) (*TokenCodec, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	c := &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue はsubjectとその種類を埋め込んだトークンを発行する。
// 有効期限は発行時刻 + TTL。
func (c *TokenCodec) Issue(kind SubjectKind, subject string) (model.Token, error) {
	if !kind.valid() {
		return model.Token{}, fmt.Errorf("unknown subject kind: %q", kind)
	}
	if subject == "" {
		return model.Token{}, fmt.Errorf("subject is required")
	}

	now := c.now()
	claims := tokenClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return model.Token{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return model.Token{
		AccessToken: signed,
		TokenType:   model.TokenTypeBearer,
		ExpiresAt:   claims.ExpiresAt.Time.UTC(),
	}, nil
}

// Verify はトークンを検証し、subjectを返す。
// 形式不正・署名不正・期限切れ・HS256以外のアルゴリズム・未知のkindはすべて
// falseとして返し、攻撃者が制御する入力に対してエラーやpanicを起こさない。
func (c *TokenCodec) Verify(raw string) (Claims, bool) {
	if raw == "" {
		return Claims{}, false
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return Claims{}, false
	}

	if claims.Subject == "" || !claims.Kind.valid() || claims.ExpiresAt == nil {
		return Claims{}, false
	}

	return Claims{
		Subject:   claims.Subject,
		Kind:      claims.Kind,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, true
}
