// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hitoshi/chatbridge/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	userContextKey      = contextKey("user")
	sessionContextKey   = contextKey("session")
	principalContextKey = contextKey("principal")
)

// UserResolver はユーザートークンからユーザーを解決する。
type UserResolver interface {
	ResolveUser(ctx context.Context, rawToken string) (*model.User, error)
}

// SessionResolver はセッショントークンからセッションを解決する。
type SessionResolver interface {
	ResolveSession(ctx context.Context, rawToken string) (*model.Session, error)
}

// BearerToken はAuthorizationヘッダーからベアラートークンを取り出す。
// スキーム名は大文字小文字を区別しない。ヘッダーがない、またはBearer以外の場合はfalseを返す。
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// NewUserAuthMiddleware はユーザートークンを要求するミドルウェアを返す。
// 解決したユーザーをリクエストコンテキストに注入する。
func NewUserAuthMiddleware(resolver UserResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				WriteErrorResponse(w, model.NewInvalidTokenError())
				return
			}

			user, err := resolver.ResolveUser(r.Context(), token)
			if err != nil {
				WriteError(w, r, err)
				return
			}

			if p := principalFromContext(r.Context()); p != nil {
				p.userID = user.ID
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// NewSessionAuthMiddleware はセッショントークンを要求するミドルウェアを返す。
// 解決したセッションをリクエストコンテキストに注入する。
func NewSessionAuthMiddleware(resolver SessionResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				WriteErrorResponse(w, model.NewInvalidTokenError())
				return
			}

			session, err := resolver.ResolveSession(r.Context(), token)
			if err != nil {
				WriteError(w, r, err)
				return
			}

			if p := principalFromContext(r.Context()); p != nil {
				p.userID = session.UserID
				p.sessionID = session.ID
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), session)))
		})
	}
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// NewUserAuthMiddlewareを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	return user, ok && user != nil
}

// ContextWithUser はコンテキストにユーザーを注入する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// SessionFromContext はリクエストコンテキストからセッションを取得する。
// NewSessionAuthMiddlewareを通過したリクエストでのみ有効。
func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(*model.Session)
	return session, ok && session != nil
}

// ContextWithSession はコンテキストにセッションを注入する。
func ContextWithSession(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// principal はアクセスログに出力する認証主体。
// ログミドルウェアが用意し、認証ミドルウェアが書き込む。
type principal struct {
	userID    int64
	sessionID string
}

func withPrincipal(ctx context.Context) (context.Context, *principal) {
	p := &principal{}
	return context.WithValue(ctx, principalContextKey, p), p
}

func principalFromContext(ctx context.Context) *principal {
	p, _ := ctx.Value(principalContextKey).(*principal)
	return p
}
