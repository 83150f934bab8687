package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/chatbridge/internal/middleware"
)

// RateLimitPolicies はエンドポイントごとのレート制限ポリシー。
type RateLimitPolicies struct {
	Register middleware.Policy
	Login    middleware.Policy
	Session  middleware.Policy
	Chat     middleware.Policy
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	RateLimits        RateLimitPolicies
	Metrics           middleware.HTTPObserver
	MetricsHandler    http.Handler

	// 認証
	AuthService     AuthServiceInterface
	UserResolver    middleware.UserResolver
	SessionResolver middleware.SessionResolver

	// セッション
	SessionService SessionServiceInterface

	// チャット
	ChatService ChatServiceInterface

	// ヘルスチェック
	DB Pinger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RequestID → RealIP → Logging → Metrics → SecurityHeaders → CORS
//	  → RateLimit(ルートごとのポリシー) → Bearer認証(ユーザーまたはセッション)
//
// /health と /metrics はレート制限と認証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService)
	sessionHandler := NewSessionHandler(deps.SessionService)
	chatHandler := NewChatHandler(deps.ChatService)
	healthHandler := NewHealthHandler(deps.DB)

	rl := deps.RateLimiter
	requireUser := middleware.NewUserAuthMiddleware(deps.UserResolver)
	requireSession := middleware.NewSessionAuthMiddleware(deps.SessionResolver)

	// --- 認証不要のルート ---
	r.Get("/health", healthHandler.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.With(rl.Middleware(deps.RateLimits.Register)).Post("/register", authHandler.Register)
	r.With(rl.Middleware(deps.RateLimits.Login)).Post("/login", authHandler.Login)

	// --- ユーザートークンが必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(rl.Middleware(deps.RateLimits.Session))
		r.Use(requireUser)

		r.Get("/me", authHandler.Me)
		r.Post("/session", sessionHandler.CreateSession)
		r.Get("/sessions", sessionHandler.ListSessions)
	})

	// --- セッショントークンが必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(rl.Middleware(deps.RateLimits.Chat))
		r.Use(requireSession)

		r.Post("/chat", chatHandler.Chat)
	})

	return r
}
