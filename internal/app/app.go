// Package app はサブコマンドの解析と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/chatbridge/internal/agent"
	"github.com/hitoshi/chatbridge/internal/auth"
	"github.com/hitoshi/chatbridge/internal/chat"
	"github.com/hitoshi/chatbridge/internal/config"
	"github.com/hitoshi/chatbridge/internal/database"
	"github.com/hitoshi/chatbridge/internal/handler"
	"github.com/hitoshi/chatbridge/internal/logger"
	"github.com/hitoshi/chatbridge/internal/metrics"
	"github.com/hitoshi/chatbridge/internal/middleware"
	"github.com/hitoshi/chatbridge/internal/repository"
	"github.com/hitoshi/chatbridge/internal/security"
)

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
// 返されるio.Closerはログファイルを閉じる。
func Init(w io.Writer) (*config.Config, io.Closer, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定に従ってログを再構成する
	l, closer, err := logger.New(w, logger.Options{
		Level: logger.ParseLevel(cfg.LogLevel),
		Dir:   cfg.LogDir,
		Env:   cfg.AppEnv,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	slog.SetDefault(l)

	return cfg, closer, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, closer, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer closer.Close()

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("env", cfg.AppEnv),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg)
	}
}

// server はワイヤリング済みのHTTPハンドラーと、停止が必要なリソースを保持する。
type server struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
}

// newServer は設定とDB接続から全依存関係をワイヤリングする。
func newServer(cfg *config.Config, db *sql.DB, reg *prometheus.Registry) (*server, error) {
	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)

	// 2. セキュリティサービスの初期化
	codec, err := security.NewTokenCodec(cfg.JWTSecretKey, cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create token codec: %w", err)
	}
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)
	sanitizer := security.NewSanitizer()

	// 3. メトリクス
	collector := metrics.NewCollector(reg)

	// 4. ドメインサービスの初期化
	authService := auth.NewService(
		userRepo, sessionRepo, hasher, codec, sanitizer,
		auth.WithEventRecorder(collector),
	)
	chatService := chat.NewService(newAgent(cfg, slog.Default()), collector)

	// 5. レート制限
	limits, err := buildRateLimits(cfg)
	if err != nil {
		return nil, err
	}
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())

	// 6. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		RateLimits:        limits,
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(reg),

		AuthService:     authService,
		UserResolver:    authService,
		SessionResolver: authService,
		SessionService:  authService,
		ChatService:     chatService,
		DB:              db,
	})

	return &server{handler: router, rateLimiter: rateLimiter}, nil
}

// newAgent はAGENT_URLが設定されていればHTTPエージェントを、なければエコーエージェントを返す。
func newAgent(cfg *config.Config, l *slog.Logger) agent.Agent {
	if cfg.AgentURL == "" {
		l.Warn("AGENT_URL is not set, using echo agent")
		return agent.EchoAgent{}
	}
	return agent.NewHTTPClient(&http.Client{Timeout: cfg.AgentTimeout}, l, cfg.AgentURL)
}

// buildRateLimits は設定文字列からエンドポイントごとのポリシーを生成する。
func buildRateLimits(cfg *config.Config) (handler.RateLimitPolicies, error) {
	var limits handler.RateLimitPolicies
	specs := []struct {
		name string
		spec string
		dst  *middleware.Policy
	}{
		{"register", cfg.RateLimitRegister, &limits.Register},
		{"login", cfg.RateLimitLogin, &limits.Login},
		{"session", cfg.RateLimitSession, &limits.Session},
		{"chat", cfg.RateLimitChat, &limits.Chat},
	}

	for _, s := range specs {
		p, err := middleware.ParsePolicy(s.name, s.spec)
		if err != nil {
			return handler.RateLimitPolicies{}, fmt.Errorf("invalid %s rate limit: %w", s.name, err)
		}
		*s.dst = p
	}
	return limits, nil
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	// 2. ワイヤリング
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv, err := newServer(cfg, db, reg)
	if err != nil {
		return err
	}
	defer srv.rateLimiter.Stop()

	// 3. HTTPサーバーの起動
	httpServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: srv.handler,
		// エージェント応答を待つため、WriteTimeoutはエージェントのタイムアウトより長くする
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AgentTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", httpServer.Addr),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	return checkHealth(fmt.Sprintf("http://localhost:%s/health", port))
}

func checkHealth(endpoint string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// 解析できないURLは全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
