package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/chatbridge/internal/model"
)

// Policy はエンドポイントごとのレート制限ポリシー。
type Policy struct {
	Name  string     // ログとリミッターのキーに使う名前
	Rate  rate.Limit // 補充レート（req/sec）
	Burst int        // バーストサイズ
}

// ParsePolicy は "20/minute" 形式の文字列からポリシーを生成する。
// 単位は second、minute、hour を受け付ける。"20 per minute" の表記も可。
// バーストサイズは期間あたりの回数と同じにする。
func ParsePolicy(name, spec string) (Policy, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(strings.ToLower(spec)), " per ", "/")
	countStr, unit, ok := strings.Cut(normalized, "/")
	if !ok {
		return Policy{}, fmt.Errorf("invalid rate limit %q: expected <count>/<unit>", spec)
	}

	count, err := strconv.Atoi(strings.TrimSpace(countStr))
	if err != nil || count <= 0 {
		return Policy{}, fmt.Errorf("invalid rate limit %q: count must be a positive integer", spec)
	}

	var period time.Duration
	switch strings.TrimSpace(unit) {
	case "second", "sec", "s":
		period = time.Second
	case "minute", "min", "m":
		period = time.Minute
	case "hour", "h":
		period = time.Hour
	default:
		return Policy{}, fmt.Errorf("invalid rate limit %q: unknown unit %q", spec, unit)
	}

	return Policy{
		Name:  name,
		Rate:  rate.Limit(float64(count) / period.Seconds()),
		Burst: count,
	}, nil
}

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		CleanupInterval: 5 * time.Minute,
	}
}

// clientLimiter はクライアントごとのレートリミッターとアクセス時刻を保持する。
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はポリシーとクライアントIPの組ごとのレート制限を管理する。
// ポリシーごとに独立したバケットを持つため、ログインの制限がチャットに影響することはない。
type RateLimiter struct {
	config RateLimiterConfig

	mu       sync.Mutex
	limiters map[string]*clientLimiter

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultRateLimiterConfig().CleanupInterval
	}
	rl := &RateLimiter{
		config:   config,
		limiters: make(map[string]*clientLimiter),
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Middleware は指定ポリシーでクライアントIPごとに制限するミドルウェアを返す。
// クライアントIPはRemoteAddrから取得するため、chiのRealIPの後に配置する。
func (rl *RateLimiter) Middleware(policy Policy) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := clientIPFromRequest(r)
			limiter := rl.getOrCreateLimiter(policy, clientIP)

			if !limiter.Allow() {
				writeRateLimitResponse(w, policy.Rate)
				slog.Warn("rate limit exceeded",
					slog.String("client_ip", clientIP),
					slog.String("limit_type", policy.Name),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LimiterCount は現在管理されているリミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) LimiterCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// getOrCreateLimiter はポリシーとクライアントの組に対するリミッターを取得または作成する。
func (rl *RateLimiter) getOrCreateLimiter(policy Policy, clientIP string) *rate.Limiter {
	key := policy.Name + "|" + clientIP

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if cl, exists := rl.limiters[key]; exists {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	limiter := rate.NewLimiter(policy.Rate, policy.Burst)
	rl.limiters[key] = &clientLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup(now time.Time) {
	ttl := rl.config.CleanupInterval * 2

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, cl := range rl.limiters {
		if now.Sub(cl.lastAccess) > ttl {
			delete(rl.limiters, key)
		}
	}
}

// clientIPFromRequest はRemoteAddrからポート番号を除いたIPを返す。
func clientIPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfterSec := 1
	if r > 0 {
		retryAfterSec = int(math.Ceil(1.0 / float64(r)))
	}
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	WriteErrorResponse(w, model.NewRateLimitExceededError())
}
