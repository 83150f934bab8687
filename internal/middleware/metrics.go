package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// unmatchedRoute はどのルートにも一致しなかったリクエストのendpointラベル。
const unmatchedRoute = "unmatched"

// HTTPObserver はHTTPリクエストのメトリクスを記録する。
type HTTPObserver interface {
	ObserveHTTPRequest(method, endpoint string, status int, duration time.Duration)
}

// NewMetricsMiddleware はリクエスト数と処理時間を記録するミドルウェアを返す。
// endpointラベルにはchiのルートパターンを使用し、パスパラメータによるラベル増加を防ぐ。
func NewMetricsMiddleware(observer HTTPObserver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rec, r)

			endpoint := unmatchedRoute
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					endpoint = pattern
				}
			}
			observer.ObserveHTTPRequest(r.Method, endpoint, rec.statusCode, time.Since(start))
		})
	}
}
