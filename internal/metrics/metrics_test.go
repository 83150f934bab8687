package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestNewCollector_DoubleRegistrationPanics は同一レジストリへの二重登録がpanicすることを検証する。
func TestNewCollector_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = NewCollector(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	_ = NewCollector(reg)
}

// TestObserveHTTPRequest_IncrementsCounter はHTTPリクエストカウンタがラベルごとに増加することを検証する。
func TestObserveHTTPRequest_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveHTTPRequest("POST", "/login", 200, 10*time.Millisecond)
	c.ObserveHTTPRequest("POST", "/login", 200, 20*time.Millisecond)
	c.ObserveHTTPRequest("POST", "/login", 401, 5*time.Millisecond)

	if got := testutil.ToFloat64(c.httpRequests.WithLabelValues("POST", "/login", "200")); got != 2 {
		t.Errorf("http_requests_total{200} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.httpRequests.WithLabelValues("POST", "/login", "401")); got != 1 {
		t.Errorf("http_requests_total{401} = %v, want 1", got)
	}
}

// TestObserveHTTPRequest_RecordsDuration は処理時間ヒストグラムに記録されることを検証する。
func TestObserveHTTPRequest_RecordsDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveHTTPRequest("GET", "/health", 200, 250*time.Millisecond)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "chatbridge_http_request_duration_seconds" {
			found = true
			h := mf.GetMetric()[0].GetHistogram()
			if h.GetSampleCount() != 1 {
				t.Errorf("sample_count = %d, want 1", h.GetSampleCount())
			}
			if h.GetSampleSum() != 0.25 {
				t.Errorf("sample_sum = %v, want 0.25", h.GetSampleSum())
			}
		}
	}
	if !found {
		t.Error("chatbridge_http_request_duration_seconds metric not found")
	}
}

// TestRecordAuthEvent_IncrementsCounter は認証イベントカウンタが増加することを検証する。
func TestRecordAuthEvent_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuthEvent("login", "failure")
	c.RecordAuthEvent("login", "failure")
	c.RecordAuthEvent("login", "success")

	if got := testutil.ToFloat64(c.authEvents.WithLabelValues("login", "failure")); got != 2 {
		t.Errorf("auth_events_total{login,failure} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.authEvents.WithLabelValues("login", "success")); got != 1 {
		t.Errorf("auth_events_total{login,success} = %v, want 1", got)
	}
}

// TestObserveAgentLatency_RecordsObservation はエージェントレイテンシが記録されることを検証する。
func TestObserveAgentLatency_RecordsObservation(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveAgentLatency(1500 * time.Millisecond)

	if n := testutil.CollectAndCount(c.agentLatency); n != 1 {
		t.Errorf("collected metrics = %d, want 1", n)
	}
}
