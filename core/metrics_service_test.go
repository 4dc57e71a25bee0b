package core

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestMetrics(t *testing.T) *MetricsService {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewMetricsService(client)
}

func TestMetricsRecordAndCounters(t *testing.T) {
	m := newTestMetrics(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := m.Record(ctx, MetricLoginSuccess); err != nil {
			t.Fatalf("Record error: %v", err)
		}
	}
	if err := m.Record(ctx, MetricTokenRejected); err != nil {
		t.Fatalf("Record error: %v", err)
	}

	counters, err := m.Counters(ctx)
	if err != nil {
		t.Fatalf("Counters error: %v", err)
	}
	if counters.LoginSuccess != 3 {
		t.Fatalf("LoginSuccess = %d, want 3", counters.LoginSuccess)
	}
	if counters.TokenRejected != 1 {
		t.Fatalf("TokenRejected = %d, want 1", counters.TokenRejected)
	}
	if counters.LoginFailure != 0 || counters.Refresh != 0 || counters.Registration != 0 {
		t.Fatalf("untouched counters must be zero: %+v", counters)
	}
}

func TestMetricsNilServiceIsNoop(t *testing.T) {
	var m *MetricsService
	ctx := context.Background()

	if err := m.Record(ctx, MetricLoginSuccess); err != nil {
		t.Fatalf("nil service Record error: %v", err)
	}
	counters, err := m.Counters(ctx)
	if err != nil {
		t.Fatalf("nil service Counters error: %v", err)
	}
	if counters != (ActivityCounters{}) {
		t.Fatalf("nil service counters must be zero: %+v", counters)
	}
}

func TestCollectSystemStatus(t *testing.T) {
	m := newTestMetrics(t)
	ctx := context.Background()

	if err := m.Record(ctx, MetricRefresh); err != nil {
		t.Fatalf("Record error: %v", err)
	}

	st := CollectSystemStatus(ctx, m, time.Now().Add(-2*time.Second))
	if st.Activity.Refresh != 1 {
		t.Fatalf("Refresh counter = %d, want 1", st.Activity.Refresh)
	}
	if st.UptimeSeconds < 2 {
		t.Fatalf("UptimeSeconds = %d, want >= 2", st.UptimeSeconds)
	}
}
