package core

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Redis keys for auth activity counters.
const (
	MetricLoginSuccess  = "auth_metrics:login_success"
	MetricLoginFailure  = "auth_metrics:login_failure"
	MetricRefresh       = "auth_metrics:refresh"
	MetricRegistration  = "auth_metrics:registration"
	MetricTokenRejected = "auth_metrics:token_rejected"
)

// ActivityCounters are the current totals of auth events.
type ActivityCounters struct {
	LoginSuccess  int64 `json:"login_success"`
	LoginFailure  int64 `json:"login_failure"`
	Refresh       int64 `json:"refresh"`
	Registration  int64 `json:"registration"`
	TokenRejected int64 `json:"token_rejected"`
}

// MetricsService accumulates auth activity counters in Redis. Recording is
// best-effort: failures are reported to the caller only so they can be
// logged, and must never affect request handling. The counters are plain
// process-agnostic totals, not a token cache or revocation store.
type MetricsService struct {
	redis RedisClientRaw
}

func NewMetricsService(redis RedisClientRaw) *MetricsService {
	return &MetricsService{redis: redis}
}

// Record increments a single counter key.
func (s *MetricsService) Record(ctx context.Context, key string) error {
	if s == nil || s.redis == nil {
		return nil
	}
	return s.redis.Incr(ctx, key).Err()
}

// Counters reads the current totals. Missing keys count as zero.
func (s *MetricsService) Counters(ctx context.Context) (ActivityCounters, error) {
	var c ActivityCounters
	if s == nil || s.redis == nil {
		return c, nil
	}
	for key, dst := range map[string]*int64{
		MetricLoginSuccess:  &c.LoginSuccess,
		MetricLoginFailure:  &c.LoginFailure,
		MetricRefresh:       &c.Refresh,
		MetricRegistration:  &c.Registration,
		MetricTokenRejected: &c.TokenRejected,
	} {
		v, err := s.redis.Get(ctx, key).Int64()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return ActivityCounters{}, err
		}
		*dst = v
	}
	return c, nil
}
