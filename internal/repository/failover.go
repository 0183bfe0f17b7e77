package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"pitline/internal/domain"
)

const redisRetryInterval = time.Minute

// FailoverLimiter направляет проверки в Redis и переключается на память,
// когда Redis недоступен. Раз в минуту пробует вернуться обратно.
type FailoverLimiter struct {
	primary  domain.RateLimiter
	fallback domain.RateLimiter
	logger   *zerolog.Logger

	isDown    atomic.Bool
	downSince atomic.Int64
}

func NewFailoverLimiter(primary, fallback domain.RateLimiter, logger *zerolog.Logger) *FailoverLimiter {
	return &FailoverLimiter{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (f *FailoverLimiter) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if f.isDown.Load() && !f.shouldRetry() {
		return f.fallback.CheckRateLimit(ctx, key, limit, window)
	}

	allowed, err := f.primary.CheckRateLimit(ctx, key, limit, window)
	if err != nil {
		f.markDown(err)
		return f.fallback.CheckRateLimit(ctx, key, limit, window)
	}

	if f.isDown.Swap(false) {
		f.logger.Info().Msg("redis recovered, rate limiting back on primary")
	}
	return allowed, nil
}

func (f *FailoverLimiter) shouldRetry() bool {
	since := f.downSince.Load()
	return time.Since(time.Unix(since, 0)) >= redisRetryInterval
}

func (f *FailoverLimiter) markDown(err error) {
	if !f.isDown.Swap(true) {
		f.logger.Warn().Err(err).Msg("redis unavailable, rate limiting falls back to memory")
	}
	f.downSince.Store(time.Now().Unix())
}
