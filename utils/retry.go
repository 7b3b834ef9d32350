package utils

import (
	"context"
	"log/slog"
	"time"

	"clinical-trials-agent-backend/config"

	"github.com/avast/retry-go/v4"
)

// RetryPolicy 重试策略：最多 Attempts 次尝试，两次尝试之间按指数退避等待，
// 叠加 [0, MaxJitter) 的随机抖动，单次等待不超过 MaxDelay
type RetryPolicy struct {
	Name      string
	Attempts  uint
	MinDelay  time.Duration
	MaxDelay  time.Duration
	MaxJitter time.Duration

	// 为 nil 时重试所有可恢复错误
	RetryIf func(error) bool

	// 为 nil 时使用真实计时器
	Timer retry.Timer
}

func NewRetryPolicy(name string, cfg config.RetryConfig) RetryPolicy {
	return RetryPolicy{
		Name:      name,
		Attempts:  cfg.Attempts,
		MinDelay:  cfg.MinDelay,
		MaxDelay:  cfg.MaxDelay,
		MaxJitter: cfg.MaxJitter,
	}
}

// Do 按策略执行 fn，返回最后一次失败的错误
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	return retry.Do(
		fn,
		p.options(ctx)...,
	)
}

func (p RetryPolicy) options(ctx context.Context) []retry.Option {
	attempts := p.Attempts
	if attempts == 0 {
		attempts = 1
	}

	delayType := retry.BackOffDelay
	if p.MaxJitter > 0 {
		delayType = retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)
	}

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(p.MinDelay),
		retry.MaxDelay(p.MaxDelay),
		retry.MaxJitter(p.MaxJitter),
		retry.DelayType(delayType),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("Retrying after failure",
				"policy", p.Name,
				"attempt", n+1,
				"err", err,
			)
		}),
	}
	if p.RetryIf != nil {
		opts = append(opts, retry.RetryIf(p.RetryIf))
	}
	if p.Timer != nil {
		opts = append(opts, retry.WithTimer(p.Timer))
	}
	return opts
}
