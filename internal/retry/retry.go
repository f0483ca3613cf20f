// Package retry 基于指数退避重试可恢复的操作（例如页面导航）
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"wxdl/internal/config"
)

const (
	DefaultMaxRetries      = 2
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMaxInterval     = 5 * time.Second
)

// Operation 可重试的操作，成功时返回 nil
type Operation func() error

// ShouldRetryFunc 判断错误是否值得重试；为 nil 时所有错误都重试
type ShouldRetryFunc func(error) bool

// Config 重试参数，MaxRetries 不含首次执行
type Config struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultConfig 返回默认重试参数
func DefaultConfig() Config {
	return Config{
		MaxRetries:      DefaultMaxRetries,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
	}
}

// FromNavigation 由导航配置构造重试参数
func FromNavigation(nav config.Navigation) Config {
	cfg := DefaultConfig()
	cfg.MaxRetries = nav.Retries
	if nav.RetryInterval > 0 {
		cfg.InitialInterval = nav.RetryInterval
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		cfg.MaxInterval = cfg.InitialInterval
	}
	return cfg
}

// Do 执行 op，失败且 shouldRetry 返回 true 时按指数退避重试。
// 不可重试的错误原样返回；重试耗尽时返回包装了最后一次错误的错误；
// ctx 结束后不再发起新的尝试。
func Do(ctx context.Context, cfg Config, logger *slog.Logger, opName string, op Operation, shouldRetry ShouldRetryFunc) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialInterval
	b.MaxInterval = cfg.MaxInterval
	b.MaxElapsedTime = 0

	bo := backoff.WithContext(backoff.WithMaxRetries(b, cfg.MaxRetries), ctx)

	attempts := 0
	permanent := false
	retryable := func() error {
		attempts++
		err := op()
		if err == nil {
			return nil
		}
		if shouldRetry != nil && !shouldRetry(err) {
			permanent = true
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("operation failed, retrying", "op", opName, "attempt", attempts, "wait", wait, "err", err)
	}

	err := backoff.RetryNotify(retryable, bo, notify)
	switch {
	case err == nil:
		return nil
	case permanent:
		return err
	case ctx.Err() != nil:
		return fmt.Errorf("%s canceled after %d attempts: %w", opName, attempts, ctx.Err())
	default:
		return fmt.Errorf("%s failed after %d attempts: %w", opName, attempts, err)
	}
}
