package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// OpenOptions настройки открытия хранилища.
type OpenOptions struct {
	Logger      *slog.Logger
	Attempts    uint64        // общее число попыток открытия
	BaseDelay   time.Duration // первая задержка экспоненциального backoff
	MaxDelay    time.Duration
	LockTimeout time.Duration // ожидание блокировки файла при каждой попытке

	// OnReopen вызывается перед повторным открытием после потери соединения
	OnReopen func()
}

// DefaultOpenOptions returns the options used when none are configured.
func DefaultOpenOptions() OpenOptions {
	return OpenOptions{
		Logger:      slog.Default(),
		Attempts:    5,
		BaseDelay:   50 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		LockTimeout: time.Second,
	}
}

// WithDefaults fills zero fields from DefaultOpenOptions.
func (o OpenOptions) WithDefaults() OpenOptions {
	d := DefaultOpenOptions()
	if o.Logger == nil {
		o.Logger = d.Logger
	}
	if o.Attempts == 0 {
		o.Attempts = d.Attempts
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = d.BaseDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = d.MaxDelay
	}
	if o.LockTimeout <= 0 {
		o.LockTimeout = d.LockTimeout
	}
	return o
}

// NotifyReopen runs the OnReopen hook if one is set.
func (o OpenOptions) NotifyReopen() {
	if o.OnReopen != nil {
		o.OnReopen()
	}
}

// OpenWithRetry calls open until it succeeds or the attempts are exhausted.
// Every failure is treated as transient; exhaustion returns *StorageOpenError.
func OpenWithRetry(ctx context.Context, path string, opts OpenOptions, open func(ctx context.Context) error) error {
	opts = opts.WithDefaults()

	backoff := retry.NewExponential(opts.BaseDelay)
	backoff = retry.WithCappedDuration(opts.MaxDelay, backoff)
	backoff = retry.WithMaxRetries(opts.Attempts-1, backoff)

	attempts := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if err := open(ctx); err != nil {
			opts.Logger.Warn("Failed to open storage",
				"path", path,
				"attempt", attempts,
				"error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return &StorageOpenError{Path: path, Attempts: attempts, Err: err}
	}

	return nil
}
