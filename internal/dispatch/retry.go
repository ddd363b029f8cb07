package dispatch

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseDelay  = 500 * time.Millisecond
	defaultMaxRetries = 3 // retries after the initial attempt
)

// RetryingSender wraps any ProviderSender with exponential backoff. The
// backoff loop lives here exactly once instead of being re-derived inside
// every provider adapter.
type RetryingSender struct {
	inner      ProviderSender
	baseDelay  time.Duration
	maxRetries int
	log        *zap.Logger
	sleep      func(time.Duration) // swapped out in tests
}

func NewRetryingSender(inner ProviderSender, log *zap.Logger) *RetryingSender {
	return &RetryingSender{
		inner:      inner,
		baseDelay:  defaultBaseDelay,
		maxRetries: defaultMaxRetries,
		log:        log,
		sleep:      time.Sleep,
	}
}

func (r *RetryingSender) SendText(ctx context.Context, to, text string) (DeliveryResult, error) {
	return r.do(ctx, "text", func() (DeliveryResult, error) {
		return r.inner.SendText(ctx, to, text)
	})
}

func (r *RetryingSender) SendImage(ctx context.Context, to, url, caption string) (DeliveryResult, error) {
	return r.do(ctx, "image", func() (DeliveryResult, error) {
		return r.inner.SendImage(ctx, to, url, caption)
	})
}

func (r *RetryingSender) SendDocument(ctx context.Context, to, url, filename string) (DeliveryResult, error) {
	return r.do(ctx, "document", func() (DeliveryResult, error) {
		return r.inner.SendDocument(ctx, to, url, filename)
	})
}

func (r *RetryingSender) do(ctx context.Context, kind string, call func() (DeliveryResult, error)) (DeliveryResult, error) {
	var res DeliveryResult
	var err error
	for attempt := 0; ; attempt++ {
		res, err = call()
		if err == nil {
			r.log.Info("send ok",
				zap.String("kind", kind),
				zap.Int("attempt", attempt+1))
			return res, nil
		}

		r.log.Warn("send attempt failed",
			zap.String("kind", kind),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if attempt >= r.maxRetries || !retryable(err) {
			return res, err
		}

		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}
		r.sleep(r.baseDelay * (1 << attempt))
	}
}
