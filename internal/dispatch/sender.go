package dispatch

import (
	"context"
	"errors"
	"fmt"
)

// DeliveryResult carries the provider-side id of a delivered message.
type DeliveryResult struct {
	ProviderMessageID string
}

// ProviderSender is the capability set every channel adapter implements.
// Media sends are best-effort side channels; callers must not abort a batch
// because one item failed.
type ProviderSender interface {
	SendText(ctx context.Context, to, text string) (DeliveryResult, error)
	SendImage(ctx context.Context, to, url, caption string) (DeliveryResult, error)
	SendDocument(ctx context.Context, to, url, filename string) (DeliveryResult, error)
}

// ErrNoCredentials marks a send that was aborted because the tenant's stored
// credentials could not be decrypted or are missing. Terminal: never retried.
var ErrNoCredentials = errors.New("tenant credentials unavailable")

// ProviderError is a non-2xx response from a channel API. 5xx and 429 are
// transient; any other 4xx means the request itself is bad and retrying
// cannot fix it.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned %d: %s", e.StatusCode, e.Body)
}

func (e *ProviderError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// retryable classifies an error for the backoff loop. Anything that is not a
// definitive provider rejection (transport failures included) is worth a retry.
func retryable(err error) bool {
	if errors.Is(err, ErrNoCredentials) {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return true
}
