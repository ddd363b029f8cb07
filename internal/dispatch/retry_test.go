package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedSender fails with the queued errors, then succeeds.
type scriptedSender struct {
	errs  []error
	calls int
}

func (s *scriptedSender) next() (DeliveryResult, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return DeliveryResult{}, err
	}
	return DeliveryResult{ProviderMessageID: "msg-1"}, nil
}

func (s *scriptedSender) SendText(ctx context.Context, to, text string) (DeliveryResult, error) {
	return s.next()
}

func (s *scriptedSender) SendImage(ctx context.Context, to, url, caption string) (DeliveryResult, error) {
	return s.next()
}

func (s *scriptedSender) SendDocument(ctx context.Context, to, url, filename string) (DeliveryResult, error) {
	return s.next()
}

func newTestRetrier(inner ProviderSender) (*RetryingSender, *[]time.Duration) {
	r := NewRetryingSender(inner, zap.NewNop())
	var slept []time.Duration
	r.sleep = func(d time.Duration) { slept = append(slept, d) }
	return r, &slept
}

func TestRetryRecoversFromTransientErrors(t *testing.T) {
	inner := &scriptedSender{errs: []error{
		&ProviderError{StatusCode: 503, Body: "unavailable"},
		&ProviderError{StatusCode: 503, Body: "unavailable"},
	}}
	r, slept := newTestRetrier(inner)

	res, err := r.SendText(context.Background(), "628222", "halo")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", res.ProviderMessageID)
	assert.Equal(t, 3, inner.calls)
	// Backoff doubles per attempt.
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, *slept)
}

func TestRetryGivesUpAfterMaxRetries(t *testing.T) {
	inner := &scriptedSender{errs: []error{
		&ProviderError{StatusCode: 500},
		&ProviderError{StatusCode: 500},
		&ProviderError{StatusCode: 500},
		&ProviderError{StatusCode: 500},
		&ProviderError{StatusCode: 500},
	}}
	r, _ := newTestRetrier(inner)

	_, err := r.SendText(context.Background(), "628222", "halo")
	require.Error(t, err)
	// One initial attempt plus three retries.
	assert.Equal(t, 4, inner.calls)
}

func TestRetrySkipsClientErrors(t *testing.T) {
	inner := &scriptedSender{errs: []error{
		&ProviderError{StatusCode: 400, Body: "malformed"},
	}}
	r, slept := newTestRetrier(inner)

	_, err := r.SendText(context.Background(), "628222", "halo")
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.Empty(t, *slept)
}

func TestRetryTreats429AsTransient(t *testing.T) {
	inner := &scriptedSender{errs: []error{
		&ProviderError{StatusCode: 429, Body: "rate limited"},
	}}
	r, _ := newTestRetrier(inner)

	_, err := r.SendText(context.Background(), "628222", "halo")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestRetryNoCredentialsIsTerminal(t *testing.T) {
	inner := &scriptedSender{errs: []error{ErrNoCredentials}}
	r, _ := newTestRetrier(inner)

	_, err := r.SendImage(context.Background(), "628222", "https://x/a.jpg", "")
	assert.ErrorIs(t, err, ErrNoCredentials)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryTransportErrorsAreTransient(t *testing.T) {
	inner := &scriptedSender{errs: []error{errors.New("connection reset")}}
	r, _ := newTestRetrier(inner)

	_, err := r.SendText(context.Background(), "628222", "halo")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	inner := &scriptedSender{errs: []error{
		&ProviderError{StatusCode: 500},
		&ProviderError{StatusCode: 500},
	}}
	r, _ := newTestRetrier(inner)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.SendText(ctx, "628222", "halo")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.calls)
}

func TestProviderErrorClassification(t *testing.T) {
	assert.True(t, (&ProviderError{StatusCode: 500}).Retryable())
	assert.True(t, (&ProviderError{StatusCode: 503}).Retryable())
	assert.True(t, (&ProviderError{StatusCode: 429}).Retryable())
	assert.False(t, (&ProviderError{StatusCode: 400}).Retryable())
	assert.False(t, (&ProviderError{StatusCode: 401}).Retryable())
	assert.False(t, (&ProviderError{StatusCode: 404}).Retryable())
}
