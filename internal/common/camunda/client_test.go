package camunda

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"offer-ledger/internal/common/errors"

	"github.com/stretchr/testify/assert"
)

func fastRetry() *RetryConfig {
	return &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetry(), "topology", func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("rpc error: code = Unavailable")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetry(), "deploy", func(context.Context) error {
		calls++
		return fmt.Errorf("permission denied")
	})

	assert.Equal(t, 1, calls)
	assert.True(t, stderrors.Is(err, &errors.StandardError{Code: errors.ErrCodeExternalService}))
}

func TestRetry_ExhaustedTimeoutMapsToTimeoutCode(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetry(), "topology", func(context.Context) error {
		calls++
		return fmt.Errorf("context deadline exceeded")
	})

	assert.Equal(t, 4, calls)
	assert.Equal(t, errors.ErrCodeTimeout, errors.CodeOf(err))
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rc := &RetryConfig{MaxRetries: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}

	err := Retry(ctx, rc, "topology", func(context.Context) error {
		return fmt.Errorf("connection refused")
	})

	assert.ErrorIs(t, err, context.Canceled)
}
