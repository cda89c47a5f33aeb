package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithRetry(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	t.Run("succeeds after contention clears", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, 5, time.Millisecond, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return ErrRecordBusy
			}
			return nil
		})
		a.NoError(err)
		a.Equal(3, calls)
	})

	t.Run("non-retryable errors return immediately", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		err := WithRetry(ctx, 5, time.Millisecond, func(ctx context.Context) error {
			calls++
			return boom
		})
		a.Equal(boom, err)
		a.Equal(1, calls)
	})

	t.Run("validation errors are not retried", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, 5, time.Millisecond, func(ctx context.Context) error {
			calls++
			return newValidationError("it is not your turn")
		})
		a.True(IsValidation(err))
		a.Equal(1, calls)
	})

	t.Run("exhaustion wraps the final error", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, 4, time.Millisecond, func(ctx context.Context) error {
			calls++
			return ErrRecordBusy
		})
		a.Error(err)
		a.True(errors.Is(err, ErrRecordBusy))
		a.Equal(4, calls)
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		calls := 0
		err := WithRetry(cctx, 5, time.Millisecond, func(ctx context.Context) error {
			calls++
			cancel()
			return ErrRecordBusy
		})
		a.Equal(context.Canceled, err)
		a.Equal(1, calls)
	})
}
