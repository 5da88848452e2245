package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GregMSThompson/budget-sync/internal/errs"
	"github.com/GregMSThompson/budget-sync/pkg/helpers"
)

func TestWithRateLimitRetryRetriesAfterCooldown(t *testing.T) {
	attempts := 0
	err := WithRateLimitRetry(helpers.TestCtx(), func() error {
		attempts++
		if attempts == 1 {
			return errs.NewRateLimitedError(5 * time.Millisecond)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestWithRateLimitRetryDoesNotRetryOtherErrors(t *testing.T) {
	expectedErr := errors.New("validation rejected")
	attempts := 0
	err := WithRateLimitRetry(helpers.TestCtx(), func() error {
		attempts++
		return expectedErr
	})
	if !errors.Is(err, expectedErr) {
		t.Fatalf("error = %v, want %v", err, expectedErr)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestWithRateLimitRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(helpers.TestCtx())

	attempts := 0
	done := make(chan error, 1)
	go func() {
		done <- WithRateLimitRetry(ctx, func() error {
			attempts++
			return errs.NewRateLimitedError(time.Hour)
		})
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("retry loop did not stop on cancellation")
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt before cancel, got %d", attempts)
	}
}
