package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	perr "insightmart/internal/platform/errors"
)

func TestRunFiresUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var n atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, "test", "20ms", func(context.Context) error {
			n.Add(1)
			return nil
		})
	}()

	deadline := time.Now().Add(3 * time.Second)
	for n.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n.Load() == 0 {
		t.Fatalf("job never ran")
	}
}

func TestRunRejectsBadSpecs(t *testing.T) {
	for _, spec := range []string{"-5m", "every tuesday"} {
		err := Run(context.Background(), "test", spec, func(context.Context) error { return nil })
		if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			t.Fatalf("%q: err = %v", spec, err)
		}
	}
}
