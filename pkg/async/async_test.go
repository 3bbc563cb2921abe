package async

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"NetworkingServer/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSafeKeepsValuesAfterCancel(t *testing.T) {
	require.NoError(t, Init(4))
	defer Release(time.Second)

	parent, cancel := context.WithCancel(context.WithValue(context.Background(), util.ContextKeyTraceID, "trace-x"))
	done := make(chan string, 1)
	errCh := make(chan error, 1)

	cancel()
	RunSafe(parent, func(runCtx context.Context) {
		errCh <- runCtx.Err()
		done <- util.GetTraceIDFromContext(runCtx)
	})

	select {
	case traceID := <-done:
		assert.Equal(t, "trace-x", traceID)
		assert.NoError(t, <-errCh)
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestRunSafeRecoversPanic(t *testing.T) {
	var ran int32
	finished := make(chan struct{})

	RunSafe(context.Background(), func(context.Context) {
		defer close(finished)
		atomic.AddInt32(&ran, 1)
		panic("boom")
	})

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestRunSafeWithTimeoutSetsDeadline(t *testing.T) {
	got := make(chan time.Duration, 1)
	RunSafeWithTimeout(context.Background(), 200*time.Millisecond, func(runCtx context.Context) {
		dl, ok := runCtx.Deadline()
		if !ok {
			got <- 0
			return
		}
		got <- time.Until(dl)
	})

	select {
	case left := <-got:
		assert.Greater(t, left, time.Duration(0))
		assert.LessOrEqual(t, left, 200*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
}
