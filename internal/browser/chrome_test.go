package browser

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropagateParent_CallerCancelPropagates(t *testing.T) {
	caller, callerCancel := context.WithCancel(context.Background())
	merged, stop := propagateParent(context.Background(), caller)
	defer stop()

	callerCancel()

	select {
	case <-merged.Done():
	case <-time.After(time.Second):
		t.Fatal("merged context not cancelled after caller cancel")
	}
}

func TestPropagateParent_NilCaller(t *testing.T) {
	merged, stop := propagateParent(context.Background(), nil)
	defer stop()

	assert.NoError(t, merged.Err())
}

func TestPropagateParent_StopReleasesGoroutine(t *testing.T) {
	// A batch-level context stays live for hours while browser calls come and
	// go. Each call's bridge must be released by its stop func, not held
	// until batch shutdown.
	batch, batchCancel := context.WithCancel(context.Background())
	defer batchCancel()

	before := runtime.NumGoroutine()
	for i := 0; i < 200; i++ {
		_, stop := propagateParent(context.Background(), batch)
		stop()
	}

	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+5
	}, time.Second, 10*time.Millisecond,
		"bridge goroutines still pending while the batch context is live")
}
