package collect

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandListener_NormalizesInput(t *testing.T) {
	l := NewCommandListener(strings.NewReader("  RELOAD  \n"))
	require.NoError(t, l.Run(context.Background()))

	select {
	case cmd := <-l.Commands():
		assert.Equal(t, CommandReload, cmd)
	default:
		t.Fatal("expected a pending command")
	}
}

func TestCommandListener_DropsWhenSlotFull(t *testing.T) {
	l := NewCommandListener(strings.NewReader("skip\nreload\nreload\n"))
	require.NoError(t, l.Run(context.Background()))

	// Only the first line fits the single-slot channel; the rest are
	// dropped rather than queued.
	assert.Equal(t, CommandSkip, <-l.Commands())
	select {
	case cmd := <-l.Commands():
		t.Fatalf("unexpected queued command %q", cmd)
	default:
	}
}

func TestCommandListener_CancelledContextDeliversNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewCommandListener(strings.NewReader("skip\n"))
	require.NoError(t, l.Run(ctx))

	select {
	case cmd := <-l.Commands():
		t.Fatalf("stale command %q delivered after cancel", cmd)
	default:
	}
}

func TestCommandListener_EndsCleanlyOnEOF(t *testing.T) {
	l := NewCommandListener(strings.NewReader(""))
	assert.NoError(t, l.Run(context.Background()))
}

func TestAwaitConfirmation(t *testing.T) {
	assert.NoError(t, AwaitConfirmation(strings.NewReader("\n")))
	assert.NoError(t, AwaitConfirmation(strings.NewReader(""))) // EOF counts
}
