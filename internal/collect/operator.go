package collect

import (
	"bufio"
	"context"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Operator commands recognized during challenge resolution. Anything else
// means "continue waiting" and is passed through for the automatic checks.
const (
	CommandReload = "reload"
	CommandSkip   = "skip"
)

// CommandListener reads operator lines from an input stream and hands off at
// most one pending command at a time through a single-slot channel. It exists
// so the recovery poll loop never blocks on a console read.
type CommandListener struct {
	r  io.Reader
	ch chan string
}

// NewCommandListener wraps the given input stream, normally stdin.
func NewCommandListener(r io.Reader) *CommandListener {
	return &CommandListener{r: r, ch: make(chan string, 1)}
}

// Commands returns the single-slot command channel.
func (l *CommandListener) Commands() <-chan string {
	return l.ch
}

// Run reads lines until the stream ends or ctx is cancelled. A line arriving
// while the slot is full is dropped. A read blocked on the console survives
// cancellation until its next line, but the ctx check in front of the send
// guarantees it can never deliver a stale command afterwards.
func (l *CommandListener) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(l.r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		cmd := strings.ToLower(strings.TrimSpace(scanner.Text()))
		select {
		case l.ch <- cmd:
		default:
			zap.L().Debug("operator: command dropped, slot full", zap.String("command", cmd))
		}
	}
	return scanner.Err()
}

// AwaitConfirmation blocks until the operator sends any line, used for the
// "ready to proceed" hand-off after manual login.
func AwaitConfirmation(r io.Reader) error {
	reader := bufio.NewReader(r)
	_, err := reader.ReadString('\n')
	if err == io.EOF {
		return nil
	}
	return err
}
