package collect

import "github.com/rotisserie/eris"

// Classified row-failure errors. Their messages are what gets stamped into
// the ledger's error marker, so they are stable identifiers, not prose.
var (
	// ErrUnreachable: navigation failed at the transport level.
	ErrUnreachable = eris.New("page unreachable")

	// ErrChallengeTimeout: the challenge was never resolved within the
	// wall-clock budget or the reload cap.
	ErrChallengeTimeout = eris.New("challenge timeout")

	// ErrExtractionEmpty: the page was reached and revealed but the fallback
	// chain found neither phone nor email.
	ErrExtractionEmpty = eris.New("extraction failed")

	// ErrSkipped: the operator gave up on the row.
	ErrSkipped = eris.New("skipped by operator")

	// ErrCyclesExhausted: the disclosure step was redone the maximum number
	// of times without reaching extraction.
	ErrCyclesExhausted = eris.New("disclosure retries exhausted")
)
