package collect

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/storefront-cli/internal/browser"
	"github.com/sells-group/storefront-cli/internal/model"
)

// RecoveryStateMachine resolves a detected challenge to a terminal outcome by
// interleaving automatic page-state polling with non-blocking operator
// commands, under a retry and wall-clock budget.
//
// States: ChallengeOpen -> WaitingUserInput -> {Completed | Skipped |
// Reloading | TimedOut}. Reloading transitions back to ChallengeOpen by
// re-invoking the disclosure click, bounded by the reload cap.
type RecoveryStateMachine struct {
	session  browser.Session
	detector *ChallengeDetector
	commands <-chan string

	completionKeywords []string
	challengeURLRe     *regexp.Regexp

	pollInterval   time.Duration
	timeout        time.Duration
	maxReloads     int
	disclosureWait time.Duration
}

// NewRecoveryStateMachine wires the state machine to the session, the
// detector, and the operator command channel. challengeURLPattern may be
// empty, in which case the URL exit check is disabled.
func NewRecoveryStateMachine(
	session browser.Session,
	detector *ChallengeDetector,
	commands <-chan string,
	completionKeywords []string,
	challengeURLPattern string,
	pollInterval, timeout, disclosureWait time.Duration,
	maxReloads int,
) *RecoveryStateMachine {
	var re *regexp.Regexp
	if challengeURLPattern != "" {
		// Pattern validity is enforced by config validation at startup.
		re = regexp.MustCompile(challengeURLPattern)
	}
	return &RecoveryStateMachine{
		session:            session,
		detector:           detector,
		commands:           commands,
		completionKeywords: completionKeywords,
		challengeURLRe:     re,
		pollInterval:       pollInterval,
		timeout:            timeout,
		maxReloads:         maxReloads,
		disclosureWait:     disclosureWait,
	}
}

// Resolve polls until the challenge reaches a terminal outcome or the budget
// runs out. The engine cannot distinguish "operator solved it" from "operator
// gave up and closed the tab" purely from DOM state, so a window-set that
// shrinks back without an operator command is classified as AutoRetry, never
// Success: the caller must redo the whole disclosure step instead of trusting
// stale content.
func (m *RecoveryStateMachine) Resolve(ctx context.Context) model.ChallengeOutcome {
	log := zap.L().With(zap.String("component", "collect.recovery"))
	deadline := time.Now().Add(m.timeout)
	reloads := 0

	for {
		if ctx.Err() != nil {
			log.Info("recovery: cancelled, skipping row")
			return model.OutcomeSkip
		}

		count, err := m.detector.WindowCount(ctx)
		if err != nil {
			log.Warn("recovery: window count failed", zap.Error(err))
		} else if count <= m.detector.Baseline() || count <= 1 {
			log.Info("recovery: challenge surface gone without confirmation")
			return model.OutcomeAutoRetry
		}

		// Non-blocking operator command check.
		select {
		case cmd := <-m.commands:
			switch cmd {
			case CommandSkip:
				log.Info("recovery: operator skip")
				return model.OutcomeSkip
			case CommandReload:
				if reloads >= m.maxReloads {
					log.Warn("recovery: reload cap reached", zap.Int("reloads", reloads))
					return model.OutcomeTimeout
				}
				reloads++
				log.Info("recovery: operator reload", zap.Int("attempt", reloads))
				if err := m.detector.CloseChallenge(ctx); err != nil {
					log.Warn("recovery: close challenge failed", zap.Error(err))
				}
				if !m.detector.HasDisclosureControl(ctx, m.disclosureWait) {
					// The control vanished mid-reload; hand the full
					// disclosure step back to the orchestrator.
					return model.OutcomeReload
				}
				continue
			default:
				// Any other line falls through to the automatic checks.
			}
		default:
		}

		// Automatic completion: surface still open but its content or URL no
		// longer looks like a challenge.
		if m.completed(ctx) {
			log.Info("recovery: completion signal detected")
			return model.OutcomeSuccess
		}

		if time.Now().After(deadline) {
			log.Warn("recovery: budget exhausted")
			return model.OutcomeTimeout
		}

		sleepCtx(ctx, m.pollInterval)
	}
}

// completed checks the focused page for a completion keyword or for a URL
// that no longer matches the challenge pattern.
func (m *RecoveryStateMachine) completed(ctx context.Context) bool {
	if text, err := m.session.Text(ctx); err == nil {
		for _, kw := range m.completionKeywords {
			if kw != "" && strings.Contains(text, kw) {
				return true
			}
		}
	}

	if m.challengeURLRe != nil {
		if url, err := m.session.Location(ctx); err == nil && url != "" {
			if !m.challengeURLRe.MatchString(url) {
				return true
			}
		}
	}
	return false
}
