package collect

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/storefront-cli/internal/browser"
	"github.com/sells-group/storefront-cli/internal/config"
)

// ChallengeDetector decides whether the disclosure control exists and whether
// a challenge surface opened after clicking it. Challenge detection is
// count-based: the window-set size heuristic survives markup churn that
// breaks DOM-marker matching.
type ChallengeDetector struct {
	session     browser.Session
	selectors   config.SelectorConfig
	clickSettle time.Duration

	// baseline is the window-set size immediately before the last disclosure
	// click. One handle at session start.
	baseline int
}

// NewChallengeDetector creates a detector for the given session.
func NewChallengeDetector(session browser.Session, selectors config.SelectorConfig, clickSettle time.Duration) *ChallengeDetector {
	return &ChallengeDetector{
		session:     session,
		selectors:   selectors,
		clickSettle: clickSettle,
		baseline:    1,
	}
}

// HasDisclosureControl polls the configured disclosure locators, in order, up
// to timeout. When found the control is scrolled to the viewport center and
// clicked. Absence is a terminal business signal, not an error: the caller
// interprets it as "store permanently closed" and never retries.
func (d *ChallengeDetector) HasDisclosureControl(ctx context.Context, timeout time.Duration) bool {
	if count, err := d.WindowCount(ctx); err == nil && count > 0 {
		d.baseline = count
	}

	if len(d.selectors.DisclosureControl) == 0 {
		zap.L().Warn("detect: no disclosure locators configured")
		return false
	}

	per := timeout / time.Duration(len(d.selectors.DisclosureControl))
	if per < time.Second {
		per = time.Second
	}

	for _, sel := range d.selectors.DisclosureControl {
		if ctx.Err() != nil {
			return false
		}
		if err := d.session.ClickVisible(ctx, sel, per); err != nil {
			zap.L().Debug("detect: disclosure locator missed",
				zap.String("selector", sel),
				zap.Error(err),
			)
			continue
		}
		zap.L().Debug("detect: disclosure control clicked", zap.String("selector", sel))
		sleepCtx(ctx, d.clickSettle)
		return true
	}
	return false
}

// WindowCount returns the current window-set size.
func (d *ChallengeDetector) WindowCount(ctx context.Context) (int, error) {
	targets, err := d.session.Targets(ctx)
	if err != nil {
		return 0, err
	}
	return len(targets), nil
}

// Baseline returns the window-set size recorded before the last disclosure
// click.
func (d *ChallengeDetector) Baseline() int { return d.baseline }

// ChallengeOpened compares the current window-set size against the size
// recorded immediately before the click. When more handles are open, focus
// switches to the first non-main handle and the challenge is reported open.
func (d *ChallengeDetector) ChallengeOpened(ctx context.Context) bool {
	targets, err := d.session.Targets(ctx)
	if err != nil {
		zap.L().Warn("detect: cannot list targets", zap.Error(err))
		return false
	}
	if len(targets) <= d.baseline || len(targets) <= 1 {
		return false
	}

	main := d.session.MainTargetID()
	for _, t := range targets {
		if t.ID == main {
			continue
		}
		if err := d.session.FocusTarget(ctx, t.ID); err != nil {
			zap.L().Warn("detect: focus challenge surface failed",
				zap.String("target", t.ID),
				zap.Error(err),
			)
		}
		zap.L().Info("detect: challenge surface opened",
			zap.Int("windows", len(targets)),
			zap.String("target", t.ID),
		)
		return true
	}
	return false
}

// CloseChallenge closes every transient handle, clicks any configured close
// control left on the main page, and returns focus to the main handle. The
// main handle itself is never closed.
func (d *ChallengeDetector) CloseChallenge(ctx context.Context) error {
	targets, err := d.session.Targets(ctx)
	if err != nil {
		return err
	}

	main := d.session.MainTargetID()
	for _, t := range targets {
		if t.ID == main {
			continue
		}
		if err := d.session.CloseTarget(ctx, t.ID); err != nil {
			zap.L().Warn("detect: close transient target failed",
				zap.String("target", t.ID),
				zap.Error(err),
			)
		}
	}

	if err := d.session.FocusTarget(ctx, main); err != nil {
		return err
	}

	// Challenge overlays rendered in the main page need their close control
	// clicked; best effort, first hit wins.
	for _, sel := range d.selectors.ChallengeCloseControls {
		if err := d.session.Click(ctx, sel); err == nil {
			break
		}
	}
	return nil
}
