// Package collect implements the challenge-aware extraction and recovery
// engine: navigation, disclosure-control detection, challenge recovery,
// contact extraction, and the per-row orchestration that ties them to the
// ledger.
package collect

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/storefront-cli/internal/browser"
	"github.com/sells-group/storefront-cli/internal/resilience"
)

// NavigationController loads URLs into the session's main handle.
type NavigationController struct {
	session browser.Session
	settle  time.Duration
}

// NewNavigationController creates a controller with the given settle delay.
func NewNavigationController(session browser.Session, settle time.Duration) *NavigationController {
	return &NavigationController{session: session, settle: settle}
}

// Load normalizes the URL scheme, navigates the main handle, and waits the
// settle delay. It reports transport-level success only; page content is
// validated by later steps. Failures never propagate as errors so the caller
// can classify them uniformly.
func (n *NavigationController) Load(ctx context.Context, rawURL string) bool {
	url := NormalizeURL(rawURL)
	if url == "" {
		zap.L().Warn("navigate: empty url")
		return false
	}

	// Transient network failures get one backed-off retry before the row is
	// written off as unreachable.
	err := resilience.Do(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) error {
		return n.session.Navigate(ctx, url)
	})
	if err != nil {
		zap.L().Warn("navigate: load failed", zap.String("url", url), zap.Error(err))
		return false
	}

	sleepCtx(ctx, n.settle)
	return true
}

// NormalizeURL trims whitespace and prepends https:// when the URL carries no
// scheme.
func NormalizeURL(raw string) string {
	url := strings.TrimSpace(raw)
	if url == "" {
		return ""
	}
	if !strings.Contains(url, "://") {
		url = "https://" + url
	}
	return url
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
