package collect

import (
	"context"
	"sync"
	"time"

	"github.com/sells-group/storefront-cli/internal/browser"
	"github.com/sells-group/storefront-cli/internal/config"
)

// fakeSession implements browser.Session for engine tests. Hooks default to
// benign behavior; tests override what they need.
type fakeSession struct {
	mu sync.Mutex

	mainID   string
	targets  []browser.TargetInfo
	focused  string
	text     string
	html     string
	location string

	navigated     []string
	clicked       []string
	closedTargets []string

	navErr          error
	clickVisibleErr error
	clickErr        error

	// navFn, when set, decides per-URL navigation failures.
	navFn func(url string) error

	// targetsFn, when set, overrides the static target list; used to script
	// window-set transitions.
	targetsFn func() []browser.TargetInfo

	// onClickVisible, when set, runs under the lock after a recorded click;
	// used to script a click re-opening a challenge window.
	onClickVisible func()
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		mainID:  "main",
		targets: []browser.TargetInfo{{ID: "main", URL: "https://smartstore.naver.com/x"}},
		focused: "main",
	}
}

func (f *fakeSession) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.navErr != nil {
		return f.navErr
	}
	if f.navFn != nil {
		if err := f.navFn(url); err != nil {
			return err
		}
	}
	f.navigated = append(f.navigated, url)
	return nil
}

func (f *fakeSession) ClickVisible(_ context.Context, selector string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clickVisibleErr != nil {
		return f.clickVisibleErr
	}
	f.clicked = append(f.clicked, selector)
	if f.onClickVisible != nil {
		f.onClickVisible()
	}
	return nil
}

func (f *fakeSession) Click(_ context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clickErr != nil {
		return f.clickErr
	}
	f.clicked = append(f.clicked, selector)
	return nil
}

func (f *fakeSession) Targets(_ context.Context) ([]browser.TargetInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.targetsFn != nil {
		return f.targetsFn(), nil
	}
	out := make([]browser.TargetInfo, len(f.targets))
	copy(out, f.targets)
	return out, nil
}

func (f *fakeSession) MainTargetID() string { return f.mainID }

func (f *fakeSession) FocusTarget(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.focused = id
	return nil
}

func (f *fakeSession) CloseTarget(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closedTargets = append(f.closedTargets, id)
	kept := f.targets[:0]
	for _, t := range f.targets {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	f.targets = kept
	return nil
}

func (f *fakeSession) Text(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text, nil
}

func (f *fakeSession) HTML(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.html, nil
}

func (f *fakeSession) Location(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.location, nil
}

func (f *fakeSession) Close() error { return nil }

func (f *fakeSession) navigations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.navigated)
}

func (f *fakeSession) setTargets(targets ...browser.TargetInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = targets
}

func testSelectors() config.SelectorConfig {
	return config.SelectorConfig{
		DisclosureControl:      []string{`button[data-shp-area="fot.sellerinfo"]`},
		ChallengeMarkers:       []string{`img#captchaimg`},
		ChallengeCloseControls: []string{`button.close`},
		InfoContainers:         []string{`dl`},
		LabelSelectors:         []string{`dt`},
		ValueSelectors:         []string{`dd`},
		PhoneKeywords:          []string{"고객센터", "전화"},
		EmailKeywords:          []string{"e-mail", "이메일"},
		CompletionKeywords:     []string{"판매자 상세정보"},
		PhoneNoise:             []string{"잘못된 번호 신고"},
		ChallengeURLPattern:    "captcha",
	}
}
