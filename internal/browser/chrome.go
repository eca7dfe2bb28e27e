package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/storefront-cli/internal/config"
)

// ChromeSession implements Session on top of chromedp.
type ChromeSession struct {
	allocCancel context.CancelFunc
	mainCtx     context.Context
	mainCancel  context.CancelFunc
	mainID      target.ID

	mu      sync.Mutex
	focused context.Context
	tabs    map[target.ID]tabHandle
}

type tabHandle struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewChromeSession launches Chrome and attaches to its initial page, which
// becomes the session's main handle.
func NewChromeSession(ctx context.Context, cfg config.BrowserConfig) (*ChromeSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	mainCtx, mainCancel := chromedp.NewContext(allocCtx)

	// Start the browser so the main target exists.
	if err := chromedp.Run(mainCtx); err != nil {
		mainCancel()
		allocCancel()
		return nil, eris.Wrap(err, "browser: launch chrome")
	}

	c := chromedp.FromContext(mainCtx)
	if c == nil || c.Target == nil {
		mainCancel()
		allocCancel()
		return nil, eris.New("browser: no main target after launch")
	}

	s := &ChromeSession{
		allocCancel: allocCancel,
		mainCtx:     mainCtx,
		mainCancel:  mainCancel,
		mainID:      c.Target.TargetID,
		focused:     mainCtx,
		tabs:        make(map[target.ID]tabHandle),
	}

	zap.L().Info("browser: session started",
		zap.String("main_target", string(s.mainID)),
		zap.Bool("headless", cfg.Headless),
	)
	return s, nil
}

func (s *ChromeSession) MainTargetID() string { return string(s.mainID) }

func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	tctx, stop := s.withDeadline(s.mainCtx, ctx)
	defer stop()

	if err := chromedp.Run(tctx, chromedp.Navigate(url)); err != nil {
		return eris.Wrapf(err, "browser: navigate %s", url)
	}
	return nil
}

func (s *ChromeSession) ClickVisible(ctx context.Context, selector string, timeout time.Duration) error {
	fctx := s.focusedCtx()
	tctx, cancel := context.WithTimeout(fctx, timeout)
	defer cancel()
	tctx, stop := propagateParent(tctx, ctx)
	defer stop()

	actions := chromedp.Tasks{
		chromedp.WaitVisible(selector, queryOpt(selector)),
		centerScroll(selector),
		chromedp.Click(selector, queryOpt(selector)),
	}
	if err := chromedp.Run(tctx, actions); err != nil {
		return eris.Wrapf(err, "browser: click %s", selector)
	}
	return nil
}

func (s *ChromeSession) Click(ctx context.Context, selector string) error {
	tctx, cancel := context.WithTimeout(s.focusedCtx(), 3*time.Second)
	defer cancel()
	tctx, stop := propagateParent(tctx, ctx)
	defer stop()

	if err := chromedp.Run(tctx, chromedp.Click(selector, queryOpt(selector))); err != nil {
		return eris.Wrapf(err, "browser: click %s", selector)
	}
	return nil
}

func (s *ChromeSession) Targets(ctx context.Context) ([]TargetInfo, error) {
	tctx, stop := s.withDeadline(s.mainCtx, ctx)
	defer stop()

	infos, err := chromedp.Targets(tctx)
	if err != nil {
		return nil, eris.Wrap(err, "browser: list targets")
	}

	var pages []TargetInfo
	for _, info := range infos {
		if info.Type != "page" {
			continue
		}
		pages = append(pages, TargetInfo{
			ID:    string(info.TargetID),
			URL:   info.URL,
			Title: info.Title,
		})
	}
	return pages, nil
}

func (s *ChromeSession) FocusTarget(ctx context.Context, id string) error {
	tid := target.ID(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if tid == s.mainID {
		s.focused = s.mainCtx
		return s.bringToFront(ctx, s.mainCtx)
	}

	tab, ok := s.tabs[tid]
	if !ok {
		tabCtx, tabCancel := chromedp.NewContext(s.mainCtx, chromedp.WithTargetID(tid))
		tab = tabHandle{ctx: tabCtx, cancel: tabCancel}
		s.tabs[tid] = tab
	}
	s.focused = tab.ctx
	return s.bringToFront(ctx, tab.ctx)
}

func (s *ChromeSession) CloseTarget(ctx context.Context, id string) error {
	tid := target.ID(id)
	if tid == s.mainID {
		return eris.New("browser: refusing to close the main target")
	}

	s.mu.Lock()
	tab, ok := s.tabs[tid]
	if !ok {
		tabCtx, tabCancel := chromedp.NewContext(s.mainCtx, chromedp.WithTargetID(tid))
		tab = tabHandle{ctx: tabCtx, cancel: tabCancel}
	} else {
		delete(s.tabs, tid)
	}
	if s.focused == tab.ctx {
		s.focused = s.mainCtx
	}
	s.mu.Unlock()

	tctx, stop := s.withDeadline(tab.ctx, ctx)
	err := chromedp.Run(tctx, page.Close())
	stop()
	tab.cancel()
	if err != nil {
		return eris.Wrapf(err, "browser: close target %s", id)
	}
	return nil
}

func (s *ChromeSession) Text(ctx context.Context) (string, error) {
	tctx, stop := s.withDeadline(s.focusedCtx(), ctx)
	defer stop()

	var text string
	err := chromedp.Run(tctx, chromedp.Text("body", &text, chromedp.ByQuery))
	if err != nil {
		return "", eris.Wrap(err, "browser: page text")
	}
	return text, nil
}

func (s *ChromeSession) HTML(ctx context.Context) (string, error) {
	tctx, stop := s.withDeadline(s.focusedCtx(), ctx)
	defer stop()

	var html string
	err := chromedp.Run(tctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err != nil {
		return "", eris.Wrap(err, "browser: page html")
	}
	return html, nil
}

func (s *ChromeSession) Location(ctx context.Context) (string, error) {
	tctx, stop := s.withDeadline(s.focusedCtx(), ctx)
	defer stop()

	var url string
	err := chromedp.Run(tctx, chromedp.Location(&url))
	if err != nil {
		return "", eris.Wrap(err, "browser: page location")
	}
	return url, nil
}

func (s *ChromeSession) Close() error {
	s.mu.Lock()
	for id, tab := range s.tabs {
		tab.cancel()
		delete(s.tabs, id)
	}
	s.mu.Unlock()

	s.mainCancel()
	s.allocCancel()
	zap.L().Info("browser: session closed")
	return nil
}

func (s *ChromeSession) focusedCtx() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focused
}

func (s *ChromeSession) bringToFront(ctx context.Context, tabCtx context.Context) error {
	tctx, stop := s.withDeadline(tabCtx, ctx)
	defer stop()

	if err := chromedp.Run(tctx, page.BringToFront()); err != nil {
		return eris.Wrap(err, "browser: bring to front")
	}
	return nil
}

// withDeadline bounds a chromedp context by the caller's deadline, if any.
// The returned stop func must be called once the operation finishes.
func (s *ChromeSession) withDeadline(tabCtx context.Context, caller context.Context) (context.Context, context.CancelFunc) {
	return propagateParent(tabCtx, caller)
}

// propagateParent cancels the chromedp context when the caller's context is
// done, without detaching the chromedp session internals. The bridging
// goroutine lives until the returned stop func is called or either context
// ends, so every call site must stop it when the operation returns.
func propagateParent(tabCtx context.Context, caller context.Context) (context.Context, context.CancelFunc) {
	if caller == nil {
		return context.WithCancel(tabCtx)
	}
	merged, cancel := context.WithCancel(tabCtx)
	go func() {
		select {
		case <-caller.Done():
			cancel()
		case <-merged.Done():
		}
	}()
	return merged, cancel
}

// queryOpt picks the chromedp query strategy: XPath for selectors starting
// with "/", CSS otherwise.
func queryOpt(selector string) chromedp.QueryOption {
	if strings.HasPrefix(selector, "/") {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// centerScroll scrolls a CSS-addressable element to the viewport center; for
// XPath selectors it falls back to chromedp's own scroll.
func centerScroll(selector string) chromedp.Action {
	if strings.HasPrefix(selector, "/") {
		return chromedp.ScrollIntoView(selector, chromedp.BySearch)
	}
	script := fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); if (el) el.scrollIntoView({block: "center"}); })()`,
		selector,
	)
	return chromedp.Evaluate(script, nil)
}
