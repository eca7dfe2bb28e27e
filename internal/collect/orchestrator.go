package collect

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/storefront-cli/internal/browser"
	"github.com/sells-group/storefront-cli/internal/config"
	"github.com/sells-group/storefront-cli/internal/ledger"
	"github.com/sells-group/storefront-cli/internal/model"
)

// Journal records batch run progress. Implementations must tolerate being
// called from a single flow only.
type Journal interface {
	StartRun(ctx context.Context, tablePath string, queued int) (string, error)
	RecordRow(ctx context.Context, runID string, outcome model.RowOutcome) error
	CompleteRun(ctx context.Context, runID string, stats model.BatchStats) error
}

// Orchestrator drives the per-row workflow end to end and aggregates batch
// results. Rows are processed strictly sequentially: one browser session
// serializes all UI work.
type Orchestrator struct {
	ledger    *ledger.Ledger
	session   browser.Session
	nav       *NavigationController
	detector  *ChallengeDetector
	recovery  *RecoveryStateMachine
	extractor *InfoExtractor
	listener  *CommandListener
	journal   Journal
	limiter   *rate.Limiter
	cfg       config.CollectConfig
}

// NewOrchestrator assembles the engine around one browser session. input is
// the operator command stream, normally stdin. journal may be nil.
func NewOrchestrator(
	l *ledger.Ledger,
	session browser.Session,
	cfg config.CollectConfig,
	selectors config.SelectorConfig,
	input io.Reader,
	journal Journal,
) *Orchestrator {
	nav := NewNavigationController(session, secs(cfg.PageSettleSecs))
	detector := NewChallengeDetector(session, selectors, secs(cfg.ClickSettleSecs))
	listener := NewCommandListener(input)
	recovery := NewRecoveryStateMachine(
		session,
		detector,
		listener.Commands(),
		selectors.CompletionKeywords,
		selectors.ChallengeURLPattern,
		secs(cfg.ChallengePollSecs),
		secs(cfg.ChallengeTimeoutSecs),
		secs(cfg.DisclosureWaitSecs),
		cfg.ChallengeMaxReloads,
	)

	interval := secs(cfg.InterRowDelaySecs)
	if interval <= 0 {
		interval = time.Second
	}

	return &Orchestrator{
		ledger:    l,
		session:   session,
		nav:       nav,
		detector:  detector,
		recovery:  recovery,
		extractor: NewInfoExtractor(session, selectors),
		listener:  listener,
		journal:   journal,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
		cfg:       cfg,
	}
}

// Run computes the work queue once, then processes each row. A row-level
// failure never aborts the batch; an external interrupt stops the loop after
// the current row with all already-flushed state intact.
func (o *Orchestrator) Run(ctx context.Context) (model.BatchStats, error) {
	log := zap.L().With(zap.String("component", "collect.orchestrator"))

	queue := o.ledger.FilterWorkQueue(o.cfg.DomainMarker)
	stats := model.BatchStats{Queued: len(queue)}
	if len(queue) == 0 {
		log.Info("work queue is empty")
		return stats, nil
	}
	log.Info("work queue computed",
		zap.Int("queued", len(queue)),
		zap.Int("rows", o.ledger.Len()),
	)

	runID := o.startJournal(ctx, len(queue))

	// The listener runs for the whole batch; its context dies with the loop
	// so it can never outlive the owning call by more than one pending read.
	listenCtx, stopListener := context.WithCancel(context.Background())
	g := new(errgroup.Group)
	g.Go(func() error { return o.listener.Run(listenCtx) })

	for i, rec := range queue {
		if ctx.Err() != nil {
			log.Warn("batch interrupted", zap.Int("remaining", len(queue)-i))
			break
		}

		outcome := o.processRow(ctx, rec, i+1, len(queue))
		stats.Processed++
		switch outcome.Status {
		case model.RowStatusSuccess, model.RowStatusClosed:
			stats.Succeeded++
		case model.RowStatusAlreadyDone:
			stats.Skipped++
		default:
			stats.Failed++
		}
		o.recordJournal(ctx, runID, outcome)

		// Bounds the outbound request rate between rows.
		if err := o.limiter.Wait(ctx); err != nil {
			break
		}
	}

	stopListener()
	_ = g.Wait()

	o.completeJournal(ctx, runID, stats)
	log.Info("batch complete",
		zap.Int("queued", stats.Queued),
		zap.Int("processed", stats.Processed),
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped", stats.Skipped),
	)
	return stats, nil
}

// processRow executes the six-step row workflow. Failures are classified and
// stamped onto the ledger here; nothing escapes to abort the batch.
func (o *Orchestrator) processRow(ctx context.Context, rec model.Record, n, total int) (outcome model.RowOutcome) {
	log := zap.L().With(
		zap.String("company", rec.CompanyName),
		zap.String("url", rec.StoreURL),
	)

	outcome = model.RowOutcome{
		CompanyName: rec.CompanyName,
		StoreURL:    rec.StoreURL,
		Position:    o.ledger.RowPosition(rec.CompanyName),
	}

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("row panic: %v", r)
			log.Error("row processing panicked", zap.Any("panic", r))
			o.ledger.MarkError(rec.CompanyName, msg)
			outcome.Status = model.RowStatusFailed
			outcome.Detail = msg
		}
	}()

	log.Info("processing row",
		zap.Int("n", n),
		zap.Int("total", total),
		zap.Int("table_row", outcome.Position),
	)

	// Re-check done-ness at process time to absorb out-of-band edits.
	if current, ok := o.ledger.Get(rec.CompanyName); ok && (current.Closed() || current.FullyUpdated()) {
		log.Info("row already done, skipping")
		outcome.Status = model.RowStatusAlreadyDone
		return outcome
	}

	if !o.nav.Load(ctx, rec.StoreURL) {
		return o.fail(rec, outcome, ErrUnreachable)
	}

	for cycle := 0; cycle < o.cfg.RowMaxCycles; cycle++ {
		if !o.detector.HasDisclosureControl(ctx, secs(o.cfg.DisclosureWaitSecs)) {
			// Terminal business signal: no disclosure control means the
			// store is gone. Counted as a successful outcome.
			log.Info("disclosure control absent, marking closed")
			o.ledger.MarkClosed(rec.CompanyName)
			outcome.Status = model.RowStatusClosed
			return outcome
		}

		if !o.detector.ChallengeOpened(ctx) {
			return o.extract(ctx, rec, outcome)
		}

		switch result := o.recovery.Resolve(ctx); result {
		case model.OutcomeSuccess:
			return o.extract(ctx, rec, outcome)
		case model.OutcomeSkip:
			log.Info("row skipped")
			return o.fail(rec, outcome, ErrSkipped)
		case model.OutcomeTimeout:
			return o.fail(rec, outcome, ErrChallengeTimeout)
		case model.OutcomeReload, model.OutcomeAutoRetry:
			log.Info("redoing disclosure step",
				zap.String("outcome", string(result)),
				zap.Int("cycle", cycle+1),
			)
		}
	}

	return o.fail(rec, outcome, ErrCyclesExhausted)
}

// extract runs the fallback chain and persists whatever it found.
func (o *Orchestrator) extract(ctx context.Context, rec model.Record, outcome model.RowOutcome) model.RowOutcome {
	result := o.extractor.Extract(ctx)
	if result.Empty() {
		return o.fail(rec, outcome, ErrExtractionEmpty)
	}

	applied := o.ledger.RecordExtraction(rec.CompanyName, result)
	zap.L().Info("contact info extracted",
		zap.String("company", rec.CompanyName),
		zap.String("phone", result.Phone),
		zap.String("email", result.Email),
		zap.Bool("persisted", applied),
	)
	outcome.Status = model.RowStatusSuccess
	return outcome
}

func (o *Orchestrator) fail(rec model.Record, outcome model.RowOutcome, cause error) model.RowOutcome {
	o.ledger.MarkError(rec.CompanyName, cause.Error())
	outcome.Status = model.RowStatusFailed
	outcome.Detail = cause.Error()
	return outcome
}

func (o *Orchestrator) startJournal(ctx context.Context, queued int) string {
	if o.journal == nil {
		return ""
	}
	runID, err := o.journal.StartRun(ctx, o.ledger.Path(), queued)
	if err != nil {
		zap.L().Warn("journal: start run failed", zap.Error(err))
		return ""
	}
	return runID
}

func (o *Orchestrator) recordJournal(ctx context.Context, runID string, outcome model.RowOutcome) {
	if o.journal == nil || runID == "" {
		return
	}
	if err := o.journal.RecordRow(ctx, runID, outcome); err != nil {
		zap.L().Warn("journal: record row failed", zap.Error(err))
	}
}

func (o *Orchestrator) completeJournal(ctx context.Context, runID string, stats model.BatchStats) {
	if o.journal == nil || runID == "" {
		return
	}
	if err := o.journal.CompleteRun(ctx, runID, stats); err != nil {
		zap.L().Warn("journal: complete run failed", zap.Error(err))
	}
}

func secs(n int) time.Duration {
	return time.Duration(n) * time.Second
}
