package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aleixmp/jobpace/internal/history"
	"github.com/aleixmp/jobpace/internal/log"
	"github.com/aleixmp/jobpace/internal/model"
)

// Update is what the engine emits to its notifier on every tick: everything a
// progress panel needs to render, nothing about how to render it.
type Update struct {
	Percent    float64
	StageLabel string
	SubStep    string
	// Elapsed is the wall-clock time since the job started.
	Elapsed time.Duration
	// Remaining is the projected time left, nil when no estimate is possible.
	Remaining *time.Duration
	// Done is set on the final update of a successful job, with its Result.
	Done   bool
	Result *model.JobResult
	// FailReason is set on the final update of a failed job.
	FailReason string
}

// Notifier receives engine updates.
type Notifier interface {
	Notify(u Update)
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(u Update)

// Notify satisfies Notifier.
func (f NotifierFunc) Notify(u Update) { f(u) }

// EngineConfig is the configuration for the progress engine.
type EngineConfig struct {
	JobType  model.JobType
	History  *history.Store
	Notifier Notifier
	Logger   log.Logger

	// SimulatedInterval is the optimistic ticker period.
	SimulatedInterval time.Duration
	// SimulatedStep is the percentage added on each simulated tick.
	SimulatedStep float64
	// RedrawInterval is the fine-grained emission period.
	RedrawInterval time.Duration
	// NowFunc defaults to time.Now.
	NowFunc func() time.Time
}

func (c *EngineConfig) defaults() error {
	if _, err := model.PipelineFor(c.JobType); err != nil {
		return err
	}
	if c.History == nil {
		return fmt.Errorf("history store is required")
	}
	if c.Notifier == nil {
		return fmt.Errorf("notifier is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	if c.SimulatedInterval == 0 {
		c.SimulatedInterval = 500 * time.Millisecond
	}
	if c.SimulatedStep == 0 {
		c.SimulatedStep = 5
	}
	if c.RedrawInterval == 0 {
		c.RedrawInterval = 100 * time.Millisecond
	}
	if c.NowFunc == nil {
		c.NowFunc = time.Now
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "progress.Engine", "job-type": string(c.JobType)})
	return nil
}

// Engine owns the progress state of one in-flight job: the stage tracker, the
// dual-source reconciler, the remaining-time projector and the timers driving
// them. It is created per job and torn down with it, no state leaks between
// jobs beyond the duration history it feeds.
type Engine struct {
	jobType    model.JobType
	pipeline   model.Pipeline
	tracker    *Tracker
	reconciler *Reconciler
	projector  *Projector
	history    *history.Store
	notifier   Notifier
	logger     log.Logger
	now        func() time.Time

	simulatedInterval time.Duration
	simulatedStep     float64
	redrawInterval    time.Duration

	mu            sync.Mutex
	started       bool
	stopped       bool
	stopCh        chan struct{}
	jobStart      time.Time
	simPercent    float64
	pageCtx       *PageContext
	recordedPages map[int]bool
}

// NewEngine creates a progress engine for one job.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	pipeline, err := model.PipelineFor(cfg.JobType)
	if err != nil {
		return nil, err
	}

	return &Engine{
		jobType:           cfg.JobType,
		pipeline:          pipeline,
		tracker:           NewTracker(cfg.NowFunc),
		reconciler:        NewReconciler(),
		projector:         NewProjector(pipeline, cfg.History),
		history:           cfg.History,
		notifier:          cfg.Notifier,
		logger:            cfg.Logger,
		now:               cfg.NowFunc,
		simulatedInterval: cfg.SimulatedInterval,
		simulatedStep:     cfg.SimulatedStep,
		redrawInterval:    cfg.RedrawInterval,
		recordedPages:     map[int]bool{},
	}, nil
}

// Start begins tracking stage 0 and starts the simulated and redraw tickers.
// Starting an already-started engine is a no-op: there is never more than one
// set of timers per job.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.stopCh = make(chan struct{})
	e.jobStart = e.now()
	e.tracker.StartStage(0)
	stopCh := e.stopCh
	e.mu.Unlock()

	e.logger.Debugf("Progress engine started")

	go e.loop(ctx, stopCh)
}

func (e *Engine) loop(ctx context.Context, stopCh chan struct{}) {
	simulated := time.NewTicker(e.simulatedInterval)
	defer simulated.Stop()
	redraw := time.NewTicker(e.redrawInterval)
	defer redraw.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-simulated.C:
			e.Apply(ctx, model.SimulatedSignal{Percent: e.nextSimulatedPercent()})
		case <-redraw.C:
			e.emit()
		}
	}
}

// Apply folds a progress signal into the engine: reconciles the display,
// keeps stage timing windows in sync with the backend's reported stage,
// records realized durations and emits an update.
func (e *Engine) Apply(ctx context.Context, signal model.Signal) {
	switch s := signal.(type) {
	case model.PolledSignal:
		e.applyPolled(ctx, s)
	case model.CompletedSignal:
		e.finishStage(ctx)
	case model.FailedSignal:
		e.tracker.Reset()
	}

	e.reconciler.Apply(signal)

	switch e.reconciler.State() {
	case StateCompleted:
		e.emitFinal(Update{Done: true, Result: e.reconciler.Result()})
	case StateFailed:
		e.emitFinal(Update{FailReason: e.reconciler.FailureReason()})
	default:
		e.emit()
	}
}

func (e *Engine) applyPolled(ctx context.Context, s model.PolledSignal) {
	// The backend's stage is authoritative: entering a new stage closes the
	// previous timing window and records its realized duration. Timestamps are
	// only written on observed transitions, a duration can never be partial.
	if closed := e.tracker.StartStage(s.Stage); closed != nil {
		e.history.RecordStage(ctx, closed.Stage, closed.Duration)
	}

	if s.Page != nil && s.Page.Total > 0 {
		e.mu.Lock()
		first := e.pageCtx == nil
		e.pageCtx = &PageContext{Current: s.Page.Current, Total: s.Page.Total, Percent: s.PagePercent}
		e.mu.Unlock()

		if first {
			for page := 1; page <= s.Page.Total; page++ {
				e.history.LoadPage(ctx, page)
			}
		}
	}

	// Realized per-page durations reported by the backend, recorded once per
	// page per job.
	for page, d := range s.PageTimings {
		e.mu.Lock()
		seen := e.recordedPages[page]
		e.recordedPages[page] = true
		e.mu.Unlock()
		if !seen {
			e.history.RecordPage(ctx, page, d)
		}
	}
}

// finishStage closes the active stage on job completion so its duration makes
// it into the history.
func (e *Engine) finishStage(ctx context.Context) {
	active, ok := e.tracker.Active()
	if !ok {
		return
	}
	if closed := e.tracker.EndStage(active); closed != nil {
		e.history.RecordStage(ctx, closed.Stage, closed.Duration)
	}
}

// Stop tears the engine down, cancelling every timer exactly once. No updates
// are emitted after Stop returns.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started || e.stopped {
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.logger.Debugf("Progress engine stopped")
}

func (e *Engine) nextSimulatedPercent() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.simPercent += e.simulatedStep
	// Cap below 100: only authoritative data may claim completion.
	if e.simPercent > 95 {
		e.simPercent = 95
	}
	return e.simPercent
}

func (e *Engine) emit() {
	e.mu.Lock()
	if e.stopped || !e.started {
		e.mu.Unlock()
		return
	}
	elapsed := e.now().Sub(e.jobStart)
	pageCtx := e.pageCtx
	e.mu.Unlock()

	display := e.reconciler.Display()

	update := Update{
		Percent: display.Percent,
		SubStep: display.SubStep,
		Elapsed: elapsed,
	}
	if stage, ok := e.pipeline.Stage(display.Stage); ok {
		update.StageLabel = stage.Label
	}

	if active, ok := e.tracker.Active(); ok {
		stageElapsed, _ := e.tracker.ElapsedInActive()
		if remaining, ok := e.projector.Remaining(active, display.Percent, stageElapsed, pageCtx); ok {
			update.Remaining = &remaining
		}
	}

	e.notifier.Notify(update)
}

func (e *Engine) emitFinal(final Update) {
	e.mu.Lock()
	if e.stopped || !e.started {
		e.mu.Unlock()
		return
	}
	elapsed := e.now().Sub(e.jobStart)
	e.mu.Unlock()

	display := e.reconciler.Display()
	final.Percent = display.Percent
	final.Elapsed = elapsed
	if stage, ok := e.pipeline.Stage(display.Stage); ok {
		final.StageLabel = stage.Label
	}

	e.notifier.Notify(final)
	e.Stop()
}
