package progress

import (
	"sync"
	"time"

	"github.com/aleixmp/jobpace/internal/model"
)

// ClosedStage is the realized timing window of a finished stage.
type ClosedStage struct {
	Stage    model.StageID
	Duration time.Duration
}

// Tracker records stage start/end instants for one job run. At most one stage
// is active at a time: starting a stage closes whichever other stage was
// active, regardless of id ordering. Every operation is a total function over
// the in-memory state, out-of-order calls degrade to no-ops.
type Tracker struct {
	now func() time.Time

	mu      sync.Mutex
	windows map[model.StageID]*stageWindow
	active  model.StageID
	running bool
}

type stageWindow struct {
	startedAt time.Time
	endedAt   *time.Time
}

// NewTracker creates a stage tracker. A nil nowFunc defaults to time.Now.
func NewTracker(nowFunc func() time.Time) *Tracker {
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &Tracker{
		now:     nowFunc,
		windows: map[model.StageID]*stageWindow{},
	}
}

// StartStage marks a stage active. If another stage was active its timing
// window closes first and is returned. Starting the already-active stage is a
// no-op.
func (t *Tracker) StartStage(stage model.StageID) *ClosedStage {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running && t.active == stage {
		return nil
	}

	closed := t.closeActiveLocked()

	t.windows[stage] = &stageWindow{startedAt: t.now()}
	t.active = stage
	t.running = true

	return closed
}

// EndStage closes a stage's timing window if it is open. Ending a stage that
// never started or already ended is a no-op.
func (t *Tracker) EndStage(stage model.StageID) *ClosedStage {
	t.mu.Lock()
	defer t.mu.Unlock()

	window, ok := t.windows[stage]
	if !ok || window.endedAt != nil {
		return nil
	}

	end := t.now()
	window.endedAt = &end
	if t.running && t.active == stage {
		t.running = false
	}

	return &ClosedStage{Stage: stage, Duration: end.Sub(window.startedAt)}
}

// ElapsedInActive returns the time spent in the currently active stage, false
// when no stage is active.
func (t *Tracker) ElapsedInActive() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return 0, false
	}
	return t.now().Sub(t.windows[t.active].startedAt), true
}

// Active returns the currently active stage, false when none is.
func (t *Tracker) Active() (model.StageID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return 0, false
	}
	return t.active, true
}

// Reset discards all timing windows, used when the job's progress state is
// torn down.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.windows = map[model.StageID]*stageWindow{}
	t.running = false
}

func (t *Tracker) closeActiveLocked() *ClosedStage {
	if !t.running {
		return nil
	}

	window := t.windows[t.active]
	end := t.now()
	window.endedAt = &end
	t.running = false

	return &ClosedStage{Stage: t.active, Duration: end.Sub(window.startedAt)}
}
