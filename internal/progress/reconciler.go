package progress

import (
	"sync"

	"github.com/aleixmp/jobpace/internal/model"
)

// State is the reconciler's lifecycle state for one job.
type State string

const (
	// StateSimulated means only the local optimistic ticker has produced data.
	StateSimulated State = "simulated"
	// StatePolling means authoritative backend data has been seen.
	StatePolling State = "polling"
	// StateCompleted means the job finished successfully.
	StateCompleted State = "completed"
	// StateFailed means the backend reported a terminal failure.
	StateFailed State = "failed"
)

// Display is the reconciled stage/percentage/sub-step to show right now.
type Display struct {
	Stage   model.StageID
	Percent float64
	SubStep string
}

// Reconciler merges the locally simulated progress ticker with the
// authoritative polled backend signal. Polled data strictly dominates: once a
// poll response has been seen, simulated values are discarded for display
// purposes, though the ticker may keep feeding them harmlessly. The latest
// arriving poll always wins, even when it reports a lower stage or percentage
// than currently displayed.
type Reconciler struct {
	mu         sync.Mutex
	state      State
	display    Display
	result     *model.JobResult
	failReason string
}

// NewReconciler creates a reconciler in the simulated state.
func NewReconciler() *Reconciler {
	return &Reconciler{state: StateSimulated}
}

// Apply folds a progress signal into the reconciled display and returns the
// resulting display. Signals arriving after a terminal state are ignored.
func (r *Reconciler) Apply(signal model.Signal) Display {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateCompleted || r.state == StateFailed {
		return r.display
	}

	switch s := signal.(type) {
	case model.SimulatedSignal:
		// Authoritative data has taken over, the ticker's output is noise now.
		if r.state == StatePolling {
			return r.display
		}
		if s.Percent > r.display.Percent {
			r.display.Percent = s.Percent
		}

	case model.PolledSignal:
		r.state = StatePolling
		r.display = Display{Stage: s.Stage, Percent: s.Percent, SubStep: s.StepName}

	case model.CompletedSignal:
		r.state = StateCompleted
		result := s.Result
		r.result = &result
		r.display.Percent = 100

	case model.FailedSignal:
		r.state = StateFailed
		r.failReason = s.Reason
	}

	return r.display
}

// State returns the current lifecycle state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Display returns the current reconciled display.
func (r *Reconciler) Display() Display {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.display
}

// Result returns the completed job's result, nil until completion.
func (r *Reconciler) Result() *model.JobResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// FailureReason returns the backend's failure message, empty unless failed.
func (r *Reconciler) FailureReason() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failReason
}
