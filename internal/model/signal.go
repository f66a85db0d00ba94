package model

import "time"

// Signal is one progress observation for an in-flight job. It is a closed sum
// type: the reconciler switches exhaustively over the concrete variants
// instead of sniffing optional fields on a loose map.
type Signal interface {
	isSignal()
}

// SimulatedSignal is an optimistic locally-generated percentage from the
// simulated ticker. It only keeps the UI moving while no authoritative data
// exists yet.
type SimulatedSignal struct {
	Percent float64
}

// PolledSignal is an authoritative progress observation from the backend
// status endpoint.
type PolledSignal struct {
	Stage    StageID
	Percent  float64
	StepName string
	Message  string

	// Page fields are only set for page-bounded stages.
	Page *PageInfo
	// PagePercent is the completion of the current page, 0-100.
	PagePercent float64
	// PageTimings are realized per-page durations reported by the backend.
	PageTimings map[int]time.Duration
}

// CompletedSignal terminates a job successfully.
type CompletedSignal struct {
	Result JobResult
}

// FailedSignal terminates a job with a backend-reported error.
type FailedSignal struct {
	Reason string
}

// PageInfo locates per-page work inside a page-bounded stage.
type PageInfo struct {
	Current int
	Total   int
}

func (SimulatedSignal) isSignal() {}
func (PolledSignal) isSignal()    {}
func (CompletedSignal) isSignal() {}
func (FailedSignal) isSignal()    {}

// PollStatus is the raw backend status payload for a polled session.
type PollStatus struct {
	Progress    float64
	Stage       StageID
	StepName    string
	Message     string
	Page        *PageInfo
	PagePercent float64
	PageTimings map[int]time.Duration
	Result      *JobResult
	Err         string
}

// Signal converts a poll status into its progress signal. Error conditions
// and completion dominate plain progress data.
func (s PollStatus) Signal() Signal {
	if s.Err != "" {
		return FailedSignal{Reason: s.Err}
	}
	if s.Progress >= 100 && s.Result != nil {
		return CompletedSignal{Result: *s.Result}
	}
	return PolledSignal{
		Stage:       s.Stage,
		Percent:     s.Progress,
		StepName:    s.StepName,
		Message:     s.Message,
		Page:        s.Page,
		PagePercent: s.PagePercent,
		PageTimings: s.PageTimings,
	}
}
