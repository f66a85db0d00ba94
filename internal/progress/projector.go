package progress

import (
	"time"

	"github.com/aleixmp/jobpace/internal/history"
	"github.com/aleixmp/jobpace/internal/model"
)

// WordGenPerPage is the fixed per-page overhead of assembling the Word
// document after OCR, added on top of per-page OCR estimates.
const WordGenPerPage = time.Second

// Projector combines current-stage progress with historical estimates to
// produce the single remaining-time figure shown to the user.
type Projector struct {
	pipeline model.Pipeline
	history  *history.Store
}

// NewProjector creates a projector over a job type's pipeline and its duration
// history.
func NewProjector(pipeline model.Pipeline, hist *history.Store) *Projector {
	return &Projector{pipeline: pipeline, history: hist}
}

// PageContext carries the per-page position inside a page-bounded stage.
type PageContext struct {
	Current int
	Total   int
	// Percent is the completion of the current page, 0-100.
	Percent float64
}

// Remaining projects the time left for the whole job given the active stage,
// its completion percentage and its elapsed time. The second return is false
// when no estimate is possible (first-ever run at 0%): the caller shows
// nothing rather than a misleading number.
func (p *Projector) Remaining(active model.StageID, percent float64, elapsed time.Duration, pages *PageContext) (time.Duration, bool) {
	activeStage, ok := p.pipeline.Stage(active)
	if !ok {
		return 0, false
	}

	current, ok := p.activeRemaining(activeStage, percent, elapsed, pages)
	if !ok {
		return 0, false
	}

	total := current
	for _, stage := range p.pipeline.After(active) {
		if estimate, ok := EMA(p.history.StageHistory(stage.ID), StageAlpha); ok {
			total += estimate
		} else {
			total += stage.FallbackDuration
		}
	}

	return total, true
}

func (p *Projector) activeRemaining(stage model.Stage, percent float64, elapsed time.Duration, pages *PageContext) (time.Duration, bool) {
	// Per-page signals beat whole-stage projection when available: page counts
	// vary run to run, so elapsed/percent ratios lie.
	if stage.PageBounded && pages != nil && pages.Total > 0 {
		if remaining, ok := p.pageRemaining(pages); ok {
			return remaining, true
		}
	}

	if estimate, ok := EMA(p.history.StageHistory(stage.ID), StageAlpha); ok {
		return clampNonNegative(estimate - elapsed), true
	}

	// No history: ratio projection from what we have seen so far.
	if percent <= 0 || elapsed <= 0 {
		return 0, false
	}
	fraction := percent / 100
	projectedTotal := time.Duration(float64(elapsed) / fraction)
	return clampNonNegative(projectedTotal - elapsed), true
}

func (p *Projector) pageRemaining(pages *PageContext) (time.Duration, bool) {
	currentEstimate, ok := p.pageEstimate(pages.Current)
	if !ok {
		return 0, false
	}

	fractionLeft := 1 - pages.Percent/100
	if fractionLeft < 0 {
		fractionLeft = 0
	}
	remaining := time.Duration(float64(currentEstimate) * fractionLeft)

	for page := pages.Current + 1; page <= pages.Total; page++ {
		if estimate, ok := p.pageEstimate(page); ok {
			remaining += estimate
		} else {
			remaining += currentEstimate
		}
	}

	// Fixed Word-generation overhead for every page not fully rendered yet.
	pagesLeft := pages.Total - pages.Current + 1
	remaining += time.Duration(pagesLeft) * WordGenPerPage

	return remaining, true
}

func (p *Projector) pageEstimate(page int) (time.Duration, bool) {
	if estimate, ok := EMA(p.history.PageHistory(page), PageAlpha); ok {
		return estimate, true
	}

	// Unknown page: average the estimates of the pages we do know.
	known := p.history.Pages()
	if len(known) == 0 {
		return 0, false
	}
	var sum time.Duration
	count := 0
	for _, other := range known {
		if estimate, ok := EMA(p.history.PageHistory(other), PageAlpha); ok {
			sum += estimate
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / time.Duration(count), true
}

func clampNonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
