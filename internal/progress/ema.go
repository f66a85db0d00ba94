package progress

import "time"

const (
	// StageAlpha smooths whole-stage duration histories. Low enough to absorb
	// single-run noise, high enough that the estimate follows a machine that
	// warmed up or changed load.
	StageAlpha = 0.3
	// PageAlpha smooths per-page durations. Per-page samples arrive far more
	// often than stage samples and staleness is costlier, so recent values
	// weigh more.
	PageAlpha = 0.4
)

// EMA computes the exponentially weighted moving average of an ordered sample
// sequence (oldest first). The oldest value seeds the accumulator, every later
// value folds in as alpha*value + (1-alpha)*acc. An empty sequence yields no
// estimate: callers decide their own fallback, the estimator never invents
// one.
func EMA(samples []time.Duration, alpha float64) (time.Duration, bool) {
	if len(samples) == 0 {
		return 0, false
	}

	acc := float64(samples[0])
	for _, s := range samples[1:] {
		acc = alpha*float64(s) + (1-alpha)*acc
	}

	return time.Duration(acc), true
}
