package reconcile

import "math"

// Verdict is the safety gate's decision for a run
type Verdict int

const (
	// Proceed means missing assets may be removed
	Proceed Verdict = iota
	// NothingMissing means every asset was found
	NothingMissing
	// Abort means too many assets are missing to trust the filesystem
	Abort
)

func (v Verdict) String() string {
	switch v {
	case Proceed:
		return "proceed"
	case NothingMissing:
		return "nothing_missing"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// Decision is the outcome of Evaluate
type Decision struct {
	Ratio   float64
	Verdict Verdict
}

// MissingRatio returns missing/total, or 0 when total is 0
func MissingRatio(total, missing int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(missing) / float64(total)
}

// Evaluate applies the safety threshold. A ratio strictly above maxRatio aborts,
// and so does a threshold that is not a number.
func Evaluate(total, missing int, maxRatio float64) Decision {
	ratio := MissingRatio(total, missing)

	switch {
	case missing == 0:
		return Decision{Ratio: ratio, Verdict: NothingMissing}
	case math.IsNaN(maxRatio), ratio > maxRatio:
		return Decision{Ratio: ratio, Verdict: Abort}
	default:
		return Decision{Ratio: ratio, Verdict: Proceed}
	}
}
