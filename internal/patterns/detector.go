package patterns

import "math"

// PatternType identifies a detected chart formation
type PatternType string

const (
	DoubleBottom        PatternType = "Double Bottom"
	DoubleTop           PatternType = "Double Top"
	InverseHeadShoulder PatternType = "Inv H&S"
	HeadShoulder        PatternType = "H&S"
	GoldenCross         PatternType = "Golden Cross"
	DeathCross          PatternType = "Death Cross"
)

// Detection thresholds shared by all reversal formations. The extremum
// window is the half-width used to confirm a local min/max, the match
// tolerance bounds how close the two extremes must sit, and the
// retracement floor is the minimum bounce between them.
const (
	extremumWindow   = 5
	minSeparation    = 10
	matchTolerance   = 0.02
	minRetracement   = 0.03
	minPoints        = 20
	minPointsHS      = 30
	shoulderReach    = 15
	shoulderMinGap   = 5
	shoulderLevelTol = 0.05
	shoulderDiffTol  = 0.03
)

// isLocalMin reports whether prices[i] is the lowest value within the
// extremum window around i, clamped at the series edges.
func isLocalMin(prices []float64, i int) bool {
	lo := i - extremumWindow
	if lo < 0 {
		lo = 0
	}
	hi := i + extremumWindow
	if hi > len(prices)-1 {
		hi = len(prices) - 1
	}
	for j := lo; j <= hi; j++ {
		if j != i && prices[j] < prices[i] {
			return false
		}
	}
	return true
}

// isLocalMax reports whether prices[i] is the highest value within the
// extremum window around i, clamped at the series edges.
func isLocalMax(prices []float64, i int) bool {
	lo := i - extremumWindow
	if lo < 0 {
		lo = 0
	}
	hi := i + extremumWindow
	if hi > len(prices)-1 {
		hi = len(prices) - 1
	}
	for j := lo; j <= hi; j++ {
		if j != i && prices[j] > prices[i] {
			return false
		}
	}
	return true
}

// DetectDoubleBottom scans for two troughs at least minSeparation indices
// apart, within 2% of each other, separated by a rally of at least 3%.
// Detection is first-match: the earliest qualifying trough pair wins.
// Returns the index of the confirming second trough, or false,-1 when no
// formation exists or fewer than 20 points are supplied.
func DetectDoubleBottom(prices []float64) (bool, int) {
	if len(prices) < minPoints {
		return false, -1
	}

	for i := 0; i+minSeparation < len(prices); i++ {
		first := prices[i]
		if !isLocalMin(prices, i) {
			continue
		}

		for j := i + minSeparation; j < len(prices); j++ {
			diff := math.Abs(prices[j]-first) / first
			if diff >= matchTolerance {
				continue
			}

			maxBetween := first
			for k := i; k <= j; k++ {
				if prices[k] > maxBetween {
					maxBetween = prices[k]
				}
			}
			if (maxBetween-first)/first > minRetracement {
				return true, j
			}
		}
	}
	return false, -1
}

// DetectDoubleTop mirrors DetectDoubleBottom for two peaks separated by a
// pullback of at least 3%.
func DetectDoubleTop(prices []float64) (bool, int) {
	if len(prices) < minPoints {
		return false, -1
	}

	for i := 0; i+minSeparation < len(prices); i++ {
		first := prices[i]
		if !isLocalMax(prices, i) {
			continue
		}

		for j := i + minSeparation; j < len(prices); j++ {
			diff := math.Abs(prices[j]-first) / first
			if diff >= matchTolerance {
				continue
			}

			minBetween := first
			for k := i; k <= j; k++ {
				if prices[k] < minBetween {
					minBetween = prices[k]
				}
			}
			if (first-minBetween)/first > minRetracement {
				return true, j
			}
		}
	}
	return false, -1
}

// DetectHeadShoulders scans for a central peak flanked by two shoulders
// within shoulderReach indices, each holding at least 95% of the head's
// level and within 3% of each other. Returns the right shoulder's index.
func DetectHeadShoulders(prices []float64) (bool, int) {
	if len(prices) < minPointsHS {
		return false, -1
	}

	for head := shoulderReach; head < len(prices)-shoulderReach; head++ {
		headPrice := prices[head]
		if !isLocalMax(prices, head) {
			continue
		}

		for left := head - shoulderReach; left < head-shoulderMinGap; left++ {
			if prices[left] < headPrice*(1-shoulderLevelTol) {
				continue
			}
			for right := head + shoulderMinGap; right < head+shoulderReach && right < len(prices); right++ {
				if prices[right] < headPrice*(1-shoulderLevelTol) {
					continue
				}
				diff := math.Abs(prices[left]-prices[right]) / prices[left]
				if diff < shoulderDiffTol {
					return true, right
				}
			}
		}
	}
	return false, -1
}

// DetectInverseHeadShoulders mirrors DetectHeadShoulders for a central
// trough flanked by two shoulders no higher than 105% of the head's level.
func DetectInverseHeadShoulders(prices []float64) (bool, int) {
	if len(prices) < minPointsHS {
		return false, -1
	}

	for head := shoulderReach; head < len(prices)-shoulderReach; head++ {
		headPrice := prices[head]
		if !isLocalMin(prices, head) {
			continue
		}

		for left := head - shoulderReach; left < head-shoulderMinGap; left++ {
			if prices[left] > headPrice*(1+shoulderLevelTol) {
				continue
			}
			for right := head + shoulderMinGap; right < head+shoulderReach && right < len(prices); right++ {
				if prices[right] > headPrice*(1+shoulderLevelTol) {
					continue
				}
				diff := math.Abs(prices[left]-prices[right]) / prices[left]
				if diff < shoulderDiffTol {
					return true, right
				}
			}
		}
	}
	return false, -1
}
