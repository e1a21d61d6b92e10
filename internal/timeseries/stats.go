package timeseries

import "math"

// Rolling statistics over chronologically ordered price slices. All
// functions fail soft: with insufficient data they return a neutral value
// (0 trend, 0 momentum, 50 RSI) rather than an error.

// EMA computes an exponential moving average seeded with the simple average
// of the first period points, then recursed with multiplier 2/(period+1)
// over the remainder. Returns 0 with fewer than period points.
func EMA(prices []float64, period int) float64 {
	if period < 1 || len(prices) < period {
		return 0
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	ema := sum / float64(period)

	multiplier := 2.0 / (float64(period) + 1.0)
	for i := period; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
	}
	return ema
}

// SMA computes the simple average of the last period points. Returns 0 with
// fewer than period points.
func SMA(prices []float64, period int) float64 {
	if period < 1 || len(prices) < period {
		return 0
	}
	sum := 0.0
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period)
}

// Mean computes the arithmetic mean of the full slice. Returns 0 when empty.
func Mean(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range prices {
		sum += p
	}
	return sum / float64(len(prices))
}

// StdDev computes the population standard deviation of the full slice.
func StdDev(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	mean := Mean(prices)
	variance := 0.0
	for _, p := range prices {
		diff := p - mean
		variance += diff * diff
	}
	variance /= float64(len(prices))
	return math.Sqrt(variance)
}

// RSI computes the classic average-gain/average-loss relative strength
// index over the last period deltas. Returns 50 (neutral) with fewer than
// period points and 100 when the window has no losses at all.
func RSI(prices []float64, period int) float64 {
	if period < 1 || len(prices) < period {
		return 50
	}

	gains := 0.0
	losses := 0.0
	for i := len(prices) - period; i < len(prices)-1; i++ {
		change := prices[i+1] - prices[i]
		if change > 0 {
			gains += change
		} else {
			losses += math.Abs(change)
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// TrendSignal compares the current price against the average of the most
// recent min(5, available) points with a 2% band: +1 above, -1 below, 0
// inside. Returns 0 with fewer than 2 points.
func TrendSignal(prices []float64, current float64) int {
	if len(prices) < 2 {
		return 0
	}

	recent := 5
	if len(prices) < recent {
		recent = len(prices)
	}
	sum := 0.0
	for _, p := range prices[len(prices)-recent:] {
		sum += p
	}
	avg := sum / float64(recent)

	if current > avg*1.02 {
		return 1
	}
	if current < avg*0.98 {
		return -1
	}
	return 0
}

// WeightedMomentum computes the weighted average of successive deltas over
// the most recent 10 points, with later deltas weighted more heavily.
// Returns 0 with fewer than 10 points.
func WeightedMomentum(prices []float64) float64 {
	const window = 10
	if len(prices) < window {
		return 0
	}

	recent := prices[len(prices)-window:]
	numerator := 0.0
	denominator := 0.0
	for i := 1; i < window; i++ {
		change := recent[i] - recent[i-1]
		weight := float64(i) / float64(window)
		numerator += change * weight
		denominator += weight
	}
	if denominator <= 0 {
		return 0
	}
	return numerator / denominator
}

// Volatility computes the coefficient of variation (population stddev over
// mean) of the full slice. Returns 0 when empty or the mean is non-positive.
func Volatility(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	mean := Mean(prices)
	if mean <= 0 {
		return 0
	}
	return StdDev(prices) / mean
}

// MinMax returns the smallest and largest price in the slice. Both are 0
// with fewer than 3 points.
func MinMax(prices []float64) (min, max float64) {
	if len(prices) < 3 {
		return 0, 0
	}
	min, max = prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	return min, max
}
