package scalping

import (
	"math"

	"crypto-portfolio-bot/internal/timeseries"
)

// Classifier thresholds. Momentum values are percentage-like fractions of
// the last price, so 0.005 reads as half a basis point per 5m candle.
const (
	minCandles        = 20
	momentumPeriod    = 10
	rsiPeriod         = 14
	momentumEntry     = 0.005
	momentumStrong    = 0.015
	momentumFlatBand  = 0.003
	rsiBuyCeiling     = 70
	rsiSellFloor      = 30
	rsiDipCeiling     = 40
	rsiBounceFloor    = 60
	confirmFastPeriod = 10
	confirmSlowPeriod = 20
)

// Result carries the classifier outputs for one asset.
type Result struct {
	Trend    float64
	Momentum float64
	RSI      float64
	Signal   Signal
}

// Classify derives the short-horizon trade signal from the 5m series,
// confirmed against the 15m series. Without a loaded 5m series of at
// least 20 candles it resets to a neutral WAIT result.
func Classify(m5, m15 *timeseries.Series, currentPrice float64) Result {
	res := Result{RSI: 50, Signal: SignalWait}

	if m5 == nil || !m5.Loaded || m5.Count() < minCandles {
		return res
	}

	closes := m5.Closes()

	// EMA stack on the 5m closes. Each aligned pair plus price above the
	// fastest EMA contributes a quarter to the trend score.
	ema5 := timeseries.EMA(closes, 5)
	ema10 := timeseries.EMA(closes, 10)
	ema20 := timeseries.EMA(closes, 20)
	ema50 := timeseries.EMA(closes, 50)

	trendScore := 0.0
	if ema5 > ema10 {
		trendScore += 0.25
	}
	if ema10 > ema20 {
		trendScore += 0.25
	}
	if ema20 > ema50 {
		trendScore += 0.25
	}
	if currentPrice > ema5 {
		trendScore += 0.25
	}

	switch {
	case trendScore >= 0.5:
		res.Trend = 1
	case trendScore <= 0.25:
		res.Trend = -1
	}

	// Net price change over the last 10 candles, normalized by the last
	// price and the window length.
	if n := len(closes); n >= momentumPeriod {
		sumChanges := 0.0
		for i := n - momentumPeriod; i < n-1; i++ {
			sumChanges += closes[i+1] - closes[i]
		}
		res.Momentum = sumChanges / (closes[n-1] * momentumPeriod) * 100.0
	}

	// RSI over the last 14 deltas. Stays neutral at 50 when the window
	// has no losses, unlike the long-horizon RSI which saturates at 100.
	if n := len(closes); n >= rsiPeriod {
		gains, losses := 0.0, 0.0
		for i := n - rsiPeriod; i < n-1; i++ {
			change := closes[i+1] - closes[i]
			if change > 0 {
				gains += change
			} else {
				losses += math.Abs(change)
			}
		}
		avgGain := gains / rsiPeriod
		avgLoss := losses / rsiPeriod
		if avgLoss > 0 {
			res.RSI = 100 - (100 / (1 + avgGain/avgLoss))
		}
	}

	// Higher-timeframe confirmation: the 15m EMA(10)/EMA(20) relation
	// must agree with the 5m trend direction.
	confirmed := false
	if m15 != nil && m15.Loaded && m15.Count() >= minCandles {
		fast := timeseries.EMA(m15.Closes(), confirmFastPeriod)
		slow := timeseries.EMA(m15.Closes(), confirmSlowPeriod)
		if res.Trend > 0 && fast > slow {
			confirmed = true
		} else if res.Trend < 0 && fast < slow {
			confirmed = true
		}
	}

	switch {
	case res.Trend > 0 && res.RSI < rsiBuyCeiling && res.Momentum > momentumEntry:
		if confirmed || res.Momentum > momentumStrong {
			res.Signal = SignalBuyNow
		} else {
			res.Signal = SignalBuySignal
		}
	case res.Trend < 0 && res.RSI > rsiSellFloor && res.Momentum < -momentumEntry:
		if confirmed || res.Momentum < -momentumStrong {
			res.Signal = SignalSellNow
		} else {
			res.Signal = SignalSellSignal
		}
	case res.Trend > 0 && res.RSI < rsiDipCeiling:
		res.Signal = SignalBuyDip
	case res.Trend < 0 && res.RSI > rsiBounceFloor:
		res.Signal = SignalSellBounce
	case math.Abs(res.Momentum) < momentumFlatBand:
		res.Signal = SignalRanging
	default:
		res.Signal = SignalHold
	}

	return res
}
