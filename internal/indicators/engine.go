package indicators

import (
	"crypto-portfolio-bot/internal/logging"
	"crypto-portfolio-bot/internal/patterns"
	"crypto-portfolio-bot/internal/portfolio"
	"crypto-portfolio-bot/internal/scalping"
	"crypto-portfolio-bot/internal/timeseries"
)

// Engine recomputes the derived indicator block of an asset. All
// computation is deterministic over the asset's in-memory series; the
// logger only observes decision points and never affects results.
type Engine struct {
	log *logging.Logger
}

// New creates an indicator engine.
func New(log *logging.Logger) *Engine {
	if log == nil {
		log = logging.Default()
	}
	return &Engine{log: log.WithComponent("indicators")}
}

// macdSeries selects the price source shared by MACD and Bollinger: the
// hourly series when loaded with enough points, else the legacy series.
func macdSeries(a *portfolio.Asset, minPoints int) []float64 {
	if a.H1.Loaded && a.H1.Count() >= minPoints {
		return a.H1.Closes()
	}
	if a.Hist.Loaded && a.Hist.Count() >= minPoints {
		return a.Hist.Closes()
	}
	return nil
}

// MACD computes EMA12-EMA26 over the hourly series (legacy fallback).
// The signal line is defined as 0.9 times the MACD value rather than a
// smoothed EMA of it; downstream probability scoring depends on this
// exact definition, so it must not be corrected to a true signal EMA.
func MACD(a *portfolio.Asset) (macd, signal, histogram float64) {
	prices := macdSeries(a, 26)
	if prices == nil {
		return 0, 0, 0
	}

	ema12 := timeseries.EMA(prices, 12)
	ema26 := timeseries.EMA(prices, 26)

	macd = ema12 - ema26
	signal = macd * 0.9
	histogram = macd - signal
	return macd, signal, histogram
}

// BollingerBands computes the 20-period middle band with upper/lower at
// two population standard deviations, over the MACD series selection.
func BollingerBands(a *portfolio.Asset) (upper, middle, lower float64) {
	const period = 20

	prices := macdSeries(a, period)
	if prices == nil {
		return 0, 0, 0
	}

	window := prices[len(prices)-period:]
	middle = timeseries.Mean(window)
	stdDev := timeseries.StdDev(window)

	upper = middle + 2*stdDev
	lower = middle - 2*stdDev
	return upper, middle, lower
}

// EMACross detects a fast/slow EMA crossover on the daily series (hourly
// fallback) by comparing the EMAs over the full series against the same
// EMAs with the last point dropped: +1 on an upward cross, -1 on a
// downward cross, 0 otherwise.
func EMACross(a *portfolio.Asset, fastPeriod, slowPeriod int) int {
	var prices []float64
	if a.D1.Loaded && a.D1.Count() >= slowPeriod {
		prices = a.D1.Closes()
	} else if a.H1.Loaded && a.H1.Count() >= slowPeriod {
		prices = a.H1.Closes()
	} else {
		return 0
	}

	fast := timeseries.EMA(prices, fastPeriod)
	slow := timeseries.EMA(prices, slowPeriod)

	if len(prices) < slowPeriod+1 {
		return 0
	}
	fastPrev := timeseries.EMA(prices[:len(prices)-1], fastPeriod)
	slowPrev := timeseries.EMA(prices[:len(prices)-1], slowPeriod)

	if fast > slow && fastPrev <= slowPrev {
		return 1
	}
	if fast < slow && fastPrev >= slowPrev {
		return -1
	}
	return 0
}

// timeframeVote compares the mean of the previous 10-point window against
// the most recent 10-point window with a 1% band.
func timeframeVote(s *timeseries.Series) int {
	const period = 10
	if !s.Loaded || s.Count() < period {
		return 0
	}

	closes := s.Closes()
	count := len(closes)

	early := 0.0
	for i := count - period*2; i < count-period; i++ {
		if i >= 0 {
			early += closes[i]
		}
	}
	early /= period

	recent := 0.0
	for i := count - period; i < count; i++ {
		recent += closes[i]
	}
	recent /= period

	if recent > early*1.01 {
		return 1
	}
	if recent < early*0.99 {
		return -1
	}
	return 0
}

// MultiTimeframeTrend sums the 1h, 4h and 1d window votes; the composite
// is +1 or -1 only when at least two timeframes agree.
func MultiTimeframeTrend(a *portfolio.Asset) int {
	total := timeframeVote(a.H1) + timeframeVote(a.H4) + timeframeVote(a.D1)
	if total >= 2 {
		return 1
	}
	if total <= -2 {
		return -1
	}
	return 0
}

// patternSource selects the series for pattern detection: hourly when
// loaded, else the legacy series regardless of length.
func patternSource(a *portfolio.Asset) []float64 {
	if a.H1.Loaded {
		return a.H1.Closes()
	}
	return a.Hist.Closes()
}

// ProfitProbability folds RSI, MACD agreement, Bollinger position, chart
// patterns, the 50/200 EMA cross, the multi-timeframe vote and the
// volatility regime into a weighted additive score, normalized to [0,1].
func ProfitProbability(a *portfolio.Asset) float64 {
	score := 50.0
	totalWeight := 1.0

	rsi := a.RSI()
	if rsi < 30 {
		score += 20.0 * 1.5
		totalWeight += 1.5
	} else if rsi > 70 {
		score -= 20.0 * 1.5
		totalWeight += 1.5
	}

	macd, signal, histogram := MACD(a)
	if histogram > 0 && macd > signal {
		score += 15.0 * 1.3
		totalWeight += 1.3
	} else if histogram < 0 && macd < signal {
		score -= 15.0 * 1.3
		totalWeight += 1.3
	}

	bbUpper, _, bbLower := BollingerBands(a)
	if bbLower > 0 && a.CurrentPrice < bbLower*1.02 {
		score += 15.0 * 1.2
		totalWeight += 1.2
	} else if bbUpper > 0 && a.CurrentPrice > bbUpper*0.98 {
		score -= 15.0 * 1.2
		totalWeight += 1.2
	}

	prices := patternSource(a)
	if found, _ := patterns.DetectDoubleBottom(prices); found {
		score += 25.0 * 1.8
		totalWeight += 1.8
	}
	if found, _ := patterns.DetectInverseHeadShoulders(prices); found {
		score += 30.0 * 2.0
		totalWeight += 2.0
	}
	if found, _ := patterns.DetectDoubleTop(prices); found {
		score -= 25.0 * 1.8
		totalWeight += 1.8
	}
	if found, _ := patterns.DetectHeadShoulders(prices); found {
		score -= 30.0 * 2.0
		totalWeight += 2.0
	}

	switch EMACross(a, 50, 200) {
	case 1:
		score += 35.0 * 2.5
		totalWeight += 2.5
	case -1:
		score -= 35.0 * 2.5
		totalWeight += 2.5
	}

	switch MultiTimeframeTrend(a) {
	case 1:
		score += 10.0 * 1.0
		totalWeight += 1.0
	case -1:
		score -= 10.0 * 1.0
		totalWeight += 1.0
	}

	volatility := a.Volatility()
	if volatility < 0.03 {
		score += 5.0 * 0.8
		totalWeight += 0.8
	} else if volatility > 0.10 {
		score -= 5.0 * 0.8
		totalWeight += 0.8
	}

	normalized := score / totalWeight
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 100 {
		normalized = 100
	}
	return normalized / 100.0
}

// RecomputeAll rebuilds the asset's full derived indicator block: the EMA
// set, MACD, Bollinger bands, profit probability, the detected pattern
// list, and finally the short-horizon scalping classification.
func (e *Engine) RecomputeAll(a *portfolio.Asset) {
	prices := patternSource(a)

	if len(prices) > 0 {
		a.Ind.EMA12 = timeseries.EMA(prices, 12)
		a.Ind.EMA26 = timeseries.EMA(prices, 26)
		a.Ind.EMA50 = timeseries.EMA(prices, 50)
		a.Ind.EMA200 = timeseries.EMA(prices, 200)
	}

	a.Ind.MACD, a.Ind.MACDSignal, _ = MACD(a)
	a.Ind.BBUpper, a.Ind.BBMiddle, a.Ind.BBLower = BollingerBands(a)
	a.Ind.ProfitProbability = ProfitProbability(a)

	detected := make([]string, 0, 6)
	if found, _ := patterns.DetectDoubleBottom(prices); found {
		detected = append(detected, string(patterns.DoubleBottom))
	}
	if found, _ := patterns.DetectDoubleTop(prices); found {
		detected = append(detected, string(patterns.DoubleTop))
	}
	if found, _ := patterns.DetectInverseHeadShoulders(prices); found {
		detected = append(detected, string(patterns.InverseHeadShoulder))
	}
	if found, _ := patterns.DetectHeadShoulders(prices); found {
		detected = append(detected, string(patterns.HeadShoulder))
	}
	switch EMACross(a, 50, 200) {
	case 1:
		detected = append(detected, string(patterns.GoldenCross))
	case -1:
		detected = append(detected, string(patterns.DeathCross))
	}
	if len(detected) == 0 {
		detected = append(detected, "None")
		a.Ind.PatternCount = 0
	} else {
		a.Ind.PatternCount = len(detected)
	}
	a.Ind.Patterns = detected

	res := scalping.Classify(a.M5, a.M15, a.CurrentPrice)
	a.Ind.ScalpTrend = res.Trend
	a.Ind.ScalpMomentum = res.Momentum
	a.Ind.ScalpSignal = res.Signal

	e.log.Debug("indicators recomputed",
		"symbol", a.Symbol,
		"scalp_signal", res.Signal.String(),
		"scalp_trend", res.Trend,
		"scalp_momentum", res.Momentum,
		"profit_probability", a.Ind.ProfitProbability,
	)
}
