package portfolio

import (
	"strings"

	"crypto-portfolio-bot/internal/scalping"
	"crypto-portfolio-bot/internal/timeseries"
)

// Direction is the side of an open position.
type Direction int

const (
	Long Direction = iota
	Short
)

func (d Direction) String() string {
	if d == Short {
		return "SHORT"
	}
	return "LONG"
}

// Indicators is the derived indicator block of an asset. It is overwritten
// wholesale on every recompute so readers never see partially stale values.
type Indicators struct {
	EMA12      float64 `json:"ema_12"`
	EMA26      float64 `json:"ema_26"`
	EMA50      float64 `json:"ema_50"`
	EMA200     float64 `json:"ema_200"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	BBUpper    float64 `json:"bb_upper"`
	BBMiddle   float64 `json:"bb_middle"`
	BBLower    float64 `json:"bb_lower"`

	ScalpTrend    float64         `json:"scalp_trend"`
	ScalpMomentum float64         `json:"scalp_momentum"`
	ScalpSignal   scalping.Signal `json:"scalp_signal"`

	ProfitProbability float64  `json:"profit_probability"`
	Patterns          []string `json:"patterns"`
	PatternCount      int      `json:"pattern_count"`
}

// Asset is one tracked trading pair: its cost basis, live price state, the
// per-timeframe historical series, and the derived indicator block.
type Asset struct {
	Symbol      string
	Direction   Direction
	BoughtPrice float64
	Quantity    float64

	CurrentPrice float64
	Ring         timeseries.PriceRing

	// Hist is the legacy long-horizon series fed from hourly candles,
	// kept separate from H1 because several indicators fall back to it
	// when the hourly series has not loaded yet.
	Hist *timeseries.Series
	M5   *timeseries.Series
	M15  *timeseries.Series
	H1   *timeseries.Series
	H4   *timeseries.Series
	D1   *timeseries.Series

	Ind Indicators
}

// HistCapacity is the size of the legacy long-horizon close series.
const HistCapacity = 100

// NewAsset creates an asset with empty price state for the given position.
func NewAsset(symbol string, boughtPrice, quantity float64, direction Direction) *Asset {
	return &Asset{
		Symbol:      symbol,
		Direction:   direction,
		BoughtPrice: boughtPrice,
		Quantity:    quantity,
		Hist:        timeseries.NewSeries(HistCapacity),
		M5:          timeseries.NewSeries(timeseries.Interval5m.Capacity()),
		M15:         timeseries.NewSeries(timeseries.Interval15m.Capacity()),
		H1:          timeseries.NewSeries(timeseries.Interval1h.Capacity()),
		H4:          timeseries.NewSeries(timeseries.Interval4h.Capacity()),
		D1:          timeseries.NewSeries(timeseries.Interval1d.Capacity()),
		Ind:         Indicators{ScalpSignal: scalping.SignalWait, ProfitProbability: 0.5},
	}
}

// Matches reports whether the asset tracks the given symbol, ignoring case.
func (a *Asset) Matches(symbol string) bool {
	return strings.EqualFold(a.Symbol, symbol)
}

// SeriesFor returns the historical series for the given interval.
func (a *Asset) SeriesFor(interval timeseries.Interval) *timeseries.Series {
	switch interval {
	case timeseries.Interval5m:
		return a.M5
	case timeseries.Interval15m:
		return a.M15
	case timeseries.Interval1h:
		return a.H1
	case timeseries.Interval4h:
		return a.H4
	case timeseries.Interval1d:
		return a.D1
	default:
		return nil
	}
}

// statsPrices selects the price source for the slow statistics: the legacy
// long-horizon series when loaded, else the live ring.
func (a *Asset) statsPrices() []float64 {
	if a.Hist.Loaded && a.Hist.Count() > 0 {
		return a.Hist.Closes()
	}
	return a.Ring.Snapshot()
}

// Trend compares the current price against the short-term ring average.
func (a *Asset) Trend() int {
	if a.Ring.Len() < 2 {
		return 0
	}
	return timeseries.TrendSignal(a.Ring.Snapshot(), a.CurrentPrice)
}

// Momentum is the weighted short-term momentum over the live ring.
func (a *Asset) Momentum() float64 {
	return timeseries.WeightedMomentum(a.Ring.Snapshot())
}

// Volatility is the coefficient of variation of the slow price source.
func (a *Asset) Volatility() float64 {
	return timeseries.Volatility(a.statsPrices())
}

// RSI computes the 14-period RSI, preferring the long-horizon series and
// falling back to the live ring when it holds enough points.
func (a *Asset) RSI() float64 {
	const period = 14
	if a.Hist.Loaded && a.Hist.Count() >= period {
		return timeseries.RSI(a.Hist.Closes(), period)
	}
	if a.Ring.Len() >= period {
		return timeseries.RSI(a.Ring.Snapshot(), period)
	}
	return 50
}

// SupportResistance returns the min/max of the slow price source, both 0
// with fewer than 3 points.
func (a *Asset) SupportResistance() (support, resistance float64) {
	return timeseries.MinMax(a.statsPrices())
}
