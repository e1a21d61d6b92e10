package timeseries

import "time"

// Interval identifies a candle timeframe supported by the feed.
type Interval string

const (
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

// Intervals lists the supported timeframes in refresh order.
var Intervals = []Interval{Interval5m, Interval15m, Interval1h, Interval4h, Interval1d}

// Capacity returns the number of close prices retained for the interval.
func (iv Interval) Capacity() int {
	switch iv {
	case Interval5m:
		return 288
	case Interval15m:
		return 192
	case Interval1h:
		return 500
	case Interval4h:
		return 200
	case Interval1d:
		return 100
	default:
		return 0
	}
}

// Valid reports whether the interval is one of the supported timeframes.
func (iv Interval) Valid() bool {
	return iv.Capacity() > 0
}

// Series is a fixed-capacity array of historical close prices for one
// timeframe. It is not a ring: each Load wholesale replaces the content.
// A series must not be used for indicator computation until Loaded is set.
type Series struct {
	closes    []float64
	capacity  int
	Loaded    bool
	FetchedAt time.Time
}

// NewSeries creates an empty series with the given capacity.
func NewSeries(capacity int) *Series {
	return &Series{
		closes:   make([]float64, 0, capacity),
		capacity: capacity,
	}
}

// Load replaces the series content with the given closes, keeping the most
// recent capacity values if more are supplied, and marks the series loaded.
func (s *Series) Load(closes []float64) {
	if len(closes) > s.capacity {
		closes = closes[len(closes)-s.capacity:]
	}
	s.closes = s.closes[:0]
	s.closes = append(s.closes, closes...)
	s.Loaded = true
	s.FetchedAt = time.Now()
}

// Count returns the number of closes held.
func (s *Series) Count() int {
	return len(s.closes)
}

// Capacity returns the maximum number of closes the series holds.
func (s *Series) Capacity() int {
	return s.capacity
}

// Closes returns the held closes in chronological order. The returned slice
// is owned by the series and must not be mutated by callers.
func (s *Series) Closes() []float64 {
	return s.closes
}

// Last returns the most recent close, or 0 if the series is empty.
func (s *Series) Last() float64 {
	if len(s.closes) == 0 {
		return 0
	}
	return s.closes[len(s.closes)-1]
}

// Reset clears the series and its loaded flag.
func (s *Series) Reset() {
	s.closes = s.closes[:0]
	s.Loaded = false
	s.FetchedAt = time.Time{}
}
