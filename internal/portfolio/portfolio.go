package portfolio

import (
	"errors"
	"sync"

	"crypto-portfolio-bot/internal/timeseries"
)

// MaxPairs is the portfolio capacity.
const MaxPairs = 10

var (
	ErrPortfolioFull = errors.New("portfolio is full")
	ErrNotFound      = errors.New("asset not found")
	ErrInvalidInput  = errors.New("invalid input")
)

// Holding is the minimal persisted shape of an asset. Position type uses
// the storage encoding 0=LONG, 1=SHORT.
type Holding struct {
	Symbol       string  `json:"symbol"`
	BoughtPrice  float64 `json:"bought_price"`
	Quantity     float64 `json:"quantity"`
	PositionType int     `json:"position_type"`
}

// RecomputeFunc rebuilds an asset's derived indicator block. It is injected
// at wiring time so the portfolio does not depend on the indicator engine.
type RecomputeFunc func(*Asset)

// SignalHook runs after a candle load and recompute, while the portfolio
// lock is still held, so bound bots evaluate a consistent snapshot.
type SignalHook func(*Asset)

// Portfolio is the asset book. One mutex serializes all mutations so each
// candle delivery applies as a single atomic unit: load, recompute, signal.
type Portfolio struct {
	mu         sync.RWMutex
	assets     []*Asset
	recompute  RecomputeFunc
	signalHook SignalHook
}

// New creates an empty portfolio.
func New() *Portfolio {
	return &Portfolio{assets: make([]*Asset, 0, MaxPairs)}
}

// SetRecompute installs the indicator recompute hook.
func (p *Portfolio) SetRecompute(fn RecomputeFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recompute = fn
}

// SetSignalHook installs the post-recompute bot evaluation hook.
func (p *Portfolio) SetSignalHook(fn SignalHook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signalHook = fn
}

// AddPair adds a tracked pair and returns its index.
func (p *Portfolio) AddPair(symbol string, boughtPrice, quantity float64, direction Direction) (int, error) {
	if symbol == "" {
		return -1, ErrInvalidInput
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.assets) >= MaxPairs {
		return -1, ErrPortfolioFull
	}
	p.assets = append(p.assets, NewAsset(symbol, boughtPrice, quantity, direction))
	return len(p.assets) - 1, nil
}

// UpdatePair replaces the identity and cost basis of the pair at index.
// Price history and indicators are kept; they belong to the symbol's feed
// stream and are refreshed on the next candle load.
func (p *Portfolio) UpdatePair(index int, symbol string, boughtPrice, quantity float64, direction Direction) error {
	if symbol == "" {
		return ErrInvalidInput
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 || index >= len(p.assets) {
		return ErrNotFound
	}
	a := p.assets[index]
	a.Symbol = symbol
	a.BoughtPrice = boughtPrice
	a.Quantity = quantity
	a.Direction = direction
	return nil
}

// RemovePair removes the pair at index, shifting later pairs down.
func (p *Portfolio) RemovePair(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 || index >= len(p.assets) {
		return ErrNotFound
	}
	p.assets = append(p.assets[:index], p.assets[index+1:]...)
	return nil
}

// Len returns the number of tracked pairs.
func (p *Portfolio) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.assets)
}

// Symbols returns the tracked symbols in book order.
func (p *Portfolio) Symbols() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, len(p.assets))
	for i, a := range p.assets {
		out[i] = a.Symbol
	}
	return out
}

func (p *Portfolio) findLocked(symbol string) *Asset {
	for _, a := range p.assets {
		if a.Matches(symbol) {
			return a
		}
	}
	return nil
}

// ApplyTick updates the live price and short-term ring for the symbol.
// Price ticks do not trigger a recompute; that happens on candle loads.
func (p *Portfolio) ApplyTick(symbol string, price float64) error {
	if price <= 0 {
		return ErrInvalidInput
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	a := p.findLocked(symbol)
	if a == nil {
		return ErrNotFound
	}
	a.CurrentPrice = price
	a.Ring.Push(price)
	return nil
}

// ApplyCandles replaces the interval's historical series with the given
// closes and runs the full pipeline as one atomic unit under the portfolio
// lock: load series, recompute indicators, evaluate bound bots.
func (p *Portfolio) ApplyCandles(symbol string, interval timeseries.Interval, closes []float64) error {
	if !interval.Valid() || len(closes) == 0 {
		return ErrInvalidInput
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	a := p.findLocked(symbol)
	if a == nil {
		return ErrNotFound
	}
	a.SeriesFor(interval).Load(closes)
	p.runPipelineLocked(a)
	return nil
}

// ApplyHistory replaces the legacy long-horizon series and runs the same
// pipeline as a candle load.
func (p *Portfolio) ApplyHistory(symbol string, closes []float64) error {
	if len(closes) == 0 {
		return ErrInvalidInput
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	a := p.findLocked(symbol)
	if a == nil {
		return ErrNotFound
	}
	a.Hist.Load(closes)
	p.runPipelineLocked(a)
	return nil
}

func (p *Portfolio) runPipelineLocked(a *Asset) {
	if p.recompute != nil {
		p.recompute(a)
	}
	// Bots only trade once the scalping timeframe is warm and a live
	// price exists to fill at. 20 candles is the classifier minimum.
	if p.signalHook != nil && a.M5.Loaded && a.M5.Count() >= 20 && a.CurrentPrice > 0 {
		p.signalHook(a)
	}
}

// ReadAsset runs fn with the asset for symbol under the read lock. The
// asset must not be mutated or retained by fn.
func (p *Portfolio) ReadAsset(symbol string, fn func(*Asset)) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	a := p.findLocked(symbol)
	if a == nil {
		return ErrNotFound
	}
	fn(a)
	return nil
}

// ReadAssetAt runs fn with the asset at index under the read lock.
func (p *Portfolio) ReadAssetAt(index int, fn func(*Asset)) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if index < 0 || index >= len(p.assets) {
		return ErrNotFound
	}
	fn(p.assets[index])
	return nil
}

// Holdings serializes the book to its minimal persisted shape.
func (p *Portfolio) Holdings() []Holding {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Holding, len(p.assets))
	for i, a := range p.assets {
		out[i] = Holding{
			Symbol:       a.Symbol,
			BoughtPrice:  a.BoughtPrice,
			Quantity:     a.Quantity,
			PositionType: int(a.Direction),
		}
	}
	return out
}

// LoadHoldings replaces the book with the given holdings, up to capacity.
// Price state and indicators start empty and refill from the feed.
func (p *Portfolio) LoadHoldings(holdings []Holding) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(holdings) > MaxPairs {
		holdings = holdings[:MaxPairs]
	}
	p.assets = p.assets[:0]
	for _, h := range holdings {
		dir := Long
		if h.PositionType == 1 {
			dir = Short
		}
		p.assets = append(p.assets, NewAsset(h.Symbol, h.BoughtPrice, h.Quantity, dir))
	}
}

// DefaultHoldings returns the starter book used when no persisted holdings
// exist yet.
func DefaultHoldings() []Holding {
	return []Holding{
		{Symbol: "btcusdt", BoughtPrice: 30000.00, Quantity: 2.1515, PositionType: int(Long)},
		{Symbol: "ethusdt", BoughtPrice: 1800.00, Quantity: 5.5, PositionType: int(Long)},
		{Symbol: "adausdt", BoughtPrice: 0.45, Quantity: 10000.0, PositionType: int(Long)},
		{Symbol: "dogeusdt", BoughtPrice: 0.10, Quantity: 50000.0, PositionType: int(Short)},
	}
}
