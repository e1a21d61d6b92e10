package bot

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"crypto-portfolio-bot/internal/events"
	"crypto-portfolio-bot/internal/portfolio"
)

// PoolSize is the fixed number of bot slots.
const PoolSize = 5

var (
	ErrPoolFull     = errors.New("bot: pool is full")
	ErrNoBot        = errors.New("bot: no bot at index")
	ErrNotRunning   = errors.New("bot: bot is not running")
	ErrInvalidInput = errors.New("bot: invalid bot parameters")
)

// Status is the read model of one bot slot for consumers.
type Status struct {
	Index           int     `json:"index"`
	Symbol          string  `json:"symbol"`
	State           string  `json:"state"`
	InitialBalance  float64 `json:"initial_balance"`
	CurrentBalance  float64 `json:"current_balance"`
	TradeAmountUSD  float64 `json:"trade_amount_usd"`
	CurrentPosition float64 `json:"current_position"`
	AvgBuyPrice     float64 `json:"avg_buy_price"`
	TotalValue      float64 `json:"total_value"`
	ROI             float64 `json:"roi"`
	TotalTrades     int     `json:"total_trades"`
	WinningTrades   int     `json:"winning_trades"`
	LosingTrades    int     `json:"losing_trades"`
	WinRate         float64 `json:"win_rate"`
	TotalProfit     float64 `json:"total_profit"`
	TotalFeesPaid   float64 `json:"total_fees_paid"`
	MaxDrawdown     float64 `json:"max_drawdown"`
}

// Pool holds up to PoolSize bots in fixed slots. Removing a bot frees its
// slot without shifting the others, and the first free slot is reused on
// the next add, so indices stay stable for the lifetime of a bot.
type Pool struct {
	mu    sync.Mutex
	slots [PoolSize]*ScalpingBot

	log zerolog.Logger
	bus *events.EventBus
}

// NewPool creates an empty bot pool.
func NewPool(log zerolog.Logger, bus *events.EventBus) *Pool {
	return &Pool{
		log: log.With().Str("component", "botpool").Logger(),
		bus: bus,
	}
}

// Add creates a stopped bot in the first free slot and returns its index.
func (p *Pool) Add(symbol string, initialBalance, tradeAmount float64) (int, error) {
	if symbol == "" || initialBalance <= 0 || tradeAmount <= 0 {
		return -1, ErrInvalidInput
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 0; i < PoolSize; i++ {
		if p.slots[i] == nil {
			p.slots[i] = NewScalpingBot(symbol, initialBalance, tradeAmount, p.log, p.bus)
			p.log.Info().
				Int("index", i).
				Str("symbol", symbol).
				Float64("initial_balance", initialBalance).
				Float64("trade_amount", tradeAmount).
				Msg("bot added")
			return i, nil
		}
	}
	return -1, ErrPoolFull
}

// Remove stops the bot at index and frees its slot.
func (p *Pool) Remove(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	b, err := p.at(index)
	if err != nil {
		return err
	}
	b.State = StateStopped
	p.slots[index] = nil
	p.log.Info().Int("index", index).Str("symbol", b.Symbol).Msg("bot removed")
	if p.bus != nil {
		p.bus.PublishBotLifecycle(events.EventBotStopped, index, b.Symbol)
	}
	return nil
}

// Start moves the bot at index to RUNNING.
func (p *Pool) Start(index int) error {
	return p.transition(index, StateRunning, events.EventBotStarted)
}

// Pause moves the bot at index to PAUSED. Only a running bot can pause;
// a stopped one returns ErrNotRunning.
func (p *Pool) Pause(index int) error {
	return p.transition(index, StatePaused, events.EventBotPaused)
}

// Stop moves the bot at index to STOPPED.
func (p *Pool) Stop(index int) error {
	return p.transition(index, StateStopped, events.EventBotStopped)
}

func (p *Pool) transition(index int, state State, eventType events.EventType) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	b, err := p.at(index)
	if err != nil {
		return err
	}
	if state == StatePaused && b.State != StateRunning {
		return ErrNotRunning
	}
	b.State = state
	p.log.Info().Int("index", index).Str("symbol", b.Symbol).Str("state", state.String()).Msg("bot state changed")
	if p.bus != nil {
		p.bus.PublishBotLifecycle(eventType, index, b.Symbol)
	}
	return nil
}

// Reset restores the bot at index to its initial funding.
func (p *Pool) Reset(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	b, err := p.at(index)
	if err != nil {
		return err
	}
	b.Reset()
	if p.bus != nil {
		p.bus.PublishBotLifecycle(events.EventBotReset, index, b.Symbol)
	}
	return nil
}

// ProcessSignal feeds the asset's current signal to every running bot
// bound to its symbol.
func (p *Pool) ProcessSignal(a *portfolio.Asset) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, b := range p.slots {
		if b != nil {
			b.ProcessSignal(a)
		}
	}
}

// Statuses returns the read model of every occupied slot, marked at the
// given per-symbol prices.
func (p *Pool) Statuses(markPrice func(symbol string) float64) []Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Status, 0, PoolSize)
	for i, b := range p.slots {
		if b == nil {
			continue
		}
		mark := 0.0
		if markPrice != nil {
			mark = markPrice(b.Symbol)
		}
		out = append(out, Status{
			Index:           i,
			Symbol:          b.Symbol,
			State:           b.State.String(),
			InitialBalance:  b.InitialBalance,
			CurrentBalance:  b.CurrentBalance,
			TradeAmountUSD:  b.TradeAmountUSD,
			CurrentPosition: b.CurrentPosition,
			AvgBuyPrice:     b.AvgBuyPrice,
			TotalValue:      b.TotalValue(mark),
			ROI:             b.ROI(mark),
			TotalTrades:     b.TotalTrades,
			WinningTrades:   b.WinningTrades,
			LosingTrades:    b.LosingTrades,
			WinRate:         b.WinRate(),
			TotalProfit:     b.TotalProfit,
			TotalFeesPaid:   b.TotalFeesPaid,
			MaxDrawdown:     b.MaxDrawdown,
		})
	}
	return out
}

// Trades returns the trade history of the bot at index, oldest first.
func (p *Pool) Trades(index int) ([]Trade, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	b, err := p.at(index)
	if err != nil {
		return nil, err
	}
	return b.Trades(), nil
}

// Len reports the number of occupied slots.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, b := range p.slots {
		if b != nil {
			n++
		}
	}
	return n
}

// at returns the bot at index; callers hold the lock.
func (p *Pool) at(index int) (*ScalpingBot, error) {
	if index < 0 || index >= PoolSize || p.slots[index] == nil {
		return nil, ErrNoBot
	}
	return p.slots[index], nil
}
