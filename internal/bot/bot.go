package bot

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"crypto-portfolio-bot/internal/events"
	"crypto-portfolio-bot/internal/portfolio"
)

const (
	// TakerFee is the simulated taker fee rate applied to every fill.
	TakerFee = 0.001

	// TradeHistorySize is the per-bot trade ring capacity.
	TradeHistorySize = 100

	// TradeCooldown is the minimum spacing between two fills of one bot.
	TradeCooldown = 30 * time.Second

	// positionEpsilon below which a position counts as flat.
	positionEpsilon = 0.0001
)

var (
	ErrInsufficientBalance = errors.New("bot: balance below trade amount")
	ErrFlatPosition        = errors.New("bot: no position to sell")
	ErrInvalidPrice        = errors.New("bot: non-positive price")
)

// State is the bot lifecycle state.
type State int

const (
	StateStopped State = iota
	StateRunning
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StatePaused:
		return "PAUSED"
	default:
		return "STOPPED"
	}
}

// Trade is one simulated fill. Fee and Profit are in quote currency.
type Trade struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Action       string    `json:"action"`
	Signal       string    `json:"signal"`
	Price        float64   `json:"price"`
	Quantity     float64   `json:"quantity"`
	Fee          float64   `json:"fee"`
	Profit       float64   `json:"profit"`
	BalanceAfter float64   `json:"balance_after"`
	Timestamp    time.Time `json:"timestamp"`
}

// ScalpingBot is a paper-trading ledger bound to one symbol. It is not
// self-locking; the pool serializes access per bot.
type ScalpingBot struct {
	Symbol         string
	State          State
	InitialBalance float64
	CurrentBalance float64
	TradeAmountUSD float64

	CurrentPosition float64
	AvgBuyPrice     float64

	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	TotalProfit   float64
	TotalFeesPaid float64
	MaxDrawdown   float64
	LastTradeTime time.Time

	trades     [TradeHistorySize]Trade
	tradeCount int
	tradeIndex int

	log zerolog.Logger
	bus *events.EventBus

	// now is swappable so the cooldown window is testable.
	now func() time.Time
}

// NewScalpingBot creates a stopped bot with the given funding.
func NewScalpingBot(symbol string, initialBalance, tradeAmount float64, log zerolog.Logger, bus *events.EventBus) *ScalpingBot {
	return &ScalpingBot{
		Symbol:         symbol,
		State:          StateStopped,
		InitialBalance: initialBalance,
		CurrentBalance: initialBalance,
		TradeAmountUSD: tradeAmount,
		log:            log.With().Str("component", "bot").Str("symbol", symbol).Logger(),
		bus:            bus,
		now:            time.Now,
	}
}

// ExecuteBuy spends TradeAmountUSD at the given price. The fee is charged
// on quantity, so the full trade amount leaves the balance while slightly
// less than trade_amount/price lands in the position. The blended average
// buy price values this fill at the full trade amount.
func (b *ScalpingBot) ExecuteBuy(price float64, signal string) error {
	if price <= 0 {
		return ErrInvalidPrice
	}
	if b.CurrentBalance < b.TradeAmountUSD {
		b.log.Warn().
			Float64("balance", b.CurrentBalance).
			Float64("trade_amount", b.TradeAmountUSD).
			Msg("buy skipped, insufficient balance")
		return ErrInsufficientBalance
	}

	grossQty := b.TradeAmountUSD / price
	feeQty := grossQty * TakerFee
	netQty := grossQty - feeQty
	feeUSD := feeQty * price

	newPosition := b.CurrentPosition + netQty
	b.AvgBuyPrice = (b.CurrentPosition*b.AvgBuyPrice + b.TradeAmountUSD) / newPosition
	b.CurrentPosition = newPosition
	b.CurrentBalance -= b.TradeAmountUSD
	b.TotalFeesPaid += feeUSD
	b.TotalTrades++
	b.LastTradeTime = b.now()

	b.record(Trade{
		ID:           uuid.New().String(),
		Symbol:       b.Symbol,
		Action:       "BUY",
		Signal:       signal,
		Price:        price,
		Quantity:     netQty,
		Fee:          feeUSD,
		BalanceAfter: b.CurrentBalance,
		Timestamp:    b.LastTradeTime,
	})

	b.log.Info().
		Float64("price", price).
		Float64("quantity", netQty).
		Float64("fee", feeUSD).
		Float64("balance", b.CurrentBalance).
		Str("signal", signal).
		Msg("buy executed")

	if b.bus != nil {
		b.bus.PublishTradeExecuted(b.Symbol, "BUY", signal, price, netQty, feeUSD, b.CurrentBalance)
	}
	return nil
}

// ExecuteSell closes the entire position at the given price. Partial exits
// do not exist; the position and average price reset to zero together.
func (b *ScalpingBot) ExecuteSell(price float64, signal string) error {
	if price <= 0 {
		return ErrInvalidPrice
	}
	if b.CurrentPosition <= positionEpsilon {
		return ErrFlatPosition
	}

	position := b.CurrentPosition
	proceeds := position * price
	fee := proceeds * TakerFee
	profit := (proceeds - fee) - position*b.AvgBuyPrice

	b.CurrentBalance += proceeds - fee
	b.TotalFeesPaid += fee
	b.TotalProfit += profit
	if profit > 0 {
		b.WinningTrades++
	} else {
		b.LosingTrades++
	}
	b.CurrentPosition = 0
	b.AvgBuyPrice = 0
	b.TotalTrades++
	b.LastTradeTime = b.now()

	if drawdown := (b.InitialBalance - b.CurrentBalance) / b.InitialBalance; drawdown > b.MaxDrawdown {
		b.MaxDrawdown = drawdown
	}

	b.record(Trade{
		ID:           uuid.New().String(),
		Symbol:       b.Symbol,
		Action:       "SELL",
		Signal:       signal,
		Price:        price,
		Quantity:     position,
		Fee:          fee,
		Profit:       profit,
		BalanceAfter: b.CurrentBalance,
		Timestamp:    b.LastTradeTime,
	})

	b.log.Info().
		Float64("price", price).
		Float64("quantity", position).
		Float64("fee", fee).
		Float64("profit", profit).
		Float64("balance", b.CurrentBalance).
		Str("signal", signal).
		Msg("sell executed")

	if b.bus != nil {
		b.bus.PublishTradeExecuted(b.Symbol, "SELL", signal, price, position, fee, b.CurrentBalance)
	}
	return nil
}

// ProcessSignal evaluates the asset's current scalp signal against the
// bot's position. Buys fire only when flat, sells only when holding; all
// other combinations are no-ops. A fill resets the cooldown window.
func (b *ScalpingBot) ProcessSignal(a *portfolio.Asset) {
	if b.State != StateRunning {
		return
	}
	if a == nil || !a.Matches(b.Symbol) {
		return
	}
	if !a.M5.Loaded || a.CurrentPrice <= 0 {
		return
	}
	if !b.LastTradeTime.IsZero() && b.now().Sub(b.LastTradeTime) < TradeCooldown {
		return
	}

	signal := a.Ind.ScalpSignal
	switch {
	case signal.IsBuy() && b.CurrentPosition < positionEpsilon:
		if err := b.ExecuteBuy(a.CurrentPrice, signal.String()); err != nil {
			b.log.Debug().Err(err).Msg("buy not executed")
		}
	case signal.IsSell() && b.CurrentPosition > positionEpsilon:
		if err := b.ExecuteSell(a.CurrentPrice, signal.String()); err != nil {
			b.log.Debug().Err(err).Msg("sell not executed")
		}
	}
}

func (b *ScalpingBot) record(t Trade) {
	b.trades[b.tradeIndex] = t
	b.tradeIndex = (b.tradeIndex + 1) % TradeHistorySize
	if b.tradeCount < TradeHistorySize {
		b.tradeCount++
	}
}

// Trades returns the recorded fills oldest first.
func (b *ScalpingBot) Trades() []Trade {
	out := make([]Trade, 0, b.tradeCount)
	start := 0
	if b.tradeCount == TradeHistorySize {
		start = b.tradeIndex
	}
	for i := 0; i < b.tradeCount; i++ {
		out = append(out, b.trades[(start+i)%TradeHistorySize])
	}
	return out
}

// WinRate is wins/(wins+losses) as a percentage, 0 before any close.
func (b *ScalpingBot) WinRate() float64 {
	closed := b.WinningTrades + b.LosingTrades
	if closed == 0 {
		return 0
	}
	return float64(b.WinningTrades) / float64(closed) * 100
}

// TotalValue is the balance plus the position marked at the given price.
func (b *ScalpingBot) TotalValue(markPrice float64) float64 {
	return b.CurrentBalance + b.CurrentPosition*markPrice
}

// ROI is the percentage return on the initial balance at the given mark.
func (b *ScalpingBot) ROI(markPrice float64) float64 {
	if b.InitialBalance <= 0 {
		return 0
	}
	return (b.TotalValue(markPrice) - b.InitialBalance) / b.InitialBalance * 100
}

// Reset restores the initial funding and wipes the ledger. The lifecycle
// state is left as is.
func (b *ScalpingBot) Reset() {
	b.CurrentBalance = b.InitialBalance
	b.CurrentPosition = 0
	b.AvgBuyPrice = 0
	b.TotalTrades = 0
	b.WinningTrades = 0
	b.LosingTrades = 0
	b.TotalProfit = 0
	b.TotalFeesPaid = 0
	b.MaxDrawdown = 0
	b.LastTradeTime = time.Time{}
	b.tradeCount = 0
	b.tradeIndex = 0
	b.log.Info().Msg("bot reset")
}
