package bot

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"crypto-portfolio-bot/internal/portfolio"
	"crypto-portfolio-bot/internal/scalping"
)

func newTestBot(initialBalance, tradeAmount float64) *ScalpingBot {
	return NewScalpingBot("btcusdt", initialBalance, tradeAmount, zerolog.Nop(), nil)
}

func TestExecuteBuyLedger(t *testing.T) {
	b := newTestBot(1000, 100)

	if err := b.ExecuteBuy(10, "BUY NOW"); err != nil {
		t.Fatalf("ExecuteBuy failed: %v", err)
	}

	if b.CurrentBalance != 900 {
		t.Errorf("Balance should be 900, got %f", b.CurrentBalance)
	}
	if math.Abs(b.CurrentPosition-9.99) > 1e-9 {
		t.Errorf("Position should be 9.99 after the quantity fee, got %f", b.CurrentPosition)
	}
	// Average values the fill at the full trade amount: 100 / 9.99.
	if math.Abs(b.AvgBuyPrice-100.0/9.99) > 1e-9 {
		t.Errorf("Average buy price should be ~10.01, got %f", b.AvgBuyPrice)
	}
	if math.Abs(b.TotalFeesPaid-0.1) > 1e-9 {
		t.Errorf("Fees should be 0.1 in quote currency, got %f", b.TotalFeesPaid)
	}
	if b.TotalTrades != 1 {
		t.Errorf("Total trades should be 1, got %d", b.TotalTrades)
	}
}

func TestExecuteBuyInsufficientBalance(t *testing.T) {
	b := newTestBot(50, 100)

	if err := b.ExecuteBuy(10, "BUY NOW"); err != ErrInsufficientBalance {
		t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
	}
	if b.CurrentBalance != 50 || b.CurrentPosition != 0 || b.TotalTrades != 0 {
		t.Error("Rejected buy must not mutate the ledger")
	}
}

func TestExecuteBuyAveragesAcrossFills(t *testing.T) {
	b := newTestBot(1000, 100)

	if err := b.ExecuteBuy(10, "BUY NOW"); err != nil {
		t.Fatalf("First buy failed: %v", err)
	}
	if err := b.ExecuteBuy(20, "BUY NOW"); err != nil {
		t.Fatalf("Second buy failed: %v", err)
	}

	// 9.99 at 10 plus 4.995 at 20, each fill valued at the full 100.
	wantPosition := 9.99 + 4.995
	if math.Abs(b.CurrentPosition-wantPosition) > 1e-9 {
		t.Errorf("Position should be %f, got %f", wantPosition, b.CurrentPosition)
	}
	wantAvg := 200.0 / wantPosition
	if math.Abs(b.AvgBuyPrice-wantAvg) > 1e-6 {
		t.Errorf("Blended average should be %f, got %f", wantAvg, b.AvgBuyPrice)
	}
	if b.CurrentBalance != 800 {
		t.Errorf("Balance should be 800, got %f", b.CurrentBalance)
	}
}

func TestExecuteSellClosesFullPosition(t *testing.T) {
	b := newTestBot(1000, 100)
	if err := b.ExecuteBuy(10, "BUY NOW"); err != nil {
		t.Fatalf("ExecuteBuy failed: %v", err)
	}

	if err := b.ExecuteSell(11, "SELL NOW"); err != nil {
		t.Fatalf("ExecuteSell failed: %v", err)
	}

	if b.CurrentPosition != 0 {
		t.Errorf("Position should be fully closed, got %f", b.CurrentPosition)
	}
	if b.AvgBuyPrice != 0 {
		t.Errorf("Average price must reset with the position, got %f", b.AvgBuyPrice)
	}

	proceeds := 9.99 * 11.0
	fee := proceeds * TakerFee
	wantBalance := 900 + proceeds - fee
	if math.Abs(b.CurrentBalance-wantBalance) > 1e-9 {
		t.Errorf("Balance should be %f, got %f", wantBalance, b.CurrentBalance)
	}
	if b.WinningTrades != 1 || b.LosingTrades != 0 {
		t.Errorf("Profitable close should count as a win, got %d/%d", b.WinningTrades, b.LosingTrades)
	}
	if b.TotalTrades != 2 {
		t.Errorf("Both sides count toward total trades, got %d", b.TotalTrades)
	}
	if b.MaxDrawdown != 0 {
		t.Errorf("Profitable session has no drawdown, got %f", b.MaxDrawdown)
	}
}

func TestExecuteSellRecordsDrawdown(t *testing.T) {
	b := newTestBot(1000, 100)
	if err := b.ExecuteBuy(10, "BUY NOW"); err != nil {
		t.Fatalf("ExecuteBuy failed: %v", err)
	}
	if err := b.ExecuteSell(9, "SELL NOW"); err != nil {
		t.Fatalf("ExecuteSell failed: %v", err)
	}

	if b.LosingTrades != 1 {
		t.Errorf("Losing close should count as a loss, got %d", b.LosingTrades)
	}
	wantDrawdown := (1000 - b.CurrentBalance) / 1000
	if math.Abs(b.MaxDrawdown-wantDrawdown) > 1e-9 {
		t.Errorf("Drawdown should be %f, got %f", wantDrawdown, b.MaxDrawdown)
	}
	if b.MaxDrawdown <= 0 {
		t.Error("Losing close should record a positive drawdown")
	}
}

func TestTotalProfitAccumulates(t *testing.T) {
	b := newTestBot(1000, 100)

	// Each buy costs exactly the trade amount, so the realized profit of a
	// close is the net proceeds minus 100.
	b.ExecuteBuy(10, "BUY NOW")
	win := 9.99*11.0*(1-TakerFee) - 100
	if err := b.ExecuteSell(11, "SELL NOW"); err != nil {
		t.Fatalf("ExecuteSell failed: %v", err)
	}
	if math.Abs(b.TotalProfit-win) > 1e-9 {
		t.Errorf("Total profit after a win should be %f, got %f", win, b.TotalProfit)
	}

	b.ExecuteBuy(10, "BUY NOW")
	loss := 9.99*9.0*(1-TakerFee) - 100
	if err := b.ExecuteSell(9, "SELL NOW"); err != nil {
		t.Fatalf("ExecuteSell failed: %v", err)
	}
	if math.Abs(b.TotalProfit-(win+loss)) > 1e-9 {
		t.Errorf("Total profit should net wins against losses, want %f got %f", win+loss, b.TotalProfit)
	}
}

func TestExecuteSellFlatPosition(t *testing.T) {
	b := newTestBot(1000, 100)
	if err := b.ExecuteSell(10, "SELL NOW"); err != ErrFlatPosition {
		t.Fatalf("Expected ErrFlatPosition, got %v", err)
	}
}

func TestWinRate(t *testing.T) {
	b := newTestBot(10000, 100)
	if b.WinRate() != 0 {
		t.Errorf("Win rate before any close should be 0, got %f", b.WinRate())
	}

	b.ExecuteBuy(10, "BUY NOW")
	b.ExecuteSell(11, "SELL NOW")
	if b.WinRate() != 100 {
		t.Errorf("One win should give 100%%, got %f", b.WinRate())
	}

	b.ExecuteBuy(10, "BUY NOW")
	b.ExecuteSell(9, "SELL NOW")
	if b.WinRate() != 50 {
		t.Errorf("One win one loss should give 50%%, got %f", b.WinRate())
	}
}

func TestROIAndTotalValue(t *testing.T) {
	b := newTestBot(1000, 100)
	b.ExecuteBuy(10, "BUY NOW")

	wantValue := 900 + 9.99*12.0
	if math.Abs(b.TotalValue(12)-wantValue) > 1e-9 {
		t.Errorf("Total value should be %f, got %f", wantValue, b.TotalValue(12))
	}
	wantROI := (wantValue - 1000) / 1000 * 100
	if math.Abs(b.ROI(12)-wantROI) > 1e-9 {
		t.Errorf("ROI should be %f, got %f", wantROI, b.ROI(12))
	}
}

func signalAsset(symbol string, price float64, sig scalping.Signal) *portfolio.Asset {
	a := portfolio.NewAsset(symbol, price, 1, portfolio.Long)
	a.CurrentPrice = price
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = price
	}
	a.M5.Load(closes)
	a.Ind.ScalpSignal = sig
	return a
}

func TestProcessSignalBuysOnlyWhenFlat(t *testing.T) {
	b := newTestBot(1000, 100)
	b.State = StateRunning

	a := signalAsset("btcusdt", 10, scalping.SignalBuyNow)
	b.ProcessSignal(a)
	if b.CurrentPosition <= 0 {
		t.Fatal("Running flat bot should buy on a buy signal")
	}

	// Holding: a second buy signal is a no-op even after the cooldown.
	b.now = func() time.Time { return time.Now().Add(time.Minute) }
	before := b.CurrentPosition
	b.ProcessSignal(a)
	if b.CurrentPosition != before {
		t.Error("Holding bot must not buy again")
	}
}

func TestProcessSignalSellsOnlyWhenHolding(t *testing.T) {
	b := newTestBot(1000, 100)
	b.State = StateRunning

	sell := signalAsset("btcusdt", 10, scalping.SignalSellNow)
	b.ProcessSignal(sell)
	if b.TotalTrades != 0 {
		t.Fatal("Flat bot must ignore sell signals")
	}

	buy := signalAsset("btcusdt", 10, scalping.SignalBuyNow)
	b.ProcessSignal(buy)
	b.now = func() time.Time { return time.Now().Add(time.Minute) }
	b.ProcessSignal(sell)
	if b.CurrentPosition != 0 {
		t.Error("Holding bot should sell on a sell signal after cooldown")
	}
}

func TestProcessSignalCooldown(t *testing.T) {
	b := newTestBot(1000, 100)
	b.State = StateRunning

	buy := signalAsset("btcusdt", 10, scalping.SignalBuyNow)
	sell := signalAsset("btcusdt", 11, scalping.SignalSellNow)

	b.ProcessSignal(buy)
	b.ProcessSignal(sell)
	if b.CurrentPosition == 0 {
		t.Error("Sell within the cooldown window must be suppressed")
	}
}

func TestProcessSignalRequiresRunningState(t *testing.T) {
	for _, state := range []State{StateStopped, StatePaused} {
		b := newTestBot(1000, 100)
		b.State = state
		b.ProcessSignal(signalAsset("btcusdt", 10, scalping.SignalBuyNow))
		if b.TotalTrades != 0 {
			t.Errorf("Bot in state %s must not trade", state)
		}
	}
}

func TestProcessSignalSymbolAndDataGuards(t *testing.T) {
	b := newTestBot(1000, 100)
	b.State = StateRunning

	other := signalAsset("ethusdt", 10, scalping.SignalBuyNow)
	b.ProcessSignal(other)
	if b.TotalTrades != 0 {
		t.Error("Bot must ignore other symbols")
	}

	noData := portfolio.NewAsset("btcusdt", 10, 1, portfolio.Long)
	noData.CurrentPrice = 10
	noData.Ind.ScalpSignal = scalping.SignalBuyNow
	b.ProcessSignal(noData)
	if b.TotalTrades != 0 {
		t.Error("Bot must not trade without loaded 5m data")
	}
}

func TestTradeRingWraps(t *testing.T) {
	b := newTestBot(1e9, 100)

	for i := 0; i < TradeHistorySize+10; i++ {
		if err := b.ExecuteBuy(10, "BUY NOW"); err != nil {
			t.Fatalf("Buy %d failed: %v", i, err)
		}
		if err := b.ExecuteSell(10.5, "SELL NOW"); err != nil {
			t.Fatalf("Sell %d failed: %v", i, err)
		}
	}

	trades := b.Trades()
	if len(trades) != TradeHistorySize {
		t.Fatalf("Ring should cap at %d trades, got %d", TradeHistorySize, len(trades))
	}
	for i := 1; i < len(trades); i++ {
		if trades[i].Timestamp.Before(trades[i-1].Timestamp) {
			t.Fatal("Trades should come back oldest first")
		}
	}
}

func TestReset(t *testing.T) {
	b := newTestBot(1000, 100)
	b.ExecuteBuy(10, "BUY NOW")
	b.ExecuteSell(9, "SELL NOW")

	b.Reset()

	if b.CurrentBalance != 1000 || b.CurrentPosition != 0 || b.AvgBuyPrice != 0 {
		t.Error("Reset should restore the initial funding")
	}
	if b.TotalTrades != 0 || b.WinningTrades != 0 || b.LosingTrades != 0 {
		t.Error("Reset should clear trade counters")
	}
	if b.TotalProfit != 0 || b.MaxDrawdown != 0 || b.TotalFeesPaid != 0 {
		t.Error("Reset should clear profit, drawdown and fees")
	}
	if len(b.Trades()) != 0 {
		t.Error("Reset should clear the trade history")
	}
}
