package advisor

import (
	"math"
	"strings"
	"testing"

	"crypto-portfolio-bot/internal/portfolio"
)

func newLong(current float64) *portfolio.Asset {
	a := portfolio.NewAsset("btcusdt", 100, 2, portfolio.Long)
	a.CurrentPrice = current
	return a
}

// zigzagDown produces a mostly falling series whose RSI lands well under 40
// without collapsing to 0.
func zigzagDown(n int) []float64 {
	out := make([]float64, n)
	v := 200.0
	for i := 0; i < n; i++ {
		out[i] = v
		if i%2 == 0 {
			v -= 3
		} else {
			v += 2
		}
	}
	return out
}

func TestTargetProbabilityInvalidInputs(t *testing.T) {
	a := newLong(0)
	if p := TargetProbability(a, 100, 0, 0, 0); p != 0.5 {
		t.Errorf("Invalid current price should give 0.5, got %f", p)
	}
	if p := TargetProbability(a, 0, 100, 0, 0); p != 0.5 {
		t.Errorf("Invalid target price should give 0.5, got %f", p)
	}
}

func TestTargetProbabilityProximityBonus(t *testing.T) {
	a := newLong(100)

	near := TargetProbability(a, 101, 100, 0, 0)
	if math.Abs(near-0.70) > 1e-9 {
		t.Errorf("Near target with neutral signals should be 0.70, got %f", near)
	}

	mid := TargetProbability(a, 104, 100, 0, 0)
	if math.Abs(mid-0.60) > 1e-9 {
		t.Errorf("Mid-range target should be 0.60, got %f", mid)
	}
}

func TestTargetProbabilityTrendAgreement(t *testing.T) {
	a := newLong(100)

	with := TargetProbability(a, 104, 100, 1, 0)
	against := TargetProbability(a, 104, 100, -1, 0)
	if with <= against {
		t.Errorf("Trend agreement should raise probability: with=%f against=%f", with, against)
	}
	if math.Abs(with-0.75) > 1e-9 {
		t.Errorf("Uptrend toward higher target should be 0.75, got %f", with)
	}
}

func TestTargetProbabilityClampsLow(t *testing.T) {
	a := newLong(100)

	// Far target below price, against an uptrend, in a quiet market.
	p := TargetProbability(a, 80, 100, 1, 0.01)
	if p != 0.15 {
		t.Errorf("Probability should clamp at 0.15, got %f", p)
	}
}

func TestTargetProbabilityClampsHigh(t *testing.T) {
	a := newLong(100)
	a.Hist.Load(zigzagDown(30))

	rsi := a.RSI()
	if rsi >= 40 {
		t.Fatalf("Fixture RSI should be under 40, got %f", rsi)
	}

	// Oversold, trending up, near target, volatile enough for the bonus.
	p := TargetProbability(a, 101, 100, 1, 0.09)
	if p != 0.95 {
		t.Errorf("Probability should clamp at 0.95, got %f", p)
	}
}

func TestEstimateHoursInvalid(t *testing.T) {
	a := newLong(100)
	if h := EstimateHours(a, 0, 100, 0); h != 0 {
		t.Errorf("Invalid target should give 0 hours, got %d", h)
	}
	if h := EstimateHours(a, 100, 0, 0); h != 0 {
		t.Errorf("Invalid current should give 0 hours, got %d", h)
	}
}

func TestEstimateHoursDefaultMovement(t *testing.T) {
	a := newLong(100)

	// 6% away at the default 3% daily movement, stretched by 1.3 for
	// distance: 2.6 days.
	h := EstimateHours(a, 106, 100, 0)
	if h != 62 {
		t.Errorf("Expected 62 hours, got %d", h)
	}
}

func TestEstimateHoursClamps(t *testing.T) {
	a := newLong(100)

	if h := EstimateHours(a, 100.01, 100, 0); h != 1 {
		t.Errorf("Tiny distance should clamp to 1 hour, got %d", h)
	}
	if h := EstimateHours(a, 1100, 100, 0); h != 720 {
		t.Errorf("Huge distance should clamp to 720 hours, got %d", h)
	}
}

func TestEstimateHoursUsesDailySeries(t *testing.T) {
	a := newLong(100)

	closes := make([]float64, 10)
	for i := range closes {
		// 5% daily swings.
		if i%2 == 0 {
			closes[i] = 100
		} else {
			closes[i] = 105
		}
	}
	a.D1.Load(closes)

	// 4% away with ~5% daily movement resolves faster than the default.
	h := EstimateHours(a, 104, 100, 0)
	if h >= 24 {
		t.Errorf("Volatile daily series should shorten the estimate, got %d hours", h)
	}
}

func TestTradePricesLongDefaults(t *testing.T) {
	a := newLong(100)

	s := TradePrices(a)
	if math.Abs(s.BuyPrice-97) > 1e-9 {
		t.Errorf("Default long buy should be 3%% below, got %f", s.BuyPrice)
	}
	if s.BuyReason != "ADD LONG - Below current" {
		t.Errorf("Unexpected buy reason %q", s.BuyReason)
	}
	if math.Abs(s.SellPrice-102) > 1e-9 {
		t.Errorf("Default long sell should be 2%% above, got %f", s.SellPrice)
	}
	if s.SellReason != "SELL - Protect gains" {
		t.Errorf("Unexpected sell reason %q", s.SellReason)
	}
}

func TestTradePricesShortDefaults(t *testing.T) {
	a := portfolio.NewAsset("dogeusdt", 0.10, 50000, portfolio.Short)
	a.CurrentPrice = 0.10

	s := TradePrices(a)
	if s.BuyReason != "COVER - Take profit" {
		t.Errorf("Unexpected cover reason %q", s.BuyReason)
	}
	if math.Abs(s.BuyPrice-0.098) > 1e-9 {
		t.Errorf("Default cover should be 2%% below, got %f", s.BuyPrice)
	}
	if s.SellReason != "ADD SHORT - On rally" {
		t.Errorf("Unexpected add-short reason %q", s.SellReason)
	}
}

func TestTradePricesFallsBackToBoughtPrice(t *testing.T) {
	a := portfolio.NewAsset("ethusdt", 50, 1, portfolio.Long)

	s := TradePrices(a)
	if math.Abs(s.BuyPrice-48.5) > 1e-9 {
		t.Errorf("Buy price should anchor on bought price 50, got %f", s.BuyPrice)
	}
}

func TestTradePricesOversoldLong(t *testing.T) {
	a := newLong(100)

	// Steep decline with small bounces drives RSI well under 30.
	closes := make([]float64, 40)
	v := 400.0
	for i := range closes {
		closes[i] = v
		if i%2 == 0 {
			v -= 5
		} else {
			v += 1
		}
	}
	a.Hist.Load(closes)

	s := TradePrices(a)
	if s.BuyReason != "ADD LONG - Oversold bounce" {
		t.Errorf("Oversold long should suggest a dip add, got %q", s.BuyReason)
	}
}

func TestRecommendationLong(t *testing.T) {
	a := newLong(100)

	if r := Recommendation(a, 12, -1); r != "TAKE PROFIT - Good gain" {
		t.Errorf("Unexpected recommendation %q", r)
	}
	if r := Recommendation(a, 0, 0); r != "HOLD - Monitor closely" {
		t.Errorf("Unexpected neutral recommendation %q", r)
	}
	if r := Recommendation(a, -12, -1); r != "STOP LOSS - Downtrend" {
		t.Errorf("Unexpected loss recommendation %q", r)
	}
}

func TestRecommendationShort(t *testing.T) {
	a := portfolio.NewAsset("dogeusdt", 0.10, 50000, portfolio.Short)
	a.CurrentPrice = 0.09

	if r := Recommendation(a, 12, 1); r != "COVER SHORT - Good profit" {
		t.Errorf("Unexpected short recommendation %q", r)
	}
	if r := Recommendation(a, -12, 1); r != "COVER SHORT - Uptrend against you" {
		t.Errorf("Unexpected short loss recommendation %q", r)
	}
}

func TestRecommendationColor(t *testing.T) {
	a := newLong(100)

	if c := RecommendationColor(a, 12, -1); c != "#30d158" {
		t.Errorf("Profit taking should be green, got %q", c)
	}
	if c := RecommendationColor(a, -12, -1); c != "#ff453a" {
		t.Errorf("Trending loss should be red, got %q", c)
	}
	if c := RecommendationColor(a, 0, 0); c != "#98989d" {
		t.Errorf("Neutral state should be grey, got %q", c)
	}
}

func TestAnalyzeTargetRejectsInvalid(t *testing.T) {
	a := newLong(100)
	if _, err := AnalyzeTarget(a, 0, true); err == nil {
		t.Error("Zero target should be rejected")
	}
	if _, err := AnalyzeTarget(a, -5, false); err == nil {
		t.Error("Negative target should be rejected")
	}
}

func TestAnalyzeTargetSellLong(t *testing.T) {
	a := newLong(110)

	analysis, err := AnalyzeTarget(a, 120, true)
	if err != nil {
		t.Fatalf("AnalyzeTarget failed: %v", err)
	}
	if math.Abs(analysis.ExpectedProfitLoss-40) > 1e-9 {
		t.Errorf("Expected P/L 40, got %f", analysis.ExpectedProfitLoss)
	}
	if math.Abs(analysis.ExpectedProfitPct-20) > 1e-9 {
		t.Errorf("Expected 20%%, got %f", analysis.ExpectedProfitPct)
	}
	if analysis.Confidence != "Low" {
		t.Errorf("Neutral signals should give Low confidence, got %q", analysis.Confidence)
	}
	if analysis.EstimatedHours < 1 {
		t.Errorf("ETA should be at least 1 hour, got %d", analysis.EstimatedHours)
	}
	if !strings.Contains(analysis.Reasoning, "away") {
		t.Errorf("Reasoning should mention distance, got %q", analysis.Reasoning)
	}
}

func TestAnalyzeTargetSellShort(t *testing.T) {
	a := portfolio.NewAsset("dogeusdt", 0.10, 50000, portfolio.Short)
	a.CurrentPrice = 0.095

	analysis, err := AnalyzeTarget(a, 0.08, true)
	if err != nil {
		t.Fatalf("AnalyzeTarget failed: %v", err)
	}
	// Short gains as price falls: (0.10 - 0.08) * 50000.
	if math.Abs(analysis.ExpectedProfitLoss-1000) > 1e-6 {
		t.Errorf("Expected short P/L 1000, got %f", analysis.ExpectedProfitLoss)
	}
	if math.Abs(analysis.ExpectedProfitPct-20) > 1e-9 {
		t.Errorf("Expected 20%%, got %f", analysis.ExpectedProfitPct)
	}
}

func TestAnalyzeTargetBuyLongBlendsCostBasis(t *testing.T) {
	a := newLong(110)

	analysis, err := AnalyzeTarget(a, 90, false)
	if err != nil {
		t.Fatalf("AnalyzeTarget failed: %v", err)
	}
	// Blended basis (100+90)/2 = 95 against the 110 mark.
	if math.Abs(analysis.ExpectedProfitLoss-30) > 1e-9 {
		t.Errorf("Expected blended P/L 30, got %f", analysis.ExpectedProfitLoss)
	}
}

func TestAnalyzeTargetConfidenceBuckets(t *testing.T) {
	a := newLong(100)

	// Near target agreeing with an uptrend lands in the High bucket.
	analysis, err := AnalyzeTarget(a, 101, true)
	if err != nil {
		t.Fatalf("AnalyzeTarget failed: %v", err)
	}
	if analysis.Probability < 0.15 || analysis.Probability > 0.95 {
		t.Errorf("Probability out of bounds: %f", analysis.Probability)
	}
	switch {
	case analysis.Probability >= 0.75 && analysis.Confidence != "High":
		t.Errorf("Probability %f should be High, got %q", analysis.Probability, analysis.Confidence)
	case analysis.Probability >= 0.55 && analysis.Probability < 0.75 && analysis.Confidence != "Medium":
		t.Errorf("Probability %f should be Medium, got %q", analysis.Probability, analysis.Confidence)
	}
}
