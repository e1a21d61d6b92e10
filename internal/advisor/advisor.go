package advisor

import (
	"fmt"
	"math"

	"crypto-portfolio-bot/internal/portfolio"
)

// The advisor is invoked on demand for display, not on every tick. All
// outputs are derived from the asset's current price state and the rolling
// statistics; nothing here mutates the asset.

// TradeSuggestion carries the suggested entry/exit prices with short
// reasons. For SHORT positions "buy" means cover and "sell" means
// add-to-short.
type TradeSuggestion struct {
	BuyPrice   float64 `json:"buy_price"`
	SellPrice  float64 `json:"sell_price"`
	BuyReason  string  `json:"buy_reason"`
	SellReason string  `json:"sell_reason"`
}

// TargetAnalysis is the full assessment of a user-chosen price target.
type TargetAnalysis struct {
	TargetPrice        float64 `json:"target_price"`
	Probability        float64 `json:"probability"`
	ExpectedProfitLoss float64 `json:"expected_profit_loss"`
	ExpectedProfitPct  float64 `json:"expected_profit_pct"`
	EstimatedHours     int     `json:"estimated_hours"`
	Confidence         string  `json:"confidence"`
	Reasoning          string  `json:"reasoning"`
}

// TargetProbability estimates the chance of reaching targetPrice from
// currentPrice. The base 0.5 is shifted by trend agreement, an RSI bias
// that depends on the target direction, proximity, and the volatility
// regime, then clamped to [0.15, 0.95].
func TargetProbability(a *portfolio.Asset, targetPrice, currentPrice float64, trend int, volatility float64) float64 {
	if currentPrice <= 0 || targetPrice <= 0 {
		return 0.5
	}

	priceDiffPct := math.Abs((targetPrice - currentPrice) / currentPrice)
	rsi := a.RSI()

	probability := 0.5

	targetIsHigher := targetPrice > currentPrice
	if (targetIsHigher && trend > 0) || (!targetIsHigher && trend < 0) {
		probability += 0.15
	} else if (targetIsHigher && trend < 0) || (!targetIsHigher && trend > 0) {
		probability -= 0.15
	}

	if targetIsHigher {
		if rsi < 40 {
			probability += 0.10
		} else if rsi > 70 {
			probability -= 0.15
		}
	} else {
		if rsi > 60 {
			probability += 0.10
		} else if rsi < 30 {
			probability -= 0.15
		}
	}

	if priceDiffPct < 0.02 {
		probability += 0.20
	} else if priceDiffPct < 0.05 {
		probability += 0.10
	} else if priceDiffPct > 0.10 {
		probability -= 0.15
	}

	if volatility > 0.08 {
		if priceDiffPct < 0.05 {
			probability += 0.05
		}
	} else if volatility < 0.02 {
		if priceDiffPct > 0.05 {
			probability -= 0.10
		}
	}

	if probability < 0.15 {
		probability = 0.15
	}
	if probability > 0.95 {
		probability = 0.95
	}
	return probability
}

// EstimateHours estimates the hours until targetPrice is plausibly
// reached, from the average daily movement of the 1d series (or scaled
// volatility when the daily series is thin), clamped to [1, 720].
func EstimateHours(a *portfolio.Asset, targetPrice, currentPrice, volatility float64) int {
	if currentPrice <= 0 || targetPrice <= 0 {
		return 0
	}

	priceDiffPct := math.Abs((targetPrice - currentPrice) / currentPrice)

	avgDailyMovement := 0.03
	if a.D1.Loaded && a.D1.Count() > 5 {
		closes := a.D1.Closes()
		totalMovement := 0.0
		movementCount := 0
		for i := 1; i < len(closes) && i < 20; i++ {
			totalMovement += math.Abs((closes[i] - closes[i-1]) / closes[i-1])
			movementCount++
		}
		if movementCount > 0 {
			avgDailyMovement = totalMovement / float64(movementCount)
		}
	} else if volatility > 0 {
		avgDailyMovement = volatility * 1.5
	}

	if avgDailyMovement < 0.01 {
		avgDailyMovement = 0.01
	}
	if avgDailyMovement > 0.15 {
		avgDailyMovement = 0.15
	}

	estimatedDays := priceDiffPct / avgDailyMovement
	// Far targets rarely move in a straight line.
	if priceDiffPct > 0.05 {
		estimatedDays *= 1.3
	}

	hours := int(estimatedDays * 24)
	if hours < 1 {
		hours = 1
	}
	if hours > 720 {
		hours = 720
	}
	return hours
}

// TradePrices suggests entry and exit prices for the asset from its RSI,
// trend, volatility and support/resistance levels. Branch order matters:
// the first matching rule wins on each side.
func TradePrices(a *portfolio.Asset) TradeSuggestion {
	support, resistance := a.SupportResistance()
	rsi := a.RSI()
	volatility := a.Volatility()
	trend := a.Trend()

	current := a.CurrentPrice
	if current <= 0 {
		current = a.BoughtPrice
	}
	if current <= 0 {
		fallback := support
		if a.Direction == portfolio.Short {
			fallback = resistance
		}
		if fallback > 0 {
			current = fallback
		} else {
			current = 1.0
		}
	}

	var s TradeSuggestion

	if a.Direction == portfolio.Short {
		switch {
		case trend > 0 && rsi > 60:
			s.BuyPrice = current * 1.02
			s.BuyReason = "COVER - Uptrend forming"
		case rsi < 30:
			s.BuyPrice = current * 0.97
			s.BuyReason = "COVER - Target reached"
		case support > 0 && current > support*1.01:
			s.BuyPrice = support * 1.01
			s.BuyReason = "COVER - Near support"
		default:
			s.BuyPrice = current * 0.98
			s.BuyReason = "COVER - Take profit"
		}

		switch {
		case rsi > 70 && trend <= 0:
			s.SellPrice = current * 1.03
			s.SellReason = "ADD SHORT - Overbought"
		case resistance > 0 && current < resistance*0.98:
			s.SellPrice = resistance * 0.99
			s.SellReason = "ADD SHORT - At resistance"
		case trend < 0:
			target := 1.02
			if volatility > 0.1 {
				target = 1.04
			}
			s.SellPrice = current * target
			s.SellReason = "ADD SHORT - Downtrend"
		default:
			s.SellPrice = current * 1.02
			s.SellReason = "ADD SHORT - On rally"
		}
		return s
	}

	switch {
	case rsi < 30 && trend >= 0:
		s.BuyPrice = current * 0.97
		s.BuyReason = "ADD LONG - Oversold bounce"
	case support > 0 && current > support*1.02:
		s.BuyPrice = support * 1.01
		s.BuyReason = "ADD LONG - At support"
	case trend > 0 && rsi < 50:
		s.BuyPrice = current * 0.98
		s.BuyReason = "ADD LONG - Uptrend dip"
	default:
		s.BuyPrice = current * 0.97
		s.BuyReason = "ADD LONG - Below current"
	}

	switch {
	case rsi > 70 && trend <= 0:
		s.SellPrice = current * 1.03
		s.SellReason = "SELL - Overbought peak"
	case resistance > 0 && current < resistance*0.98:
		s.SellPrice = resistance * 0.99
		s.SellReason = "SELL - At resistance"
	case trend > 0:
		target := 1.03
		if volatility > 0.1 {
			target = 1.05
		}
		s.SellPrice = current * target
		s.SellReason = "SELL - Target profit"
	default:
		s.SellPrice = current * 1.02
		s.SellReason = "SELL - Protect gains"
	}
	return s
}

// Recommendation returns the position-management message for the asset's
// current profit, trend and RSI. The cascades mirror for LONG and SHORT.
func Recommendation(a *portfolio.Asset, profitPercent float64, trend int) string {
	rsi := a.RSI()

	if a.Direction == portfolio.Long {
		switch {
		case profitPercent > 15 && rsi > 70:
			return "TAKE PROFIT - Overbought"
		case profitPercent > 10 && (rsi > 65 || trend < 0):
			return "TAKE PROFIT - Good gain"
		case profitPercent > 5 && trend > 0 && rsi < 65:
			return "HOLD - Uptrend continues"
		case profitPercent < -15 && rsi < 25:
			return "OVERSOLD - Consider averaging"
		case profitPercent < -10 && trend < 0:
			return "STOP LOSS - Downtrend"
		case profitPercent < -5 && rsi < 35 && trend >= 0:
			return "ACCUMULATE - RSI low, trend ok"
		case trend > 0 && rsi < 60:
			return "HOLD - Bullish momentum"
		case trend < 0 && rsi > 50:
			return "CAUTION - Bearish pressure"
		}
		return "HOLD - Monitor closely"
	}

	switch {
	case profitPercent > 15 && rsi < 30:
		return "COVER SHORT - Oversold"
	case profitPercent > 10 && (rsi < 35 || trend > 0):
		return "COVER SHORT - Good profit"
	case profitPercent > 5 && trend < 0 && rsi > 35:
		return "HOLD SHORT - Downtrend continues"
	case profitPercent < -15 && rsi > 75:
		return "OVERBOUGHT - Add to short"
	case profitPercent < -10 && trend > 0:
		return "COVER SHORT - Uptrend against you"
	case profitPercent < -5 && rsi > 65 && trend <= 0:
		return "ADD SHORT - RSI high, trend ok"
	case trend < 0 && rsi > 40:
		return "HOLD SHORT - Bearish momentum"
	case trend > 0 && rsi < 50:
		return "CAUTION - Bullish pressure"
	}
	return "HOLD SHORT - Monitor closely"
}

// RecommendationColor maps the position state to a display color.
func RecommendationColor(a *portfolio.Asset, profitPercent float64, trend int) string {
	rsi := a.RSI()

	if a.Direction == portfolio.Long {
		switch {
		case profitPercent > 10 && (rsi > 65 || trend < 0):
			return "#30d158"
		case profitPercent > 5 && trend > 0:
			return "#30B0C7"
		case profitPercent < -10 && rsi < 30 && trend >= 0:
			return "#64d2ff"
		case profitPercent < -10 && trend < 0:
			return "#ff453a"
		case profitPercent < -5 || (trend < 0 && rsi > 50):
			return "#ff9f0a"
		default:
			return "#98989d"
		}
	}

	switch {
	case profitPercent > 10 && (rsi < 35 || trend > 0):
		return "#30d158"
	case profitPercent > 5 && trend < 0:
		return "#30B0C7"
	case profitPercent < -10 && rsi > 70 && trend <= 0:
		return "#64d2ff"
	case profitPercent < -10 && trend > 0:
		return "#ff453a"
	case profitPercent < -5 || (trend > 0 && rsi < 50):
		return "#ff9f0a"
	default:
		return "#98989d"
	}
}

// AnalyzeTarget produces the full target assessment: probability, expected
// profit for a sell or buy target, ETA, confidence bucket and a one-line
// reasoning summary.
func AnalyzeTarget(a *portfolio.Asset, targetPrice float64, isSellTarget bool) (TargetAnalysis, error) {
	if targetPrice <= 0 {
		return TargetAnalysis{}, portfolio.ErrInvalidInput
	}

	currentPrice := a.CurrentPrice
	if currentPrice <= 0 {
		currentPrice = a.BoughtPrice
	}
	trend := a.Trend()
	volatility := a.Volatility()
	rsi := a.RSI()

	analysis := TargetAnalysis{TargetPrice: targetPrice}
	analysis.Probability = TargetProbability(a, targetPrice, currentPrice, trend, volatility)

	if isSellTarget {
		if a.Direction == portfolio.Long {
			analysis.ExpectedProfitLoss = (targetPrice - a.BoughtPrice) * a.Quantity
			analysis.ExpectedProfitPct = (targetPrice - a.BoughtPrice) / a.BoughtPrice * 100
		} else {
			analysis.ExpectedProfitLoss = (a.BoughtPrice - targetPrice) * a.Quantity
			analysis.ExpectedProfitPct = (a.BoughtPrice - targetPrice) / a.BoughtPrice * 100
		}
	} else {
		if a.Direction == portfolio.Long {
			// A buy target shifts the blended cost basis.
			avgPrice := (a.BoughtPrice + targetPrice) / 2
			analysis.ExpectedProfitLoss = (currentPrice - avgPrice) * a.Quantity
			analysis.ExpectedProfitPct = (targetPrice - currentPrice) / currentPrice * 100
		} else {
			analysis.ExpectedProfitLoss = (a.BoughtPrice - targetPrice) * a.Quantity
			analysis.ExpectedProfitPct = (a.BoughtPrice - targetPrice) / a.BoughtPrice * 100
		}
	}

	analysis.EstimatedHours = EstimateHours(a, targetPrice, currentPrice, volatility)

	switch {
	case analysis.Probability >= 0.75:
		analysis.Confidence = "High"
	case analysis.Probability >= 0.55:
		analysis.Confidence = "Medium"
	default:
		analysis.Confidence = "Low"
	}

	trendStr := "neutral"
	if trend > 0 {
		trendStr = "uptrend"
	} else if trend < 0 {
		trendStr = "downtrend"
	}

	rsiStr := "neutral"
	if rsi > 70 {
		rsiStr = "overbought"
	} else if rsi < 30 {
		rsiStr = "oversold"
	}

	priceDiffPct := math.Abs((targetPrice-currentPrice)/currentPrice) * 100
	analysis.Reasoning = fmt.Sprintf("%s, %s, %.1f%% away, vol %.1f%%",
		trendStr, rsiStr, priceDiffPct, volatility*100)

	return analysis, nil
}
