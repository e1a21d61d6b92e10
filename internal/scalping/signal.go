package scalping

// Signal is the discrete trade signal produced by the 5m/15m classifier.
// The token set is closed: downstream consumers match on the buy/sell
// category, not on the display text.
type Signal int

const (
	SignalWait Signal = iota
	SignalBuyNow
	SignalBuySignal
	SignalSellNow
	SignalSellSignal
	SignalBuyDip
	SignalSellBounce
	SignalRanging
	SignalHold
)

// String returns the display token for the signal.
func (s Signal) String() string {
	switch s {
	case SignalBuyNow:
		return "BUY NOW"
	case SignalBuySignal:
		return "BUY SIGNAL"
	case SignalSellNow:
		return "SELL NOW"
	case SignalSellSignal:
		return "SELL SIGNAL"
	case SignalBuyDip:
		return "OVERSOLD - BUY DIP"
	case SignalSellBounce:
		return "OVERBOUGHT - SELL BOUNCE"
	case SignalRanging:
		return "RANGING - WAIT"
	case SignalHold:
		return "HOLD POSITION"
	default:
		return "WAIT"
	}
}

// IsBuy reports whether the signal belongs to the buy category.
func (s Signal) IsBuy() bool {
	switch s {
	case SignalBuyNow, SignalBuySignal, SignalBuyDip:
		return true
	}
	return false
}

// IsSell reports whether the signal belongs to the sell category.
func (s Signal) IsSell() bool {
	switch s {
	case SignalSellNow, SignalSellSignal, SignalSellBounce:
		return true
	}
	return false
}

// MarshalJSON encodes the signal as its display token.
func (s Signal) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}
