package portfolio

// PerformanceItem is the per-pair profit and short-term trend summary.
type PerformanceItem struct {
	Symbol            string  `json:"symbol"`
	Direction         string  `json:"direction"`
	BoughtPrice       float64 `json:"bought_price"`
	Quantity          float64 `json:"quantity"`
	CurrentPrice      float64 `json:"current_price"`
	CurrentValue      float64 `json:"current_value"`
	ProfitLossValue   float64 `json:"profit_loss_value"`
	ProfitLossPercent float64 `json:"profit_loss_percent"`
	Trend             int     `json:"trend"`
	MomentumScore     float64 `json:"momentum_score"`
}

// Performance computes the per-pair profit summary. SHORT positions invert
// the profit sign and carry entry value plus profit as their current value.
func (p *Portfolio) Performance() []PerformanceItem {
	p.mu.RLock()
	defer p.mu.RUnlock()

	items := make([]PerformanceItem, len(p.assets))
	for i, a := range p.assets {
		item := PerformanceItem{
			Symbol:       a.Symbol,
			Direction:    a.Direction.String(),
			BoughtPrice:  a.BoughtPrice,
			Quantity:     a.Quantity,
			CurrentPrice: a.CurrentPrice,
		}

		cost := a.BoughtPrice * a.Quantity
		if a.Direction == Long {
			item.CurrentValue = a.CurrentPrice * a.Quantity
			item.ProfitLossValue = item.CurrentValue - cost
		} else {
			currentValue := a.CurrentPrice * a.Quantity
			item.ProfitLossValue = cost - currentValue
			item.CurrentValue = cost + item.ProfitLossValue
		}
		if cost > 0 {
			item.ProfitLossPercent = item.ProfitLossValue / cost * 100
		}

		item.Trend = a.Trend()
		item.MomentumScore = a.Momentum()
		items[i] = item
	}
	return items
}

// TotalValue sums position values across the book. A SHORT position is
// valued at entry plus its inverted price move.
func (p *Portfolio) TotalValue() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	total := 0.0
	for _, a := range p.assets {
		entryValue := a.BoughtPrice * a.Quantity
		currentValue := a.CurrentPrice * a.Quantity
		if a.Direction == Long {
			total += currentValue
		} else {
			total += entryValue + (entryValue - currentValue)
		}
	}
	return total
}

// TotalCost sums entry values across the book.
func (p *Portfolio) TotalCost() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	total := 0.0
	for _, a := range p.assets {
		total += a.BoughtPrice * a.Quantity
	}
	return total
}

// TotalProfitLoss sums per-pair profit, inverting SHORT positions.
func (p *Portfolio) TotalProfitLoss() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	total := 0.0
	for _, a := range p.assets {
		entryValue := a.BoughtPrice * a.Quantity
		currentValue := a.CurrentPrice * a.Quantity
		if a.Direction == Long {
			total += currentValue - entryValue
		} else {
			total += entryValue - currentValue
		}
	}
	return total
}

// TotalProfitLossPercent is total profit relative to total cost.
func (p *Portfolio) TotalProfitLossPercent() float64 {
	cost := p.TotalCost()
	if cost == 0 {
		return 0
	}
	return p.TotalProfitLoss() / cost * 100
}
