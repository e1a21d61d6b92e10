package feed

import (
	"context"
	"time"

	"crypto-portfolio-bot/internal/events"
	"crypto-portfolio-bot/internal/logging"
	"crypto-portfolio-bot/internal/portfolio"
	"crypto-portfolio-bot/internal/timeseries"
)

// Poller periodically refreshes prices and candles for every tracked
// symbol and feeds them into the portfolio's update pipeline. Fetch
// failures are logged and retried on the next cycle, never fatal.
type Poller struct {
	client *Client
	book   *portfolio.Portfolio
	bus    *events.EventBus
	log    *logging.Logger

	tickInterval   time.Duration
	candleInterval time.Duration
}

// NewPoller creates a poller over the given portfolio.
func NewPoller(client *Client, book *portfolio.Portfolio, bus *events.EventBus, log *logging.Logger, tickInterval, candleInterval time.Duration) *Poller {
	if tickInterval <= 0 {
		tickInterval = 10 * time.Second
	}
	if candleInterval <= 0 {
		candleInterval = 5 * time.Minute
	}
	if log == nil {
		log = logging.Default()
	}
	return &Poller{
		client:         client,
		book:           book,
		bus:            bus,
		log:            log.WithComponent("feed"),
		tickInterval:   tickInterval,
		candleInterval: candleInterval,
	}
}

// Run polls until the context is cancelled. Candles are loaded once up
// front so indicators have history before the first tick lands.
func (p *Poller) Run(ctx context.Context) {
	p.refreshCandles()

	go p.tickLoop(ctx)
	p.candleLoop(ctx)
}

func (p *Poller) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(p.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refreshPrices()
		}
	}
}

func (p *Poller) candleLoop(ctx context.Context) {
	ticker := time.NewTicker(p.candleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refreshCandles()
		}
	}
}

func (p *Poller) refreshPrices(symbols ...string) {
	if len(symbols) == 0 {
		symbols = p.book.Symbols()
	}
	for _, symbol := range symbols {
		price, err := p.client.GetPrice(symbol)
		if err != nil {
			p.log.Warn("price fetch failed", "symbol", symbol, "error", err)
			if p.bus != nil {
				p.bus.PublishError("feed", "price fetch failed", err)
			}
			continue
		}
		if err := p.book.ApplyTick(symbol, price); err != nil {
			p.log.Warn("price apply failed", "symbol", symbol, "error", err)
			continue
		}
		if p.bus != nil {
			p.bus.PublishPriceUpdate(symbol, price)
		}
	}
}

func (p *Poller) refreshCandles() {
	for _, symbol := range p.book.Symbols() {
		for _, interval := range timeseries.Intervals {
			closes, err := p.client.GetCloses(symbol, string(interval), interval.Capacity())
			if err != nil {
				p.log.Warn("candle fetch failed",
					"symbol", symbol, "interval", string(interval), "error", err)
				if p.bus != nil {
					p.bus.PublishError("feed", "candle fetch failed", err)
				}
				continue
			}
			if err := p.book.ApplyCandles(symbol, interval, closes); err != nil {
				p.log.Warn("candle apply failed",
					"symbol", symbol, "interval", string(interval), "error", err)
				continue
			}
			if p.bus != nil {
				p.bus.PublishCandlesLoaded(symbol, string(interval), len(closes))
			}
		}

		// The legacy long-horizon series rides on hourly closes.
		closes, err := p.client.GetCloses(symbol, string(timeseries.Interval1h), portfolio.HistCapacity)
		if err != nil {
			p.log.Warn("history fetch failed", "symbol", symbol, "error", err)
			continue
		}
		if err := p.book.ApplyHistory(symbol, closes); err != nil {
			p.log.Warn("history apply failed", "symbol", symbol, "error", err)
		}
	}
}
