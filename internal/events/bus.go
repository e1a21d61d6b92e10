package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventPriceUpdate     EventType = "PRICE_UPDATE"
	EventCandlesLoaded   EventType = "CANDLES_LOADED"
	EventSignalComputed  EventType = "SIGNAL_COMPUTED"
	EventTradeExecuted   EventType = "TRADE_EXECUTED"
	EventBotStarted      EventType = "BOT_STARTED"
	EventBotStopped      EventType = "BOT_STOPPED"
	EventBotPaused       EventType = "BOT_PAUSED"
	EventBotReset        EventType = "BOT_RESET"
	EventPortfolioUpdate EventType = "PORTFOLIO_UPDATE"
	EventError           EventType = "ERROR"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (eb *EventBus) SubscribeAll(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.allSubs = append(eb.allSubs, subscriber)
}

// Publish sends an event to all subscribers. Delivery is asynchronous so
// publishers inside the update pipeline never block on slow consumers.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if subs, ok := eb.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event)
		}
	}

	for _, sub := range eb.allSubs {
		go sub(event)
	}
}

// PublishPriceUpdate publishes a price update event
func (eb *EventBus) PublishPriceUpdate(symbol string, price float64) {
	eb.Publish(Event{
		Type: EventPriceUpdate,
		Data: map[string]interface{}{
			"symbol": symbol,
			"price":  price,
		},
	})
}

// PublishCandlesLoaded publishes a candle batch load event
func (eb *EventBus) PublishCandlesLoaded(symbol, interval string, count int) {
	eb.Publish(Event{
		Type: EventCandlesLoaded,
		Data: map[string]interface{}{
			"symbol":   symbol,
			"interval": interval,
			"count":    count,
		},
	})
}

// PublishSignalComputed publishes the scalp signal derived for a symbol
func (eb *EventBus) PublishSignalComputed(symbol, signal string, trend, momentum, probability float64) {
	eb.Publish(Event{
		Type: EventSignalComputed,
		Data: map[string]interface{}{
			"symbol":             symbol,
			"signal":             signal,
			"trend":              trend,
			"momentum":           momentum,
			"profit_probability": probability,
		},
	})
}

// PublishTradeExecuted publishes a simulated fill from a bot
func (eb *EventBus) PublishTradeExecuted(symbol, action, signal string, price, quantity, fee, balanceAfter float64) {
	eb.Publish(Event{
		Type: EventTradeExecuted,
		Data: map[string]interface{}{
			"symbol":        symbol,
			"action":        action,
			"signal":        signal,
			"price":         price,
			"quantity":      quantity,
			"fee":           fee,
			"balance_after": balanceAfter,
		},
	})
}

// PublishBotLifecycle publishes a bot start/stop/pause/reset event
func (eb *EventBus) PublishBotLifecycle(eventType EventType, index int, symbol string) {
	eb.Publish(Event{
		Type: eventType,
		Data: map[string]interface{}{
			"index":  index,
			"symbol": symbol,
		},
	})
}

// PublishError publishes an error event
func (eb *EventBus) PublishError(source, message string, err error) {
	data := map[string]interface{}{
		"source":  source,
		"message": message,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	eb.Publish(Event{
		Type: EventError,
		Data: data,
	})
}
