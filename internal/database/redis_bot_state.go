package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"crypto-portfolio-bot/internal/logging"
)

const (
	// botStateKeyPrefix namespaces bot snapshots: scalpbot:state:{index}
	botStateKeyPrefix = "scalpbot:state"

	// BotStateTTL keeps stale snapshots from resurrecting long-dead bots.
	BotStateTTL = 7 * 24 * time.Hour
)

// BotSnapshot is the persisted ledger of one bot slot, enough to restore
// a bot across restarts without replaying its trade history.
type BotSnapshot struct {
	Index           int       `json:"index"`
	Symbol          string    `json:"symbol"`
	State           string    `json:"state"`
	InitialBalance  float64   `json:"initial_balance"`
	CurrentBalance  float64   `json:"current_balance"`
	TradeAmountUSD  float64   `json:"trade_amount_usd"`
	CurrentPosition float64   `json:"current_position"`
	AvgBuyPrice     float64   `json:"avg_buy_price"`
	TotalTrades     int       `json:"total_trades"`
	WinningTrades   int       `json:"winning_trades"`
	LosingTrades    int       `json:"losing_trades"`
	TotalProfit     float64   `json:"total_profit"`
	TotalFeesPaid   float64   `json:"total_fees_paid"`
	MaxDrawdown     float64   `json:"max_drawdown"`
	SavedAt         time.Time `json:"saved_at"`
}

// BotStateStore persists bot snapshots in Redis. When Redis is down the
// store falls back to an in-memory map so the bots keep running; those
// snapshots are simply lost on restart.
type BotStateStore struct {
	client *redis.Client
	log    *logging.Logger

	mu       sync.RWMutex
	fallback map[int]BotSnapshot
}

// NewBotStateStore creates a snapshot store. client may be nil, in which
// case only the in-memory fallback is used.
func NewBotStateStore(client *redis.Client, log *logging.Logger) *BotStateStore {
	if log == nil {
		log = logging.Default()
	}
	return &BotStateStore{
		client:   client,
		log:      log.WithComponent("botstate"),
		fallback: make(map[int]BotSnapshot),
	}
}

func botStateKey(index int) string {
	return fmt.Sprintf("%s:%d", botStateKeyPrefix, index)
}

// Save stores the snapshot under its slot index.
func (s *BotStateStore) Save(ctx context.Context, snapshot BotSnapshot) error {
	snapshot.SavedAt = time.Now()

	s.mu.Lock()
	s.fallback[snapshot.Index] = snapshot
	s.mu.Unlock()

	if s.client == nil {
		return nil
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal bot snapshot: %w", err)
	}

	if err := s.client.Set(ctx, botStateKey(snapshot.Index), data, BotStateTTL).Err(); err != nil {
		s.log.Warn("redis save failed, snapshot kept in memory",
			"index", snapshot.Index, "error", err)
		return nil
	}
	return nil
}

// Load fetches the snapshot for a slot; found is false when none exists.
func (s *BotStateStore) Load(ctx context.Context, index int) (BotSnapshot, bool) {
	if s.client != nil {
		data, err := s.client.Get(ctx, botStateKey(index)).Bytes()
		if err == nil {
			var snapshot BotSnapshot
			if err := json.Unmarshal(data, &snapshot); err == nil {
				return snapshot, true
			}
			s.log.Warn("corrupt bot snapshot dropped", "index", index)
		} else if err != redis.Nil {
			s.log.Warn("redis load failed, using in-memory fallback",
				"index", index, "error", err)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.fallback[index]
	return snapshot, ok
}

// Delete removes the snapshot for a freed slot.
func (s *BotStateStore) Delete(ctx context.Context, index int) {
	s.mu.Lock()
	delete(s.fallback, index)
	s.mu.Unlock()

	if s.client != nil {
		if err := s.client.Del(ctx, botStateKey(index)).Err(); err != nil {
			s.log.Warn("redis delete failed", "index", index, "error", err)
		}
	}
}

// NewRedisClient connects to Redis, returning nil when the address is
// empty or the server is unreachable; callers run on the fallback then.
func NewRedisClient(ctx context.Context, addr, password string, db int, log *logging.Logger) *redis.Client {
	if addr == "" {
		return nil
	}
	if log == nil {
		log = logging.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, bot snapshots stay in memory", "addr", addr, "error", err)
		client.Close()
		return nil
	}

	log.Info("connected to Redis", "addr", addr)
	return client
}
