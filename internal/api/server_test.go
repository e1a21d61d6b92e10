package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"crypto-portfolio-bot/internal/auth"
	"crypto-portfolio-bot/internal/bot"
	"crypto-portfolio-bot/internal/events"
	"crypto-portfolio-bot/internal/portfolio"
)

func newTestServer(t *testing.T) (*Server, *portfolio.Portfolio, *bot.Pool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	book := portfolio.New()
	pool := bot.NewPool(zerolog.Nop(), nil)
	authMgr := auth.NewManager("", "", "", 0)

	server := NewServer(ServerConfig{Host: "127.0.0.1", Port: 0}, book, pool, nil, authMgr, events.NewEventBus(), nil)
	return server, book, pool
}

func doJSON(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t)

	w := doJSON(t, server, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
}

func TestLoginUnavailableWithoutAuth(t *testing.T) {
	server, _, _ := newTestServer(t)

	w := doJSON(t, server, http.MethodPost, "/api/login", gin.H{"username": "op", "password": "pw"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Login without auth configured should be 503, got %d", w.Code)
	}
}

func TestAddPairAndCapacity(t *testing.T) {
	server, book, _ := newTestServer(t)

	w := doJSON(t, server, http.MethodPost, "/api/portfolio", gin.H{
		"symbol": "btcusdt", "bought_price": 30000.0, "quantity": 1.5,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if book.Len() != 1 {
		t.Errorf("Book should hold 1 pair, got %d", book.Len())
	}

	for i := 1; i < portfolio.MaxPairs; i++ {
		doJSON(t, server, http.MethodPost, "/api/portfolio", gin.H{
			"symbol": "ethusdt", "bought_price": 1800.0, "quantity": 1.0,
		})
	}
	w = doJSON(t, server, http.MethodPost, "/api/portfolio", gin.H{
		"symbol": "adausdt", "bought_price": 0.45, "quantity": 100.0,
	})
	if w.Code != http.StatusConflict {
		t.Errorf("Add beyond capacity should be 409, got %d", w.Code)
	}
}

func TestAddPairValidation(t *testing.T) {
	server, _, _ := newTestServer(t)

	w := doJSON(t, server, http.MethodPost, "/api/portfolio", gin.H{"bought_price": 100.0})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Missing symbol should be 400, got %d", w.Code)
	}
}

func TestAnalysisEndpoint(t *testing.T) {
	server, book, _ := newTestServer(t)
	book.AddPair("btcusdt", 30000, 1.5, portfolio.Long)

	w := doJSON(t, server, http.MethodGet, "/api/portfolio/0/analysis", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if resp["symbol"] != "btcusdt" {
		t.Errorf("Expected symbol btcusdt, got %v", resp["symbol"])
	}
	if _, ok := resp["recommendation"]; !ok {
		t.Error("Analysis should include a recommendation")
	}
	if _, ok := resp["indicators"]; !ok {
		t.Error("Analysis should include the indicator block")
	}

	w = doJSON(t, server, http.MethodGet, "/api/portfolio/99/analysis", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Unknown index should be 404, got %d", w.Code)
	}
}

func TestTargetEndpointValidation(t *testing.T) {
	server, book, _ := newTestServer(t)
	book.AddPair("btcusdt", 30000, 1.5, portfolio.Long)

	w := doJSON(t, server, http.MethodPost, "/api/portfolio/0/target", gin.H{"is_sell_target": true})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Missing target price should be 400, got %d", w.Code)
	}

	w = doJSON(t, server, http.MethodPost, "/api/portfolio/0/target", gin.H{
		"target_price": 35000.0, "is_sell_target": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Valid target should be 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if _, ok := resp["probability"]; !ok {
		t.Error("Target analysis should include a probability")
	}
}

func TestBotEndpoints(t *testing.T) {
	server, _, pool := newTestServer(t)

	w := doJSON(t, server, http.MethodPost, "/api/bots", gin.H{
		"symbol": "btcusdt", "initial_balance": 1000.0, "trade_amount": 100.0,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if pool.Len() != 1 {
		t.Errorf("Pool should hold 1 bot, got %d", pool.Len())
	}

	w = doJSON(t, server, http.MethodPost, "/api/bots/0/pause", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("Pause before start should be 409, got %d", w.Code)
	}

	w = doJSON(t, server, http.MethodPost, "/api/bots/0/start", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Start should be 200, got %d", w.Code)
	}

	w = doJSON(t, server, http.MethodPost, "/api/bots/3/start", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Start on empty slot should be 404, got %d", w.Code)
	}

	w = doJSON(t, server, http.MethodGet, "/api/bots", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("List should be 200, got %d", w.Code)
	}
	var resp map[string][]bot.Status
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(resp["bots"]) != 1 || resp["bots"][0].State != "RUNNING" {
		t.Errorf("Expected one running bot, got %+v", resp["bots"])
	}
}

func TestBotPoolFullOverHTTP(t *testing.T) {
	server, _, _ := newTestServer(t)

	for i := 0; i < bot.PoolSize; i++ {
		doJSON(t, server, http.MethodPost, "/api/bots", gin.H{
			"symbol": "btcusdt", "initial_balance": 1000.0, "trade_amount": 100.0,
		})
	}
	w := doJSON(t, server, http.MethodPost, "/api/bots", gin.H{
		"symbol": "ethusdt", "initial_balance": 1000.0, "trade_amount": 100.0,
	})
	if w.Code != http.StatusConflict {
		t.Errorf("Pool overflow should be 409, got %d", w.Code)
	}
}
