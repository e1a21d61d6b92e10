package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crypto-portfolio-bot/internal/advisor"
	"crypto-portfolio-bot/internal/bot"
	"crypto-portfolio-bot/internal/portfolio"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"pairs":      s.book.Len(),
		"bots":       s.pool.Len(),
		"ws_clients": s.hub.ClientCount(),
	})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	if !s.authMgr.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "authentication is not configured"})
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, err := s.authMgr.Login(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) handlePortfolio(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": s.book.Performance()})
}

func (s *Server) handlePortfolioSummary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"total_value":           s.book.TotalValue(),
		"total_cost":            s.book.TotalCost(),
		"total_profit_loss":     s.book.TotalProfitLoss(),
		"total_profit_loss_pct": s.book.TotalProfitLossPercent(),
		"pairs":                 s.book.Len(),
	})
}

type pairRequest struct {
	Symbol       string  `json:"symbol" binding:"required"`
	BoughtPrice  float64 `json:"bought_price"`
	Quantity     float64 `json:"quantity"`
	PositionType int     `json:"position_type"`
}

func (r pairRequest) direction() portfolio.Direction {
	if r.PositionType == 1 {
		return portfolio.Short
	}
	return portfolio.Long
}

func (s *Server) handleAddPair(c *gin.Context) {
	var req pairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pair payload"})
		return
	}

	index, err := s.book.AddPair(req.Symbol, req.BoughtPrice, req.Quantity, req.direction())
	switch err {
	case nil:
		c.JSON(http.StatusCreated, gin.H{"index": index})
	case portfolio.ErrPortfolioFull:
		c.JSON(http.StatusConflict, gin.H{"error": "portfolio is full"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func (s *Server) handleUpdatePair(c *gin.Context) {
	index, ok := s.indexParam(c)
	if !ok {
		return
	}

	var req pairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pair payload"})
		return
	}

	err := s.book.UpdatePair(index, req.Symbol, req.BoughtPrice, req.Quantity, req.direction())
	switch err {
	case nil:
		c.JSON(http.StatusOK, gin.H{"index": index})
	case portfolio.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "pair not found"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func (s *Server) handleRemovePair(c *gin.Context) {
	index, ok := s.indexParam(c)
	if !ok {
		return
	}

	if err := s.book.RemovePair(index); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "pair not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// profitPercent is the unrealized P/L of the position, sign-adjusted for
// shorts.
func profitPercent(a *portfolio.Asset) float64 {
	if a.BoughtPrice <= 0 || a.CurrentPrice <= 0 {
		return 0
	}
	if a.Direction == portfolio.Short {
		return (a.BoughtPrice - a.CurrentPrice) / a.BoughtPrice * 100
	}
	return (a.CurrentPrice - a.BoughtPrice) / a.BoughtPrice * 100
}

func (s *Server) handleAnalysis(c *gin.Context) {
	index, ok := s.indexParam(c)
	if !ok {
		return
	}

	var resp gin.H
	err := s.book.ReadAssetAt(index, func(a *portfolio.Asset) {
		trend := a.Trend()
		profit := profitPercent(a)
		support, resistance := a.SupportResistance()

		resp = gin.H{
			"symbol":               a.Symbol,
			"position_type":        a.Direction.String(),
			"bought_price":         a.BoughtPrice,
			"quantity":             a.Quantity,
			"current_price":        a.CurrentPrice,
			"profit_percent":       profit,
			"trend":                trend,
			"momentum":             a.Momentum(),
			"volatility":           a.Volatility(),
			"rsi":                  a.RSI(),
			"support":              support,
			"resistance":           resistance,
			"indicators":           a.Ind,
			"recommendation":       advisor.Recommendation(a, profit, trend),
			"recommendation_color": advisor.RecommendationColor(a, profit, trend),
		}
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "pair not found"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

type targetRequest struct {
	TargetPrice  float64 `json:"target_price" binding:"required"`
	IsSellTarget bool    `json:"is_sell_target"`
}

func (s *Server) handleTargetAnalysis(c *gin.Context) {
	index, ok := s.indexParam(c)
	if !ok {
		return
	}

	var req targetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_price is required"})
		return
	}

	var analysis advisor.TargetAnalysis
	var analysisErr error
	err := s.book.ReadAssetAt(index, func(a *portfolio.Asset) {
		analysis, analysisErr = advisor.AnalyzeTarget(a, req.TargetPrice, req.IsSellTarget)
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "pair not found"})
		return
	}
	if analysisErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target price must be positive"})
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (s *Server) handleTradePrices(c *gin.Context) {
	index, ok := s.indexParam(c)
	if !ok {
		return
	}

	var suggestion advisor.TradeSuggestion
	err := s.book.ReadAssetAt(index, func(a *portfolio.Asset) {
		suggestion = advisor.TradePrices(a)
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "pair not found"})
		return
	}
	c.JSON(http.StatusOK, suggestion)
}

func (s *Server) handleBots(c *gin.Context) {
	statuses := s.pool.Statuses(func(symbol string) float64 {
		price := 0.0
		s.book.ReadAsset(symbol, func(a *portfolio.Asset) {
			price = a.CurrentPrice
		})
		return price
	})
	c.JSON(http.StatusOK, gin.H{"bots": statuses})
}

type botRequest struct {
	Symbol         string  `json:"symbol" binding:"required"`
	InitialBalance float64 `json:"initial_balance"`
	TradeAmount    float64 `json:"trade_amount"`
}

func (s *Server) handleAddBot(c *gin.Context) {
	var req botRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bot payload"})
		return
	}

	index, err := s.pool.Add(req.Symbol, req.InitialBalance, req.TradeAmount)
	switch err {
	case nil:
		c.JSON(http.StatusCreated, gin.H{"index": index})
	case bot.ErrPoolFull:
		c.JSON(http.StatusConflict, gin.H{"error": "bot pool is full"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func (s *Server) handleRemoveBot(c *gin.Context) {
	s.botAction(c, s.pool.Remove)
}

func (s *Server) handleBotStart(c *gin.Context) {
	s.botAction(c, s.pool.Start)
}

func (s *Server) handleBotPause(c *gin.Context) {
	s.botAction(c, s.pool.Pause)
}

func (s *Server) handleBotStop(c *gin.Context) {
	s.botAction(c, s.pool.Stop)
}

func (s *Server) handleBotReset(c *gin.Context) {
	s.botAction(c, s.pool.Reset)
}

func (s *Server) botAction(c *gin.Context, action func(int) error) {
	index, ok := s.indexParam(c)
	if !ok {
		return
	}

	switch err := action(index); err {
	case nil:
		c.JSON(http.StatusOK, gin.H{"index": index})
	case bot.ErrNotRunning:
		c.JSON(http.StatusConflict, gin.H{"error": "bot is not running"})
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "no bot at index"})
	}
}

func (s *Server) handleBotTrades(c *gin.Context) {
	index, ok := s.indexParam(c)
	if !ok {
		return
	}

	trades, err := s.pool.Trades(index)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no bot at index"})
		return
	}

	// The in-memory ring covers the recent window; older fills live in
	// the persisted trade log when a database is configured.
	if len(trades) == 0 && s.repo != nil {
		symbol := c.Query("symbol")
		persisted, dbErr := s.repo.RecentTrades(c.Request.Context(), symbol, bot.TradeHistorySize)
		if dbErr == nil {
			trades = persisted
		}
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

func (s *Server) indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return 0, false
	}
	return index, true
}
