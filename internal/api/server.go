package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"crypto-portfolio-bot/internal/auth"
	"crypto-portfolio-bot/internal/bot"
	"crypto-portfolio-bot/internal/database"
	"crypto-portfolio-bot/internal/events"
	"crypto-portfolio-bot/internal/logging"
	"crypto-portfolio-bot/internal/portfolio"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	ProductionMode bool   `json:"production_mode"`
}

// Server exposes the portfolio and the bot pool over HTTP and WebSocket.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     ServerConfig

	book    *portfolio.Portfolio
	pool    *bot.Pool
	repo    *database.Repository
	authMgr *auth.Manager
	hub     *WSHub
	log     *logging.Logger
}

// NewServer creates the API server. repo may be nil when persistence is
// disabled; the trade-history endpoint then serves in-memory data only.
func NewServer(
	config ServerConfig,
	book *portfolio.Portfolio,
	pool *bot.Pool,
	repo *database.Repository,
	authMgr *auth.Manager,
	eventBus *events.EventBus,
	log *logging.Logger,
) *Server {
	if config.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logging.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://localhost:8088"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Length"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:  router,
		config:  config,
		book:    book,
		pool:    pool,
		repo:    repo,
		authMgr: authMgr,
		hub:     InitWebSocket(eventBus, log),
		log:     log.WithComponent("api"),
	}
	server.registerRoutes()
	return server
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.POST("/api/login", s.handleLogin)
	s.router.GET("/ws", s.hub.handleWebSocket)

	api := s.router.Group("/api")
	api.Use(auth.Middleware(s.authMgr))
	{
		api.GET("/portfolio", s.handlePortfolio)
		api.GET("/portfolio/summary", s.handlePortfolioSummary)
		api.POST("/portfolio", s.handleAddPair)
		api.PUT("/portfolio/:index", s.handleUpdatePair)
		api.DELETE("/portfolio/:index", s.handleRemovePair)
		api.GET("/portfolio/:index/analysis", s.handleAnalysis)
		api.POST("/portfolio/:index/target", s.handleTargetAnalysis)
		api.GET("/portfolio/:index/trade-prices", s.handleTradePrices)

		api.GET("/bots", s.handleBots)
		api.POST("/bots", s.handleAddBot)
		api.DELETE("/bots/:index", s.handleRemoveBot)
		api.POST("/bots/:index/start", s.handleBotStart)
		api.POST("/bots/:index/pause", s.handleBotPause)
		api.POST("/bots/:index/stop", s.handleBotStop)
		api.POST("/bots/:index/reset", s.handleBotReset)
		api.GET("/bots/:index/trades", s.handleBotTrades)
	}
}

// Start begins serving; it blocks until the listener fails or closes.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.log.Info("API server listening", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
