package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"StockLens/internal/handler"
	"StockLens/internal/logger"
)

type Config struct {
	MarketHandler    *handler.MarketHandler
	DashboardHandler *handler.DashboardHandler
	ScreenerHandler  *handler.ScreenerHandler
	WatchlistHandler *handler.WatchlistHandler
	AuthHandler      *handler.AuthHandler
	Logger           *zap.SugaredLogger
}

func NewRouter(cfg *Config) *gin.Engine {
	log := logger.OrNop(cfg.Logger)
	router := gin.New()
	router.Use(RequestID(), AccessLog(log), Recovery(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/v1/")
	registerMarketRoutes(api, cfg.MarketHandler, cfg.DashboardHandler, cfg.ScreenerHandler)
	registerWatchlistRoutes(api, cfg.WatchlistHandler)
	registerAuthRoutes(api, cfg.AuthHandler)

	return router
}
