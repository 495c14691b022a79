package router

import (
	"github.com/gin-gonic/gin"

	"StockLens/internal/handler"
)

func registerMarketRoutes(router *gin.RouterGroup, market *handler.MarketHandler, dash *handler.DashboardHandler, scr *handler.ScreenerHandler) {
	dashboard := router.Group("/dashboard")
	{
		dashboard.GET("", dash.Get)
		dashboard.POST("/refresh", dash.Refresh)
	}

	router.GET("/quotes", market.GetQuotes)
	router.GET("/quotes/:symbol", market.GetQuote)
	router.GET("/history/:symbol", market.GetHistory)
	router.GET("/indices", market.GetIndices)
	router.GET("/search", market.Search)
	router.GET("/screener", scr.Screen)
}

func registerWatchlistRoutes(router *gin.RouterGroup, h *handler.WatchlistHandler) {
	lists := router.Group("/watchlists")
	{
		lists.GET("", h.List)
		lists.POST("", h.Create)
		lists.GET("/:name", h.Get)
		lists.PUT("/:name", h.Rename)
		lists.DELETE("/:name", h.Delete)
		lists.POST("/:name/stocks", h.AddStock)
		lists.DELETE("/:name/stocks/:symbol", h.RemoveStock)
		lists.POST("/:name/stocks/:symbol/favorite", h.ToggleFavorite)
	}
}

func registerAuthRoutes(router *gin.RouterGroup, h *handler.AuthHandler) {
	a := router.Group("/auth")
	{
		a.POST("/signup", h.SignUp)
		a.POST("/signin", h.SignIn)
		a.POST("/signout", h.SignOut)
		a.POST("/reset", h.ResetPassword)
		a.GET("/session", h.Session)
	}
	router.GET("/profiles/:uid", h.GetProfile)
}
