package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"StockLens/internal/screener"
)

type ScreenerHandler struct {
	engine *screener.Engine
}

func NewScreenerHandler(engine *screener.Engine) *ScreenerHandler {
	return &ScreenerHandler{engine: engine}
}

func (h *ScreenerHandler) Screen(c *gin.Context) {
	crit := screener.Criteria{
		Query:       c.Query("query"),
		Sector:      c.Query("sector"),
		MarketCap:   screener.CapBucket(c.Query("marketCap")),
		Performance: c.Query("performance"),
	}
	var err error
	if v := c.Query("minPrice"); v != "" {
		if crit.MinPrice, err = strconv.ParseFloat(v, 64); err != nil {
			abortWithError(c, http.StatusBadRequest, "invalid minPrice")
			return
		}
	}
	if v := c.Query("maxPrice"); v != "" {
		if crit.MaxPrice, err = strconv.ParseFloat(v, 64); err != nil {
			abortWithError(c, http.StatusBadRequest, "invalid maxPrice")
			return
		}
	}
	order := screener.Order{Key: screener.SortKey(c.Query("sort")), Desc: c.Query("order") == "desc"}

	rows, err := h.engine.Screen(c.Request.Context(), crit, order)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"stocks": rows, "count": len(rows)})
}
