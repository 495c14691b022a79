package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"StockLens/internal/model"
	"StockLens/internal/provider"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
	maxBatchSymbols    = 50
)

type MarketHandler struct {
	svc *provider.Service
	now func() time.Time
}

func NewMarketHandler(svc *provider.Service) *MarketHandler {
	return &MarketHandler{svc: svc, now: time.Now}
}

func (h *MarketHandler) GetQuote(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	q, o := h.svc.Quote(c.Request.Context(), symbol)
	c.JSON(http.StatusOK, withOutcome(q, o))
}

func (h *MarketHandler) GetQuotes(c *gin.Context) {
	var symbols []string
	for _, s := range strings.Split(c.Query("symbols"), ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) == 0 {
		abortWithError(c, http.StatusBadRequest, "symbols is required")
		return
	}
	if len(symbols) > maxBatchSymbols {
		abortWithError(c, http.StatusBadRequest, "too many symbols")
		return
	}

	quotes, outcomes := h.svc.Quotes(c.Request.Context(), symbols)
	out := make([]sourced, len(quotes))
	for i := range quotes {
		out[i] = withOutcome(quotes[i], outcomes[i])
	}
	c.JSON(http.StatusOK, gin.H{"quotes": out})
}

// GetHistory serves /history/:symbol. period1 and period2 accept unix
// seconds, RFC 3339 or YYYY-MM-DD; they default to the last month.
func (h *MarketHandler) GetHistory(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	end := h.now()
	start := end.AddDate(0, -1, 0)

	if v := c.Query("period2"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "invalid period2: "+err.Error())
			return
		}
		end = t
		start = end.AddDate(0, -1, 0)
	}
	if v := c.Query("period1"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "invalid period1: "+err.Error())
			return
		}
		start = t
	}
	interval := model.Interval1d
	if v := c.Query("interval"); v != "" {
		iv, err := model.ParseInterval(v)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		interval = iv
	}
	lo, hi := start, end
	if lo.After(hi) {
		lo, hi = hi, lo
	}
	if n := interval.Count(lo, hi); n > model.MaxPoints {
		abortWithError(c, http.StatusBadRequest,
			fmt.Sprintf("range too large: %d points at %s, limit %d", n, interval, model.MaxPoints))
		return
	}

	points, o := h.svc.History(c.Request.Context(), symbol, start, end, interval)
	c.JSON(http.StatusOK, withOutcome(points, o))
}

func (h *MarketHandler) GetIndices(c *gin.Context) {
	idx, o := h.svc.Indices(c.Request.Context())
	c.JSON(http.StatusOK, withOutcome(idx, o))
}

func (h *MarketHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		abortWithError(c, http.StatusBadRequest, "query is required")
		return
	}
	limit := defaultSearchLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			abortWithError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxSearchLimit)
	}
	res, o := h.svc.Search(c.Request.Context(), query, limit)
	c.JSON(http.StatusOK, withOutcome(res, o))
}

func parseTime(v string) (time.Time, error) {
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, v)
}
