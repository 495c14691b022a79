package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"StockLens/internal/watchlist"
)

type WatchlistHandler struct {
	lists *watchlist.Manager
}

func NewWatchlistHandler(lists *watchlist.Manager) *WatchlistHandler {
	return &WatchlistHandler{lists: lists}
}

func watchlistStatus(err error) int {
	switch {
	case errors.Is(err, watchlist.ErrListNotFound), errors.Is(err, watchlist.ErrStockNotFound):
		return http.StatusNotFound
	case errors.Is(err, watchlist.ErrListExists), errors.Is(err, watchlist.ErrStockExists):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

type nameBody struct {
	Name string `json:"name" binding:"required"`
}

type symbolBody struct {
	Symbol string `json:"symbol" binding:"required"`
}

func (h *WatchlistHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"watchlists": h.lists.Lists()})
}

// Get serves one list, honouring ?filter, ?sort and ?order=desc.
func (h *WatchlistHandler) Get(c *gin.Context) {
	name := c.Param("name")
	entries, err := h.lists.View(name, c.Query("filter"), c.Query("sort"), c.Query("order") == "desc")
	if err != nil {
		abortWithError(c, watchlistStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "entries": entries})
}

func (h *WatchlistHandler) Create(c *gin.Context) {
	var body nameBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, http.StatusBadRequest, "name is required")
		return
	}
	w, err := h.lists.Create(body.Name)
	if err != nil {
		abortWithError(c, watchlistStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (h *WatchlistHandler) Rename(c *gin.Context) {
	var body nameBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, http.StatusBadRequest, "name is required")
		return
	}
	w, err := h.lists.Rename(c.Param("name"), body.Name)
	if err != nil {
		abortWithError(c, watchlistStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *WatchlistHandler) Delete(c *gin.Context) {
	if err := h.lists.Delete(c.Param("name")); err != nil {
		abortWithError(c, watchlistStatus(err), err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WatchlistHandler) AddStock(c *gin.Context) {
	var body symbolBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, http.StatusBadRequest, "symbol is required")
		return
	}
	e, err := h.lists.AddStock(c.Request.Context(), c.Param("name"), body.Symbol)
	if err != nil {
		abortWithError(c, watchlistStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *WatchlistHandler) RemoveStock(c *gin.Context) {
	if err := h.lists.RemoveStock(c.Param("name"), c.Param("symbol")); err != nil {
		abortWithError(c, watchlistStatus(err), err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WatchlistHandler) ToggleFavorite(c *gin.Context) {
	fav, err := h.lists.ToggleFavorite(c.Param("name"), c.Param("symbol"))
	if err != nil {
		abortWithError(c, watchlistStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": c.Param("symbol"), "favorite": fav})
}
