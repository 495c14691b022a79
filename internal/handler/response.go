package handler

import (
	"github.com/gin-gonic/gin"

	"StockLens/internal/provider"
)

// sourced is the envelope of provider-backed responses.
type sourced struct {
	Data   any             `json:"data"`
	Source provider.Source `json:"source"`
	Reason provider.Reason `json:"reason,omitempty"`
}

func withOutcome(data any, o provider.Outcome) sourced {
	return sourced{Data: data, Source: o.Source, Reason: o.Reason}
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
