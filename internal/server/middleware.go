package server

import (
	"time"

	"auction-lifecycle/services/auction/helpers"
	"auction-lifecycle/utils"

	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	fields := map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	}
	if user := c.GetHeader(helpers.UserIDHeader); user != "" {
		fields["user_id"] = user
	}
	if auctionID := c.Param("auction_id"); auctionID != "" {
		fields["auction_id"] = auctionID
	}
	utils.Info("HTTP Request", fields)
}
