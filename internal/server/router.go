package server

import (
	"net/http"

	handler "auction-lifecycle/services/auction/handler"
	"auction-lifecycle/utils"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(auctionService handler.AuctionServiceInterface, finalizer handler.FinalizerInterface) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(auctionService, finalizer)

	router.GET("/health", func(c *gin.Context) {
		utils.JSONResponse(c, http.StatusOK, gin.H{"ok": true}, "healthy")
	})

	auctions := router.Group("/auctions")
	{
		auctions.POST("", auctionHandler.CreateAuctionHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.PUT("/:auction_id", auctionHandler.UpdateAuctionHandler)
		auctions.POST("/:auction_id/finalize", auctionHandler.FinalizeAuctionHandler)
	}

	return router
}
