package handler

//go:generate mockgen -source=auction_handler.go -destination=mock_auction_handler.go -package=handler

import (
	"context"
	"net/http"

	auction "auction-lifecycle/internal/auctionService"
	"auction-lifecycle/internal/finalizer"
	"auction-lifecycle/internal/models"
	"auction-lifecycle/services/auction/helpers"
	"auction-lifecycle/utils"

	"github.com/gin-gonic/gin"
)

type AuctionServiceInterface interface {
	CreateAuction(ctx context.Context, cmd auction.CreateAuctionCommand) (int64, error)
	UpdateAuction(ctx context.Context, cmd auction.UpdateAuctionCommand) (bool, error)
	GetAuction(ctx context.Context, auctionID int64) (models.Auction, error)
}

type FinalizerInterface interface {
	FinalizeAuction(ctx context.Context, auctionID int64) (finalizer.Result, error)
}

type AuctionHandler struct {
	service   AuctionServiceInterface
	finalizer FinalizerInterface
}

func NewAuctionHandler(service AuctionServiceInterface, fin FinalizerInterface) *AuctionHandler {
	return &AuctionHandler{service: service, finalizer: fin}
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	userID, ok := helpers.UserID(c, "CreateAuctionHandler")
	if !ok {
		return
	}

	var req helpers.AuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	id, err := h.service.CreateAuction(c.Request.Context(), auction.CreateAuctionCommand{
		Input:  req.ToInput(),
		UserID: userID,
	})
	if err != nil {
		helpers.WriteServiceError(c, err)
		utils.Error("CreateAuctionHandler: failed to create auction", map[string]any{
			"handler": "CreateAuctionHandler",
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.CreateAuctionResponse{AuctionID: id}, "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": id,
		"user_id":    userID,
	})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	id, ok := helpers.AuctionID(c, "GetAuctionHandler")
	if !ok {
		return
	}

	a, err := h.service.GetAuction(c.Request.Context(), id)
	if err != nil {
		helpers.WriteServiceError(c, err)
		utils.Warn("GetAuctionHandler: error retrieving auction", map[string]any{"auction_id": id, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(a), "auction retrieved successfully")
	helpers.LogSuccess("GetAuctionHandler", "auction retrieved successfully", map[string]any{
		"auction_id": id,
		"status":     a.Status.String(),
	})
}

// UpdateAuctionHandler handles PUT /auctions/:auction_id
func (h *AuctionHandler) UpdateAuctionHandler(c *gin.Context) {
	userID, ok := helpers.UserID(c, "UpdateAuctionHandler")
	if !ok {
		return
	}
	id, ok := helpers.AuctionID(c, "UpdateAuctionHandler")
	if !ok {
		return
	}

	var req helpers.AuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpdateAuctionHandler", err)
		return
	}

	updated, err := h.service.UpdateAuction(c.Request.Context(), auction.UpdateAuctionCommand{
		AuctionID: id,
		Input:     req.ToInput(),
		UserID:    userID,
	})
	if err != nil {
		helpers.WriteServiceError(c, err)
		utils.Warn("UpdateAuctionHandler: update rejected", map[string]any{
			"auction_id": id,
			"user_id":    userID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.UpdateAuctionResponse{Updated: updated}, "auction updated successfully")
	helpers.LogSuccess("UpdateAuctionHandler", "auction updated successfully", map[string]any{
		"auction_id": id,
		"user_id":    userID,
	})
}

// FinalizeAuctionHandler handles POST /auctions/:auction_id/finalize, the
// on-demand trigger. A no-op is still a 200.
func (h *AuctionHandler) FinalizeAuctionHandler(c *gin.Context) {
	id, ok := helpers.AuctionID(c, "FinalizeAuctionHandler")
	if !ok {
		return
	}

	res, err := h.finalizer.FinalizeAuction(c.Request.Context(), id)
	if err != nil {
		helpers.WriteServiceError(c, err)
		utils.Error("FinalizeAuctionHandler: finalize failed", map[string]any{"auction_id": id, "error": err.Error()})
		return
	}

	message := "auction finalized"
	if !res.Finalized() {
		message = "nothing to finalize"
	}
	utils.JSONResponse(c, http.StatusOK, helpers.NewFinalizeAuctionResponse(id, res), message)
	helpers.LogSuccess("FinalizeAuctionHandler", message, map[string]any{
		"auction_id": id,
		"outcome":    res.Outcome.String(),
		"reason":     res.Reason.String(),
	})
}
