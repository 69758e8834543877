package helpers

import (
	"time"

	"auction-lifecycle/internal/finalizer"
	"auction-lifecycle/internal/models"
)

// Request/Response DTOs
type AuctionRequest struct {
	ProductID    int64     `json:"product_id"`
	Title        string    `json:"title" binding:"required"`
	Description  string    `json:"description"`
	InitialPrice float64   `json:"initial_price" binding:"required"`
	MinIncrement float64   `json:"min_increment" binding:"required"`
	ReservePrice *float64  `json:"reserve_price"`
	StartTime    time.Time `json:"start_time" binding:"required"`
	EndTime      time.Time `json:"end_time" binding:"required"`
	Conditions   string    `json:"conditions"`
	Type         string    `json:"type"`
}

// ToInput maps the request onto the service input; domain rules are checked by the service
func (r AuctionRequest) ToInput() models.AuctionInput {
	return models.AuctionInput{
		ProductID:    r.ProductID,
		Title:        r.Title,
		Description:  r.Description,
		InitialPrice: r.InitialPrice,
		MinIncrement: r.MinIncrement,
		ReservePrice: r.ReservePrice,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		Conditions:   r.Conditions,
		Type:         r.Type,
	}
}

type AuctionResponse struct {
	AuctionID    int64    `json:"auction_id"`
	ProductID    int64    `json:"product_id"`
	UserID       int64    `json:"user_id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	InitialPrice float64  `json:"initial_price"`
	MinIncrement float64  `json:"min_increment"`
	ReservePrice *float64 `json:"reserve_price,omitempty"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	Conditions   string   `json:"conditions"`
	Type         string   `json:"type"`
	Status       string   `json:"status"`
	Version      int64    `json:"version"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

// NewAuctionResponse renders times as RFC3339 UTC and the status as its canonical label
func NewAuctionResponse(a models.Auction) AuctionResponse {
	return AuctionResponse{
		AuctionID:    a.ID,
		ProductID:    a.ProductID,
		UserID:       a.UserID,
		Title:        a.Title,
		Description:  a.Description,
		InitialPrice: a.InitialPrice,
		MinIncrement: a.MinIncrement,
		ReservePrice: a.ReservePrice,
		StartTime:    a.StartTime.UTC().Format(time.RFC3339),
		EndTime:      a.EndTime.UTC().Format(time.RFC3339),
		Conditions:   a.Conditions,
		Type:         a.Type,
		Status:       a.Status.String(),
		Version:      a.Version,
		CreatedAt:    a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type CreateAuctionResponse struct {
	AuctionID int64 `json:"auction_id"`
}

type UpdateAuctionResponse struct {
	Updated bool `json:"updated"`
}

type FinalizeAuctionResponse struct {
	AuctionID int64  `json:"auction_id"`
	Outcome   string `json:"outcome"`
	Reason    string `json:"reason,omitempty"`
	EventID   string `json:"event_id,omitempty"`
	Published bool   `json:"published"`
}

// NewFinalizeAuctionResponse flattens an engine result
func NewFinalizeAuctionResponse(auctionID int64, res finalizer.Result) FinalizeAuctionResponse {
	return FinalizeAuctionResponse{
		AuctionID: auctionID,
		Outcome:   res.Outcome.String(),
		Reason:    res.Reason.String(),
		EventID:   res.EventID,
		Published: res.Published,
	}
}
