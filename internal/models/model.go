package models

import "time"

// Auction types accepted by the validator
const (
	AuctionTypeSimple = "simple"
	AuctionTypeLive   = "live"
)

// Auction represents an auction and its lifecycle state
type Auction struct {
	ID           int64     `json:"auction_id"`
	ProductID    int64     `json:"product_id"`
	UserID       int64     `json:"user_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	InitialPrice float64   `json:"initial_price"`
	MinIncrement float64   `json:"min_increment"`
	ReservePrice *float64  `json:"reserve_price,omitempty"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Conditions   string    `json:"conditions"`
	Type         string    `json:"type"`
	Status       Status    `json:"status"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AuctionInput carries the user-editable fields of an auction for create and update
type AuctionInput struct {
	ProductID    int64     `json:"product_id"`
	Title        string    `json:"title" validate:"required,notblank,max=100"`
	Description  string    `json:"description"`
	InitialPrice float64   `json:"initial_price" validate:"gt=0"`
	MinIncrement float64   `json:"min_increment" validate:"gt=0"`
	ReservePrice *float64  `json:"reserve_price,omitempty"`
	StartTime    time.Time `json:"start_time" validate:"required"`
	EndTime      time.Time `json:"end_time" validate:"required"`
	Conditions   string    `json:"conditions"`
	Type         string    `json:"type" validate:"omitempty,oneof=simple live"`
}

// Apply copies the editable fields of in onto the auction. Identity, owner,
// status and version are left untouched.
func (a *Auction) Apply(in AuctionInput) {
	a.ProductID = in.ProductID
	a.Title = in.Title
	a.Description = in.Description
	a.InitialPrice = in.InitialPrice
	a.MinIncrement = in.MinIncrement
	a.ReservePrice = copyPrice(in.ReservePrice)
	a.StartTime = in.StartTime
	a.EndTime = in.EndTime
	a.Conditions = in.Conditions
	a.Type = in.Type
}

// Clone returns a deep copy, so callers never share the reserve price pointer
func (a Auction) Clone() Auction {
	a.ReservePrice = copyPrice(a.ReservePrice)
	return a
}

func copyPrice(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
