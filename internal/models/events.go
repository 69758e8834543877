package models

import "time"

// AuctionEndedEvent is published once when an auction is finalized
type AuctionEndedEvent struct {
	EventID      string    `json:"event_id"`
	AuctionID    int64     `json:"auction_id"`
	UserID       int64     `json:"user_id"`
	Title        string    `json:"title"`
	InitialPrice float64   `json:"initial_price"`
	ReservePrice *float64  `json:"reserve_price,omitempty"`
	Status       Status    `json:"status"`
	EndTime      time.Time `json:"end_time"`
	FinalizedAt  time.Time `json:"finalized_at"`
}

// AuctionUpdatedEvent is published after an update is persisted
type AuctionUpdatedEvent struct {
	EventID      string    `json:"event_id"`
	AuctionID    int64     `json:"auction_id"`
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
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewAuctionEndedEvent snapshots a finalized auction
func NewAuctionEndedEvent(eventID string, a Auction, finalizedAt time.Time) AuctionEndedEvent {
	a = a.Clone()
	return AuctionEndedEvent{
		EventID:      eventID,
		AuctionID:    a.ID,
		UserID:       a.UserID,
		Title:        a.Title,
		InitialPrice: a.InitialPrice,
		ReservePrice: a.ReservePrice,
		Status:       a.Status,
		EndTime:      a.EndTime,
		FinalizedAt:  finalizedAt,
	}
}

// NewAuctionUpdatedEvent snapshots an updated auction
func NewAuctionUpdatedEvent(eventID string, a Auction) AuctionUpdatedEvent {
	a = a.Clone()
	return AuctionUpdatedEvent{
		EventID:      eventID,
		AuctionID:    a.ID,
		UserID:       a.UserID,
		Title:        a.Title,
		Description:  a.Description,
		InitialPrice: a.InitialPrice,
		MinIncrement: a.MinIncrement,
		ReservePrice: a.ReservePrice,
		StartTime:    a.StartTime,
		EndTime:      a.EndTime,
		Conditions:   a.Conditions,
		Type:         a.Type,
		Status:       a.Status,
		UpdatedAt:    a.UpdatedAt,
	}
}
