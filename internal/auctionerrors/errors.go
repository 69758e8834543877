package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound  = errors.New("auction not found")
	ErrVersionConflict  = errors.New("auction was modified concurrently")
	ErrAuctionFinalized = errors.New("auction is finalized")
)

// business logic errors
var (
	ErrInvalidAuction    = errors.New("invalid auction")
	ErrUnauthorized      = errors.New("user does not own auction")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// delivery errors
var (
	ErrPublishFailed = errors.New("event publish failed")
)
