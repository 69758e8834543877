package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"auction-lifecycle/internal/auctionerrors"
	"auction-lifecycle/internal/validation"
	"auction-lifecycle/utils"

	"github.com/gin-gonic/gin"
)

// UserIDHeader carries the caller's user id; authentication happens upstream
const UserIDHeader = "X-User-ID"

var (
	errMissingUser = errors.New("missing or invalid " + UserIDHeader + " header")
	errBadID       = errors.New("auction id must be a positive integer")
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// UserID reads the caller from the X-User-ID header. On failure it writes a
// 401 response and returns false.
func UserID(c *gin.Context, handlerName string) (int64, bool) {
	raw := c.GetHeader(UserIDHeader)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		utils.JSONError(c, http.StatusUnauthorized, errMissingUser, "user not identified")
		utils.Warn(handlerName+": missing user", map[string]any{"header": raw})
		return 0, false
	}
	return id, true
}

// AuctionID parses the :auction_id path parameter. On failure it writes a 400
// response and returns false.
func AuctionID(c *gin.Context, handlerName string) (int64, bool) {
	raw := c.Param("auction_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		utils.JSONError(c, http.StatusBadRequest, fmt.Errorf("%q: %w", raw, errBadID), "invalid auction id")
		utils.Warn(handlerName+": bad auction id", map[string]any{"auction_id": raw})
		return 0, false
	}
	return id, true
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrInvalidAuction):
		return http.StatusBadRequest, "invalid auction details"
	case errors.Is(err, auctionerrors.ErrUnauthorized):
		return http.StatusForbidden, "user does not own auction"
	case errors.Is(err, auctionerrors.ErrAuctionFinalized):
		return http.StatusConflict, "auction is finalized"
	case errors.Is(err, auctionerrors.ErrVersionConflict):
		return http.StatusConflict, "auction was modified concurrently, retry"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// WriteServiceError maps err and writes the error envelope. Validation
// failures also carry the rejected fields.
func WriteServiceError(c *gin.Context, err error) {
	status, message := MapErrorToHTTP(err)
	wrapped := fmt.Errorf("%s: %w", message, err)

	var verr *validation.ValidationError
	if errors.As(err, &verr) {
		utils.JSONFieldError(c, status, wrapped, message, verr.Fields)
		return
	}
	utils.JSONError(c, status, wrapped, message)
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
