package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	auction "auction-lifecycle/internal/auctionService"
	"auction-lifecycle/internal/auctionerrors"
	"auction-lifecycle/internal/finalizer"
	"auction-lifecycle/internal/models"
	"auction-lifecycle/services/auction/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

var (
	startTime = time.Date(2026, 11, 1, 10, 0, 0, 0, time.UTC)
	endTime   = time.Date(2026, 11, 3, 10, 0, 0, 0, time.UTC)
)

func validRequest(title string) helpers.AuctionRequest {
	return helpers.AuctionRequest{
		ProductID:    11,
		Title:        title,
		Description:  "Cámara réflex",
		InitialPrice: 300,
		MinIncrement: 15,
		StartTime:    startTime,
		EndTime:      endTime,
		Type:         models.AuctionTypeSimple,
	}
}

func newTestRouter(svc AuctionServiceInterface, fin FinalizerInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAuctionHandler(svc, fin)
	router := gin.New()
	router.POST("/auctions", h.CreateAuctionHandler)
	router.GET("/auctions/:auction_id", h.GetAuctionHandler)
	router.PUT("/auctions/:auction_id", h.UpdateAuctionHandler)
	router.POST("/auctions/:auction_id/finalize", h.FinalizeAuctionHandler)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path, userID string, body any) (int, map[string]any) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(helpers.UserIDHeader, userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

// Test CreateAuctionHandler
func TestCreateAuctionHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		userID         string
		requestBody    any
		mockSetup      func(svc *MockAuctionServiceInterface)
		expectedStatus int
		expectedMsg    string
		validateData   func(t *testing.T, data map[string]any)
	}{
		{
			name:        "success",
			userID:      "7",
			requestBody: validRequest("Cámara"),
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().CreateAuction(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, cmd auction.CreateAuctionCommand) (int64, error) {
						require.Equal(t, int64(7), cmd.UserID)
						require.Equal(t, "Cámara", cmd.Input.Title)
						require.True(t, endTime.Equal(cmd.Input.EndTime))
						return 42, nil
					})
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "auction created successfully",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, 42.0, data["auction_id"])
			},
		},
		{
			name:           "missing_user_header",
			requestBody:    validRequest("Cámara"),
			mockSetup:      func(svc *MockAuctionServiceInterface) {},
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "user not identified",
		},
		{
			name:           "invalid_json",
			userID:         "7",
			requestBody:    `{invalid json}`,
			mockSetup:      func(svc *MockAuctionServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "missing_title",
			userID:         "7",
			requestBody:    validRequest(""),
			mockSetup:      func(svc *MockAuctionServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:        "service_rejects_window",
			userID:      "7",
			requestBody: validRequest("Cámara"),
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().CreateAuction(gomock.Any(), gomock.Any()).
					Return(int64(0), fmt.Errorf("service: %w", auctionerrors.ErrInvalidAuction))
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid auction details",
		},
		{
			name:        "service_generic_error",
			userID:      "7",
			requestBody: validRequest("Cámara"),
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().CreateAuction(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("database failure"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := NewMockAuctionServiceInterface(ctrl)
			tc.mockSetup(mockService)
			router := newTestRouter(mockService, NewMockFinalizerInterface(ctrl))

			code, resp := doRequest(t, router, http.MethodPost, "/auctions", tc.userID, tc.requestBody)
			require.Equal(t, tc.expectedStatus, code)
			require.Equal(t, tc.expectedMsg, resp["message"])
			if tc.validateData != nil {
				tc.validateData(t, resp["data"].(map[string]any))
			}
		})
	}
}

// Test GetAuctionHandler
func TestGetAuctionHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		path           string
		mockSetup      func(svc *MockAuctionServiceInterface)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name: "found",
			path: "/auctions/3",
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().GetAuction(gomock.Any(), int64(3)).Return(models.Auction{
					ID:      3,
					UserID:  7,
					Title:   "Cámara",
					EndTime: endTime,
					Status:  models.ParseStatus("finalizada"),
					Version: 4,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction retrieved successfully",
		},
		{
			name: "not_found",
			path: "/auctions/9",
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().GetAuction(gomock.Any(), int64(9)).Return(models.Auction{}, auctionerrors.ErrAuctionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction not found",
		},
		{
			name:           "bad_id",
			path:           "/auctions/abc",
			mockSetup:      func(svc *MockAuctionServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid auction id",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := NewMockAuctionServiceInterface(ctrl)
			tc.mockSetup(mockService)
			router := newTestRouter(mockService, NewMockFinalizerInterface(ctrl))

			code, resp := doRequest(t, router, http.MethodGet, tc.path, "", nil)
			require.Equal(t, tc.expectedStatus, code)
			require.Equal(t, tc.expectedMsg, resp["message"])
			if code == http.StatusOK {
				data := resp["data"].(map[string]any)
				require.Equal(t, "finalized", data["status"])
				require.Equal(t, "2026-11-03T10:00:00Z", data["end_time"])
			}
		})
	}
}

// Test UpdateAuctionHandler
func TestUpdateAuctionHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		path           string
		userID         string
		requestBody    any
		mockSetup      func(svc *MockAuctionServiceInterface)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:        "success",
			path:        "/auctions/123",
			userID:      "7",
			requestBody: validRequest("Updated Title"),
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().UpdateAuction(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, cmd auction.UpdateAuctionCommand) (bool, error) {
						require.Equal(t, int64(123), cmd.AuctionID)
						require.Equal(t, int64(7), cmd.UserID)
						require.Equal(t, "Updated Title", cmd.Input.Title)
						return true, nil
					})
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction updated successfully",
		},
		{
			name:           "missing_user_header",
			path:           "/auctions/123",
			requestBody:    validRequest("Updated Title"),
			mockSetup:      func(svc *MockAuctionServiceInterface) {},
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "user not identified",
		},
		{
			name:        "not_owner",
			path:        "/auctions/123",
			userID:      "8",
			requestBody: validRequest("Updated Title"),
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().UpdateAuction(gomock.Any(), gomock.Any()).Return(false, auctionerrors.ErrUnauthorized)
			},
			expectedStatus: http.StatusForbidden,
			expectedMsg:    "user does not own auction",
		},
		{
			name:        "finalized",
			path:        "/auctions/123",
			userID:      "7",
			requestBody: validRequest("Updated Title"),
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().UpdateAuction(gomock.Any(), gomock.Any()).
					Return(false, fmt.Errorf("service: %w", auctionerrors.ErrAuctionFinalized))
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction is finalized",
		},
		{
			name:        "concurrent_update",
			path:        "/auctions/123",
			userID:      "7",
			requestBody: validRequest("Updated Title"),
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().UpdateAuction(gomock.Any(), gomock.Any()).Return(false, auctionerrors.ErrVersionConflict)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction was modified concurrently, retry",
		},
		{
			name:           "bad_id",
			path:           "/auctions/0",
			userID:         "7",
			requestBody:    validRequest("Updated Title"),
			mockSetup:      func(svc *MockAuctionServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid auction id",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := NewMockAuctionServiceInterface(ctrl)
			tc.mockSetup(mockService)
			router := newTestRouter(mockService, NewMockFinalizerInterface(ctrl))

			code, resp := doRequest(t, router, http.MethodPut, tc.path, tc.userID, tc.requestBody)
			require.Equal(t, tc.expectedStatus, code)
			require.Equal(t, tc.expectedMsg, resp["message"])
			if code == http.StatusOK {
				require.Equal(t, true, resp["data"].(map[string]any)["updated"])
			}
		})
	}
}

// Test FinalizeAuctionHandler
func TestFinalizeAuctionHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		path           string
		mockSetup      func(fin *MockFinalizerInterface)
		expectedStatus int
		expectedMsg    string
		validateData   func(t *testing.T, data map[string]any)
	}{
		{
			name: "finalized",
			path: "/auctions/1/finalize",
			mockSetup: func(fin *MockFinalizerInterface) {
				fin.EXPECT().FinalizeAuction(gomock.Any(), int64(1)).
					Return(finalizer.Result{Outcome: finalizer.OutcomeFinalized, EventID: "evt-1", Published: true}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction finalized",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, "finalized", data["outcome"])
				require.Equal(t, "evt-1", data["event_id"])
				require.Equal(t, true, data["published"])
			},
		},
		{
			name: "not_yet_due",
			path: "/auctions/1/finalize",
			mockSetup: func(fin *MockFinalizerInterface) {
				fin.EXPECT().FinalizeAuction(gomock.Any(), int64(1)).
					Return(finalizer.Result{Outcome: finalizer.OutcomeNoOp, Reason: finalizer.ReasonNotYetDue}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "nothing to finalize",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, "noop", data["outcome"])
				require.Equal(t, "not_yet_due", data["reason"])
			},
		},
		{
			name: "store_failure",
			path: "/auctions/1/finalize",
			mockSetup: func(fin *MockFinalizerInterface) {
				fin.EXPECT().FinalizeAuction(gomock.Any(), int64(1)).Return(finalizer.Result{}, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
		{
			name:           "bad_id",
			path:           "/auctions/x/finalize",
			mockSetup:      func(fin *MockFinalizerInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid auction id",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockFinalizer := NewMockFinalizerInterface(ctrl)
			tc.mockSetup(mockFinalizer)
			router := newTestRouter(NewMockAuctionServiceInterface(ctrl), mockFinalizer)

			code, resp := doRequest(t, router, http.MethodPost, tc.path, "", nil)
			require.Equal(t, tc.expectedStatus, code)
			require.Equal(t, tc.expectedMsg, resp["message"])
			if tc.validateData != nil {
				tc.validateData(t, resp["data"].(map[string]any))
			}
		})
	}
}
