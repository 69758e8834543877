package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	auction "auction-lifecycle/internal/auctionService"
	"auction-lifecycle/internal/finalizer"
	"auction-lifecycle/internal/models"
	"auction-lifecycle/internal/repository"
	"auction-lifecycle/internal/repository/sqlite"
	"auction-lifecycle/internal/server"
	"auction-lifecycle/internal/validation"
	"auction-lifecycle/services/auction/helpers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// recordingPublisher keeps every event it is handed
type recordingPublisher struct {
	mu      sync.Mutex
	ended   []models.AuctionEndedEvent
	updated []models.AuctionUpdatedEvent
}

func (p *recordingPublisher) PublishAuctionEnded(_ context.Context, e models.AuctionEndedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ended = append(p.ended, e)
	return nil
}

func (p *recordingPublisher) PublishAuctionUpdated(_ context.Context, e models.AuctionUpdatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updated = append(p.updated, e)
	return nil
}

func (p *recordingPublisher) Ended() []models.AuctionEndedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.AuctionEndedEvent(nil), p.ended...)
}

func (p *recordingPublisher) Updated() []models.AuctionUpdatedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.AuctionUpdatedEvent(nil), p.updated...)
}

// testApp is the full stack behind the router
type testApp struct {
	Router    *gin.Engine
	Repo      repository.AuctionRepository
	Publisher *recordingPublisher
	Engine    *finalizer.Engine
	Sweeper   *finalizer.Sweeper
}

// SetupTestApp wires the service, engine and router over the given store
func SetupTestApp(t *testing.T, repo repository.AuctionRepository) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pub := &recordingPublisher{}
	engine := finalizer.NewEngine(repo, pub)
	svc := auction.NewAuctionService(repo, pub, validation.NewValidator())

	return &testApp{
		Router:    server.SetupRouter(svc, engine),
		Repo:      repo,
		Publisher: pub,
		Engine:    engine,
		Sweeper:   finalizer.NewSweeper(repo, engine, finalizer.SweeperConfig{Concurrency: 4}),
	}
}

// SetupMemoryApp initializes the stack with the in-memory repository
func SetupMemoryApp(t *testing.T) *testApp {
	return SetupTestApp(t, repository.NewMemoryRepo())
}

// SetupSQLiteApp initializes the stack over a fresh sqlite file
func SetupSQLiteApp(t *testing.T) *testApp {
	t.Helper()
	store, err := sqlite.Open(context.Background(), t.TempDir()+"/auctions.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return SetupTestApp(t, store)
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, userID int64, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		req.Header.Set(helpers.UserIDHeader, strconv.FormatInt(userID, 10))
	}
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if data, ok := resp["data"].(map[string]any); ok {
			resp = data
		}
	}

	return resp, w
}
