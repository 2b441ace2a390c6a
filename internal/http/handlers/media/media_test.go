package media

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/mediaplatform/catalog-service/internal/cache"
	"github.com/mediaplatform/catalog-service/internal/http/middleware"
	"github.com/mediaplatform/catalog-service/internal/storage"
	"github.com/mediaplatform/catalog-service/internal/types"
	"github.com/mediaplatform/catalog-service/internal/utils/jwt"
)

const testSecret = "test_secret"

// stubStorage is an in-memory media registry.
type stubStorage struct {
	media      map[int64]types.MediaAsset
	nextID     int64
	increments int
}

func newStubStorage() *stubStorage {
	return &stubStorage{media: make(map[int64]types.MediaAsset)}
}

func (s *stubStorage) CreateAccount(ctx context.Context, email, passwordHash string) (int64, error) {
	panic("not used")
}

func (s *stubStorage) GetAccountByEmail(ctx context.Context, email string) (int64, string, error) {
	panic("not used")
}

func (s *stubStorage) CreateMedia(ctx context.Context, title, mediaType, fileURL string) (types.MediaAsset, error) {
	s.nextID++
	media := types.MediaAsset{
		ID:        s.nextID,
		Title:     title,
		Type:      mediaType,
		FileURL:   fileURL,
		Views:     0,
		CreatedAt: time.Now().UTC(),
	}
	s.media[media.ID] = media
	return media, nil
}

func (s *stubStorage) GetMediaByID(ctx context.Context, mediaID int64) (types.MediaAsset, error) {
	media, ok := s.media[mediaID]
	if !ok {
		return types.MediaAsset{}, storage.ErrNotFound
	}
	return media, nil
}

func (s *stubStorage) IncrementViews(ctx context.Context, mediaID int64) (int64, error) {
	media, ok := s.media[mediaID]
	if !ok {
		return 0, storage.ErrNotFound
	}
	media.Views++
	s.media[mediaID] = media
	s.increments++
	return media.Views, nil
}

// newTestRouter wires the media routes the way main does, backed by an
// in-memory storage and a miniredis cache/limiter.
func newTestRouter(t *testing.T) (*http.ServeMux, *stubStorage, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
		DB:   0,
	})

	stub := newStubStorage()
	cacheService := cache.NewAnalyticsCache(stub, redisClient)
	rateLimitConfig := middleware.NewRateLimitConfig(redisClient)
	authRequired := middleware.AuthMiddleware(testSecret)

	router := http.NewServeMux()
	router.Handle("POST /media", authRequired(CreateMedia(stub)))
	router.Handle("GET /media/{id}/stream-url", authRequired(StreamURL(stub, testSecret)))
	router.HandleFunc("GET /media/{id}/analytics", Analytics(cacheService))
	router.Handle("POST /media/{id}/view",
		rateLimitConfig.RateLimitedHandler("view", PostView(cacheService, nil)))

	cleanup := func() {
		redisClient.Close()
		mr.Close()
	}

	return router, stub, cleanup
}

func authHeader(t *testing.T) string {
	t.Helper()
	token, err := jwt.CreateToken(1, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return "Bearer " + token
}

func TestCreateMedia(t *testing.T) {
	router, _, cleanup := newTestRouter(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/media",
		strings.NewReader(`{"title":"Test Media","type":"video","file_url":"http://x/video.mp4"}`))
	req.Header.Set("Authorization", authHeader(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var media types.MediaAsset
	if err := json.Unmarshal(rec.Body.Bytes(), &media); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if media.Title != "Test Media" || media.Type != "video" || media.FileURL != "http://x/video.mp4" {
		t.Fatalf("Unexpected media asset: %+v", media)
	}
	if media.Views != 0 {
		t.Fatalf("Expected a fresh asset to have 0 views, got %d", media.Views)
	}
	if media.CreatedAt.IsZero() {
		t.Fatal("Expected created_at to be populated")
	}
}

func TestCreateMedia_RequiresAuth(t *testing.T) {
	router, _, cleanup := newTestRouter(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/media",
		strings.NewReader(`{"title":"Test Media","type":"video","file_url":"http://x/video.mp4"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401 without a token, got %d", rec.Code)
	}
}

func TestCreateMedia_MissingFields(t *testing.T) {
	router, _, cleanup := newTestRouter(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/media",
		strings.NewReader(`{"title":"Test Media"}`))
	req.Header.Set("Authorization", authHeader(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400 for missing fields, got %d", rec.Code)
	}
}

func TestStreamURL(t *testing.T) {
	router, stub, cleanup := newTestRouter(t)
	defer cleanup()

	media, _ := stub.CreateMedia(context.Background(), "Test Media", "video", "http://x/video.mp4")

	req := httptest.NewRequest(http.MethodGet, "/media/1/stream-url", nil)
	req.Header.Set("Authorization", authHeader(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	streamURL := resp["stream_url"]
	if !strings.HasPrefix(streamURL, "/stream?token=") {
		t.Fatalf("Unexpected stream URL: %s", streamURL)
	}

	// The embedded token is a valid stream token for this asset
	token := strings.TrimPrefix(streamURL, "/stream?token=")
	mediaID, err := jwt.ExtractMediaIDFromStreamToken(token, testSecret)
	if err != nil {
		t.Fatalf("Unexpected error verifying stream token: %v", err)
	}
	if mediaID != media.ID {
		t.Fatalf("Expected media ID %d in stream token, got %d", media.ID, mediaID)
	}
}

func TestStreamURL_NotFound(t *testing.T) {
	router, _, cleanup := newTestRouter(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/media/99/stream-url", nil)
	req.Header.Set("Authorization", authHeader(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}
}

func TestAnalytics(t *testing.T) {
	router, stub, cleanup := newTestRouter(t)
	defer cleanup()

	stub.CreateMedia(context.Background(), "Test Media", "video", "http://x/video.mp4")

	req := httptest.NewRequest(http.MethodGet, "/media/1/analytics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var analytics types.Analytics
	if err := json.Unmarshal(rec.Body.Bytes(), &analytics); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	want := types.Analytics{MediaID: 1, Title: "Test Media", Views: 0}
	if analytics != want {
		t.Fatalf("Expected %+v, got %+v", want, analytics)
	}

	// A repeated read within the TTL returns the identical payload
	first := rec.Body.String()
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/1/analytics", nil))
	if rec.Body.String() != first {
		t.Fatalf("Expected identical cached payloads, got %q and %q", first, rec.Body.String())
	}
}

func TestAnalytics_NotFound(t *testing.T) {
	router, _, cleanup := newTestRouter(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/media/99/analytics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}
}

func TestPostView_IncrementsAndInvalidates(t *testing.T) {
	router, stub, cleanup := newTestRouter(t)
	defer cleanup()

	stub.CreateMedia(context.Background(), "Test Media", "video", "http://x/video.mp4")

	// Populate the analytics cache first
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/1/analytics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	viewReq := httptest.NewRequest(http.MethodPost, "/media/1/view", nil)
	viewReq.RemoteAddr = "192.0.2.1:1234"
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, viewReq)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var viewResp map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &viewResp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if viewResp["media_id"] != 1 || viewResp["views"] != 1 {
		t.Fatalf("Unexpected view response: %+v", viewResp)
	}

	// Any analytics read after the increment returns the new count
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/1/analytics", nil))
	var analytics types.Analytics
	if err := json.Unmarshal(rec.Body.Bytes(), &analytics); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if analytics.Views < 1 {
		t.Fatalf("Expected at least 1 view after increment, got %d", analytics.Views)
	}
}

func TestPostView_NotFound(t *testing.T) {
	router, _, cleanup := newTestRouter(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/media/99/view", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}
}

func TestPostView_RateLimited(t *testing.T) {
	router, stub, cleanup := newTestRouter(t)
	defer cleanup()

	stub.CreateMedia(context.Background(), "Test Media", "video", "http://x/video.mp4")

	var admitted, rejected int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/media/1/view", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		switch rec.Code {
		case http.StatusOK:
			admitted++
		case http.StatusTooManyRequests:
			rejected++
		default:
			t.Fatalf("Unexpected status %d: %s", rec.Code, rec.Body.String())
		}
	}

	if rejected == 0 {
		t.Fatal("Expected at least one request to be rate limited")
	}
	if admitted != 5 {
		t.Fatalf("Expected 5 admitted requests, got %d", admitted)
	}

	// Rejected requests never reach the registry
	if stub.increments != admitted {
		t.Fatalf("Expected %d applied increments, got %d", admitted, stub.increments)
	}

	// A different client is unaffected
	req := httptest.NewRequest(http.MethodPost, "/media/1/view", nil)
	req.RemoteAddr = "192.0.2.2:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected a different client to be admitted, got %d", rec.Code)
	}
}
