package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"memopilot/internal/middleware"
	"memopilot/internal/models"
	"memopilot/internal/services"
	"memopilot/pkg/auth"

	"github.com/gofiber/fiber/v2"
)

func setupMemoryApp(t *testing.T, mock *mockMemoryAPI) (*fiber.App, *auth.JWTVerifier) {
	t.Helper()

	verifier, err := auth.NewJWTVerifier("test-secret-key", time.Hour)
	if err != nil {
		t.Fatalf("Failed to create verifier: %v", err)
	}

	cacheService := services.NewMemoryCacheService(mock, 5*time.Minute, 100, nil)
	handler := NewMemoryHandler(cacheService, false)

	app := fiber.New()
	authMiddleware := middleware.Auth(verifier)
	app.Get("/memory/all", authMiddleware, handler.ListMemories)
	app.Post("/memory/warmup", authMiddleware, handler.Warmup)
	app.Delete("/memory/:id", authMiddleware, handler.DeleteMemory)

	return app, verifier
}

func doAuthed(t *testing.T, app *fiber.App, verifier *auth.JWTVerifier, method, path, userID string) (int, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if userID != "" {
		token, err := verifier.GenerateToken(userID)
		if err != nil {
			t.Fatalf("Failed to generate token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to send request: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var result map[string]interface{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &result); err != nil {
			t.Fatalf("Failed to parse JSON: %v", err)
		}
	}

	return resp.StatusCode, result
}

func TestListMemoriesStripsUserID(t *testing.T) {
	mock := newMockMemoryAPI()
	mock.getAllResult = models.MemoryResult{
		"count": 2,
		"results": []any{
			map[string]any{"id": "m1", "memory": "likes pizza", "user_id": "u1"},
			map[string]any{"id": "m2", "memory": "lives in Hanoi", "user_id": "u1"},
		},
	}
	app, verifier := setupMemoryApp(t, mock)

	status, body := doAuthed(t, app, verifier, "GET", "/memory/all", "u1")

	if status != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if body["count"] != float64(2) {
		t.Errorf("Expected count 2, got %v", body["count"])
	}
	if body["page"] != float64(1) || body["page_size"] != float64(100) {
		t.Errorf("Expected default pagination, got page=%v page_size=%v", body["page"], body["page_size"])
	}

	results, ok := body["results"].([]interface{})
	if !ok || len(results) != 2 {
		t.Fatalf("Expected 2 results, got %v", body["results"])
	}
	for _, raw := range results {
		record := raw.(map[string]interface{})
		if _, present := record["user_id"]; present {
			t.Errorf("Expected user_id stripped from response, got %v", record)
		}
		if record["id"] == nil {
			t.Errorf("Expected record fields preserved, got %v", record)
		}
	}
}

func TestListMemoriesClampsPagination(t *testing.T) {
	mock := newMockMemoryAPI()
	app, verifier := setupMemoryApp(t, mock)

	status, body := doAuthed(t, app, verifier, "GET", "/memory/all?page=0&page_size=9999", "u1")

	if status != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if body["page"] != float64(1) || body["page_size"] != float64(100) {
		t.Errorf("Expected clamped pagination, got page=%v page_size=%v", body["page"], body["page_size"])
	}
}

func TestListMemoriesRequiresAuth(t *testing.T) {
	mock := newMockMemoryAPI()
	app, verifier := setupMemoryApp(t, mock)

	status, _ := doAuthed(t, app, verifier, "GET", "/memory/all", "")

	if status != fiber.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", status)
	}

	_, getAll, _, _ := mock.counts()
	if getAll != 0 {
		t.Errorf("Expected no upstream call without auth, got %d", getAll)
	}
}

func TestDeleteMemoryOwnedByOtherUserForbidden(t *testing.T) {
	mock := newMockMemoryAPI()
	mock.records["m1"] = models.MemoryResult{"id": "m1", "user_id": "u1"}
	app, verifier := setupMemoryApp(t, mock)

	status, body := doAuthed(t, app, verifier, "DELETE", "/memory/m1", "u2")

	if status != fiber.StatusForbidden {
		t.Errorf("Expected 403, got %d", status)
	}
	if body["detail"] != "Not allowed" {
		t.Errorf("Expected detail 'Not allowed', got %v", body["detail"])
	}

	_, _, _, del := mock.counts()
	if del != 0 {
		t.Errorf("Expected no delete call, got %d", del)
	}
}

func TestDeleteMemoryNotFound(t *testing.T) {
	mock := newMockMemoryAPI()
	app, verifier := setupMemoryApp(t, mock)

	// Upstream returns an empty record for unknown IDs
	status, body := doAuthed(t, app, verifier, "DELETE", "/memory/nope", "u1")

	if status != fiber.StatusNotFound {
		t.Errorf("Expected 404, got %d", status)
	}
	if body["detail"] != "Memory not found" {
		t.Errorf("Expected detail 'Memory not found', got %v", body["detail"])
	}
}

func TestDeleteMemoryUpstream404(t *testing.T) {
	mock := newMockMemoryAPI()
	mock.getErr = &services.UpstreamError{StatusCode: 404, Body: `{"detail":"not found"}`}
	app, verifier := setupMemoryApp(t, mock)

	status, body := doAuthed(t, app, verifier, "DELETE", "/memory/nope", "u1")

	if status != fiber.StatusNotFound {
		t.Errorf("Expected 404, got %d", status)
	}
	// Production mode: upstream detail must not leak
	if body["detail"] != "Request error" {
		t.Errorf("Expected generic detail, got %v", body["detail"])
	}
}

func TestDeleteMemorySuccess(t *testing.T) {
	mock := newMockMemoryAPI()
	mock.records["m1"] = models.MemoryResult{"id": "m1", "user_id": "u1"}
	app, verifier := setupMemoryApp(t, mock)

	status, body := doAuthed(t, app, verifier, "DELETE", "/memory/m1", "u1")

	if status != fiber.StatusOK {
		t.Errorf("Expected 200, got %d", status)
	}
	if body["status"] != "deleted" {
		t.Errorf("Expected upstream result passed through, got %v", body)
	}

	_, _, _, del := mock.counts()
	if del != 1 {
		t.Errorf("Expected 1 delete call, got %d", del)
	}
}

func TestWarmupEndpointSchedulesBackgroundWork(t *testing.T) {
	mock := newMockMemoryAPI()
	app, verifier := setupMemoryApp(t, mock)

	status, body := doAuthed(t, app, verifier, "POST", "/memory/warmup", "u1")

	if status != fiber.StatusAccepted {
		t.Errorf("Expected 202, got %d", status)
	}
	if body["status"] != "scheduled" {
		t.Errorf("Expected status 'scheduled', got %v", body["status"])
	}

	// The warmup runs in the background; wait for both legs
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		search, getAll, _, _ := mock.counts()
		if search >= 1 && getAll >= 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("Warmup legs did not run within deadline")
}

func TestInvalidTokenRejected(t *testing.T) {
	mock := newMockMemoryAPI()
	app, _ := setupMemoryApp(t, mock)

	req := httptest.NewRequest("GET", "/memory/all", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", resp.StatusCode)
	}
}
