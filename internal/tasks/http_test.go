package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestServer(t *testing.T) (*chi.Mux, *Store) {
	store := newTestStore(t, NewMemoryPersister())
	r := chi.NewRouter()
	RegisterRoutes(r, store)
	return r, store
}

func do(r http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPostTasks_Success(t *testing.T) {
	r, _ := newTestServer(t)

	rec := do(r, http.MethodPost, "/tasks", []byte(`{"title":"learn chi","priority":"high"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d, body=%s", rec.Code, rec.Body.String())
	}

	var got Task
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if got.ID == "" {
		t.Errorf("expected non-empty ID")
	}
	if got.Title != "learn chi" {
		t.Errorf("expected Title=learn chi, got %q", got.Title)
	}
	if got.Priority != PriorityHigh {
		t.Errorf("expected priority high, got %q", got.Priority)
	}
	if got.Completed {
		t.Errorf("new tasks should default to Completed=false")
	}
	if got.CreatedAt.IsZero() {
		t.Errorf("expected CreatedAt to be set")
	}
}

func TestPostTasks_TitleRequired(t *testing.T) {
	r, store := newTestServer(t)

	rec := do(r, http.MethodPost, "/tasks", []byte(`{"title":"   "}`))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d, body=%s", rec.Code, rec.Body.String())
	}

	var errResp ErrResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to parse error JSON: %v", err)
	}
	if errResp.Error != "validation_error" || len(errResp.Details) != 1 || errResp.Details[0].Field != "title" {
		t.Errorf("unexpected error body %+v", errResp)
	}
	if n := len(store.Snapshot()); n != 0 {
		t.Errorf("expected no tasks, got %d", n)
	}
}

func TestPostTasks_BadPriority(t *testing.T) {
	r, _ := newTestServer(t)

	rec := do(r, http.MethodPost, "/tasks", []byte(`{"title":"x","priority":"urgent"}`))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
}

func TestPostTasks_InvalidJSON(t *testing.T) {
	r, _ := newTestServer(t)

	rec := do(r, http.MethodPost, "/tasks", []byte(`{"title":`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d, body=%s", rec.Code, rec.Body.String())
	}

	var errResp ErrResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to parse error JSON: %v", err)
	}
	if errResp.Error != "invalid_json" {
		t.Errorf("expected error 'invalid_json', got %q", errResp.Error)
	}
}

func TestGetTasks_FilterAndSort(t *testing.T) {
	r, store := newTestServer(t)
	ctx := context.Background()

	low, _ := store.Add(ctx, TaskInput{Title: "low", Priority: PriorityLow})
	_, _ = store.Add(ctx, TaskInput{Title: "high", Priority: PriorityHigh})
	_, _ = store.Toggle(ctx, low.ID)

	rec := do(r, http.MethodGet, "/tasks?filter=active&sort=priority", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d, body=%s", rec.Code, rec.Body.String())
	}
	var list []Task
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if len(list) != 1 || list[0].Title != "high" {
		t.Fatalf("unexpected list %+v", list)
	}

	rec = do(r, http.MethodGet, "/tasks?filter=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for bad filter, got %d", rec.Code)
	}
}

func TestPatchToggleDelete(t *testing.T) {
	r, store := newTestServer(t)
	task, _ := store.Add(context.Background(), TaskInput{Title: "edit me"})

	rec := do(r, http.MethodPatch, "/tasks/"+task.ID, []byte(`{"description":"now with details","priority":"low"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d, body=%s", rec.Code, rec.Body.String())
	}
	var patched Task
	_ = json.Unmarshal(rec.Body.Bytes(), &patched)
	if patched.Description != "now with details" || patched.Priority != PriorityLow || patched.Title != "edit me" {
		t.Fatalf("unexpected patched task %+v", patched)
	}

	rec = do(r, http.MethodPatch, "/tasks/"+task.ID, []byte(`{"title":""}`))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("patch blank title: expected 422, got %d", rec.Code)
	}

	rec = do(r, http.MethodPost, "/tasks/"+task.ID+"/toggle", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: expected 200, got %d", rec.Code)
	}
	if got, _ := store.Get(task.ID); !got.Completed {
		t.Fatalf("expected completed after toggle")
	}

	rec = do(r, http.MethodDelete, "/tasks/"+task.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	rec = do(r, http.MethodDelete, "/tasks/"+task.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rec.Code)
	}
	rec = do(r, http.MethodPost, "/tasks/missing/toggle", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("toggle missing: expected 404, got %d", rec.Code)
	}
}

func TestGetStats(t *testing.T) {
	r, store := newTestServer(t)
	ctx := context.Background()
	a, _ := store.Add(ctx, TaskInput{Title: "a", Priority: PriorityHigh})
	_, _ = store.Add(ctx, TaskInput{Title: "b"})
	_, _ = store.Toggle(ctx, a.ID)

	rec := do(r, http.MethodGet, "/stats", nil)
	var st Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	want := Stats{Total: 2, Active: 1, Completed: 1, HighPriority: 0, CompletionRate: 50}
	if st != want {
		t.Fatalf("expected %+v, got %+v", want, st)
	}
}
