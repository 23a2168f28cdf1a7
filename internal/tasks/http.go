package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

const maxTitleLen = 200

// RegisterRoutes mounts the task API on r.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Get("/tasks", listTasks(store))
	r.Post("/tasks", createTask(store))
	r.Patch("/tasks/{id}", updateTask(store))
	r.Post("/tasks/{id}/toggle", toggleTask(store))
	r.Delete("/tasks/{id}", deleteTask(store))
	r.Get("/stats", getStats(store))
}

func createTask(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteJSON(w, http.StatusBadRequest, ErrResponse{Error: "invalid_json"})
			return
		}

		vErrs := validateTitle(req.Title)
		prio, err := ParsePriority(req.Priority)
		if err != nil {
			vErrs = append(vErrs, FieldError{Field: "priority", Message: err.Error()})
		}
		if len(vErrs) > 0 {
			WriteJSON(w, http.StatusUnprocessableEntity, ErrResponse{
				Error:   "validation_error",
				Details: vErrs,
			})
			return
		}

		t, err := store.Add(r.Context(), TaskInput{
			Title:       req.Title,
			Description: req.Description,
			Priority:    prio,
			DueDate:     req.DueDate,
		})
		if err != nil {
			WriteStoreError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, t)
	}
}

func listTasks(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f, err := ParseFilter(q.Get("filter"))
		if err != nil {
			WriteJSON(w, http.StatusBadRequest, ErrResponse{
				Error:   "validation_error",
				Details: []FieldError{{Field: "filter", Message: err.Error()}},
			})
			return
		}
		s, err := ParseSort(q.Get("sort"))
		if err != nil {
			WriteJSON(w, http.StatusBadRequest, ErrResponse{
				Error:   "validation_error",
				Details: []FieldError{{Field: "sort", Message: err.Error()}},
			})
			return
		}
		WriteJSON(w, http.StatusOK, View(store.FreshSnapshot(r.Context()), f, s))
	}
}

func updateTask(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch Patch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			WriteJSON(w, http.StatusBadRequest, ErrResponse{Error: "invalid_json"})
			return
		}
		if patch.Title != nil {
			if vErrs := validateTitle(*patch.Title); len(vErrs) > 0 {
				WriteJSON(w, http.StatusUnprocessableEntity, ErrResponse{
					Error:   "validation_error",
					Details: vErrs,
				})
				return
			}
		}
		t, err := store.Update(r.Context(), chi.URLParam(r, "id"), patch)
		if err != nil {
			WriteStoreError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, t)
	}
}

func toggleTask(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := store.Toggle(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteStoreError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, t)
	}
}

func deleteTask(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
			WriteStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func getStats(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, ComputeStats(store.FreshSnapshot(r.Context())))
	}
}

func validateTitle(title string) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(title) == "" {
		errs = append(errs, FieldError{
			Field:   "title",
			Message: "title is required",
		})
	}
	if l := len(title); l > maxTitleLen {
		errs = append(errs, FieldError{
			Field:   "title",
			Message: fmt.Sprintf("title must be at most %d characters", maxTitleLen),
		})
	}
	return errs
}

// WriteStoreError maps Store errors to API responses.
func WriteStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		WriteJSON(w, http.StatusNotFound, ErrResponse{Error: "not_found"})
	case errors.Is(err, ErrTitleRequired):
		WriteJSON(w, http.StatusUnprocessableEntity, ErrResponse{
			Error:   "validation_error",
			Details: []FieldError{{Field: "title", Message: "title is required"}},
		})
	case errors.Is(err, ErrInvalidPriority):
		WriteJSON(w, http.StatusUnprocessableEntity, ErrResponse{
			Error:   "validation_error",
			Details: []FieldError{{Field: "priority", Message: err.Error()}},
		})
	default:
		WriteJSON(w, http.StatusInternalServerError, ErrResponse{Error: "unexpected_error"})
	}
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
