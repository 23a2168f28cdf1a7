package insights

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/s1natex/smart-tasks/internal/tasks"
)

type insightsResponse struct {
	Text     string    `json:"text"`
	Sections []Section `json:"sections"`
}

type titleRequest struct {
	Description string `json:"description"`
}

// RegisterRoutes mounts the model-backed API endpoints on r.
func RegisterRoutes(r chi.Router, c *Client, store *tasks.Store) {
	r.Post("/insights", func(w http.ResponseWriter, r *http.Request) {
		text := c.GenerateInsights(r.Context(), store.FreshSnapshot(r.Context()))
		sections := ParseSections(text)
		if sections == nil {
			sections = []Section{}
		}
		tasks.WriteJSON(w, http.StatusOK, insightsResponse{Text: text, Sections: sections})
	})

	r.Post("/insights/categories", func(w http.ResponseWriter, r *http.Request) {
		tasks.WriteJSON(w, http.StatusOK, c.CategorizeTasks(r.Context(), store.FreshSnapshot(r.Context())))
	})

	r.Post("/insights/title", func(w http.ResponseWriter, r *http.Request) {
		var req titleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			tasks.WriteJSON(w, http.StatusBadRequest, tasks.ErrResponse{Error: "invalid_json"})
			return
		}
		if strings.TrimSpace(req.Description) == "" {
			tasks.WriteJSON(w, http.StatusUnprocessableEntity, tasks.ErrResponse{
				Error:   "validation_error",
				Details: []tasks.FieldError{{Field: "description", Message: "description is required"}},
			})
			return
		}
		tasks.WriteJSON(w, http.StatusOK, map[string]string{
			"title": c.SuggestTaskTitle(r.Context(), req.Description),
		})
	})

	r.Post("/tasks/{id}/estimate", func(w http.ResponseWriter, r *http.Request) {
		t, ok := store.Get(chi.URLParam(r, "id"))
		if !ok {
			tasks.WriteJSON(w, http.StatusNotFound, tasks.ErrResponse{Error: "not_found"})
			return
		}
		tasks.WriteJSON(w, http.StatusOK, map[string]string{
			"duration": c.EstimateTaskDuration(r.Context(), t),
		})
	})
}
