// Package web renders the task manager as server-side HTML. Every view is
// recomputed from a fresh store snapshot per request; UI-only state
// (filter, sort, open panels, form drafts) travels in the query string or
// the posted form.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/s1natex/smart-tasks/internal/insights"
	"github.com/s1natex/smart-tasks/internal/tasks"
)

//go:embed templates/*.html
var templateFS embed.FS

const dueLayout = "2006-01-02"

type Server struct {
	store  *tasks.Store
	ai     *insights.Client
	tmpl   *template.Template
	logger *slog.Logger
	now    func() time.Time
}

func NewServer(store *tasks.Store, ai *insights.Client, logger *slog.Logger) (*Server, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"priorityIcon": priorityIcon,
		"capitalize":   capitalize,
		"cardCtx":      cardCtx,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: store, ai: ai, tmpl: tmpl, logger: logger, now: time.Now}, nil
}

// Routes mounts the UI pages and task mutations on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.handleIndex)
	r.Post("/tasks", s.handleAdd)
	r.Post("/tasks/{id}/toggle", s.handleToggle)
	r.Post("/tasks/{id}/delete", s.handleDelete)
}

// ModelRoutes mounts the UI actions that wait on the text-generation
// service.
func (s *Server) ModelRoutes(r chi.Router) {
	r.Post("/tasks/{id}/estimate", s.handleEstimate)
	r.Post("/suggest-title", s.handleSuggestTitle)
	r.Post("/insights", s.handleInsights)
	r.Post("/insights/categories", s.handleCategories)
}

// uiState is the transient, per-request view selection.
type uiState struct {
	Filter tasks.Filter
	Sort   tasks.Sort
	AIOpen bool
}

func stateFrom(r *http.Request) uiState {
	f, err := tasks.ParseFilter(r.FormValue("filter"))
	if err != nil {
		f = tasks.FilterAll
	}
	so, err := tasks.ParseSort(r.FormValue("sort"))
	if err != nil {
		so = tasks.SortDate
	}
	return uiState{Filter: f, Sort: so, AIOpen: r.FormValue("ai") == "1"}
}

// Query encodes the state, optionally overriding one key.
func (st uiState) Query(key, value string) template.URL {
	v := url.Values{}
	v.Set("filter", string(st.Filter))
	v.Set("sort", string(st.Sort))
	if st.AIOpen {
		v.Set("ai", "1")
	}
	if key != "" {
		if value == "" {
			v.Del(key)
		} else {
			v.Set(key, value)
		}
	}
	return template.URL("/?" + v.Encode())
}

type formData struct {
	Title       string
	Description string
	Priority    string
	Due         string
	Error       string
}

type cardData struct {
	tasks.Task
	CreatedAgo string
	Due        string
	Overdue    bool
	Estimate   string
}

// cardView is the dot of the card template: one card plus the state its
// forms post back.
type cardView struct {
	Card  cardData
	State uiState
}

func cardCtx(p pageData, c cardData) cardView {
	return cardView{Card: c, State: p.State}
}

type insightsData struct {
	Text     string
	Sections []insights.Section
}

type pageData struct {
	State      uiState
	Stats      tasks.Stats
	Active     []cardData
	Completed  []cardData
	Empty      bool
	Form       formData
	Priorities []tasks.Priority
	Insights   *insightsData
	Categories map[string][]string
}

type option struct {
	Value string
	Label string
}

func (pageData) Filters() []option {
	return []option{{"all", "All"}, {"active", "Active"}, {"completed", "Completed"}}
}

func (pageData) Sorts() []option {
	return []option{{"date", "By Date"}, {"priority", "By Priority"}}
}

func (s *Server) page(ctx context.Context, st uiState) pageData {
	snap := s.store.FreshSnapshot(ctx)
	view := tasks.View(snap, st.Filter, st.Sort)
	active, completed := tasks.GroupByCompletion(view)
	return pageData{
		State:      st,
		Stats:      tasks.ComputeStats(snap),
		Active:     s.cards(active),
		Completed:  s.cards(completed),
		Empty:      len(view) == 0,
		Form:       formData{Priority: string(tasks.PriorityMedium)},
		Priorities: tasks.Priorities,
	}
}

func (s *Server) cards(ts []tasks.Task) []cardData {
	now := s.now()
	out := make([]cardData, len(ts))
	for i, t := range ts {
		c := cardData{Task: t, CreatedAgo: humanize.RelTime(t.CreatedAt, now, "ago", "from now")}
		if t.DueDate != nil {
			c.Due = t.DueDate.Format("Jan 2, 2006")
			c.Overdue = !t.Completed && t.DueDate.Before(now)
		}
		out[i] = c
	}
	return out
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "page", data); err != nil {
		s.logger.Error("render_error", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) redirectBack(w http.ResponseWriter, r *http.Request, st uiState) {
	http.Redirect(w, r, string(st.Query("", "")), http.StatusSeeOther)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, s.page(r.Context(), stateFrom(r)))
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r)
	form := formFrom(r)
	in, msg := parseForm(form)
	if msg == "" {
		_, err := s.store.Add(r.Context(), in)
		switch {
		case err == nil:
			s.redirectBack(w, r, st)
			return
		case errors.Is(err, tasks.ErrTitleRequired):
			msg = "Title is required"
		case errors.Is(err, tasks.ErrInvalidPriority):
			msg = "Priority must be low, medium or high"
		default:
			s.logger.Error("add_task_error", slog.String("error", err.Error()))
			http.Error(w, "could not save task", http.StatusInternalServerError)
			return
		}
	}

	data := s.page(r.Context(), st)
	form.Error = msg
	data.Form = form
	s.render(w, http.StatusUnprocessableEntity, data)
}

func formFrom(r *http.Request) formData {
	f := formData{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Priority:    strings.ToLower(strings.TrimSpace(r.FormValue("priority"))),
		Due:         strings.TrimSpace(r.FormValue("due")),
	}
	if f.Priority == "" {
		f.Priority = string(tasks.PriorityMedium)
	}
	return f
}

// parseForm converts form drafts into a TaskInput, or returns a
// user-facing message.
func parseForm(f formData) (tasks.TaskInput, string) {
	if strings.TrimSpace(f.Title) == "" {
		return tasks.TaskInput{}, "Title is required"
	}
	prio, err := tasks.ParsePriority(f.Priority)
	if err != nil {
		return tasks.TaskInput{}, "Priority must be low, medium or high"
	}
	in := tasks.TaskInput{Title: f.Title, Description: f.Description, Priority: prio}
	if f.Due != "" {
		d, err := time.ParseInLocation(dueLayout, f.Due, time.Local)
		if err != nil {
			return tasks.TaskInput{}, "Due date must be YYYY-MM-DD"
		}
		in.DueDate = &d
	}
	return in, ""
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	_, err := s.store.Toggle(r.Context(), chi.URLParam(r, "id"))
	s.afterMutation(w, r, err)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := s.store.Remove(r.Context(), chi.URLParam(r, "id"))
	s.afterMutation(w, r, err)
}

// afterMutation redirects back; a stale id is a no-op, not an error page.
func (s *Server) afterMutation(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil && !errors.Is(err, tasks.ErrNotFound) {
		s.logger.Error("mutation_error", slog.String("error", err.Error()))
		http.Error(w, "could not save task", http.StatusInternalServerError)
		return
	}
	s.redirectBack(w, r, stateFrom(r))
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r)
	id := chi.URLParam(r, "id")
	t, ok := s.store.Get(id)
	if !ok {
		s.redirectBack(w, r, st)
		return
	}
	estimate := s.ai.EstimateTaskDuration(r.Context(), t)

	data := s.page(r.Context(), st)
	setEstimate(data.Active, id, estimate)
	setEstimate(data.Completed, id, estimate)
	s.render(w, http.StatusOK, data)
}

func setEstimate(cards []cardData, id, estimate string) {
	for i := range cards {
		if cards[i].ID == id {
			cards[i].Estimate = estimate
		}
	}
}

func (s *Server) handleSuggestTitle(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r)
	form := formFrom(r)
	if strings.TrimSpace(form.Description) != "" {
		if suggested := s.ai.SuggestTaskTitle(r.Context(), form.Description); suggested != "" {
			form.Title = suggested
		}
	}
	data := s.page(r.Context(), st)
	data.Form = form
	s.render(w, http.StatusOK, data)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r)
	st.AIOpen = true
	text := s.ai.GenerateInsights(r.Context(), s.store.FreshSnapshot(r.Context()))

	data := s.page(r.Context(), st)
	data.Insights = &insightsData{Text: text, Sections: insights.ParseSections(text)}
	s.render(w, http.StatusOK, data)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r)
	st.AIOpen = true
	cats := s.ai.CategorizeTasks(r.Context(), s.store.FreshSnapshot(r.Context()))

	data := s.page(r.Context(), st)
	data.Categories = cats
	s.render(w, http.StatusOK, data)
}

func priorityIcon(p tasks.Priority) string {
	switch p {
	case tasks.PriorityHigh:
		return "🔴"
	case tasks.PriorityMedium:
		return "🟡"
	default:
		return "🔵"
	}
}

func capitalize(v any) string {
	s := fmt.Sprint(v)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
