package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/s1natex/smart-tasks/internal/tasks"
)

// Fallbacks returned in place of a failed service call.
const (
	FallbackInsights = "⚠️ Failed to generate insights."
	FallbackTitle    = "Untitled Task"
	FallbackDuration = "Unknown duration"
)

// FallbackCategories returns the mapping used when categorization fails.
func FallbackCategories() map[string][]string {
	return map[string][]string{"Error": {"Failed to categorize tasks."}}
}

var ErrUnavailable = errors.New("text generation is not configured")

// Generator turns a prompt into text.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Unavailable is a Generator that always fails; used when no credentials
// are configured so every operation degrades to its fallback.
type Unavailable struct{}

func (Unavailable) GenerateText(context.Context, string) (string, error) {
	return "", ErrUnavailable
}

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_requests_total",
			Help: "Text generation requests by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insights_request_duration_seconds",
			Help:    "Histogram of text generation latency",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration)
}

// Client issues the task-oriented prompts. Its methods never return
// errors: failures are logged and replaced by a fixed fallback.
type Client struct {
	gen    Generator
	logger *slog.Logger
}

func NewClient(gen Generator, logger *slog.Logger) *Client {
	if gen == nil {
		gen = Unavailable{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{gen: gen, logger: logger}
}

// GenerateInsights summarizes themes, improvements and high-priority work.
func (c *Client) GenerateInsights(ctx context.Context, ts []tasks.Task) string {
	out, err := c.call(ctx, "insights", insightsPrompt(ts))
	if err != nil {
		return FallbackInsights
	}
	return out
}

// CategorizeTasks groups task titles by category.
func (c *Client) CategorizeTasks(ctx context.Context, ts []tasks.Task) map[string][]string {
	out, err := c.call(ctx, "categorize", categorizePrompt(ts))
	if err != nil {
		return FallbackCategories()
	}
	cats, err := parseCategories(out)
	if err != nil {
		c.fail(ctx, "categorize", err)
		return FallbackCategories()
	}
	return cats
}

// SuggestTaskTitle proposes a short title for description.
func (c *Client) SuggestTaskTitle(ctx context.Context, description string) string {
	out, err := c.call(ctx, "title", titlePrompt(description))
	if err != nil {
		return FallbackTitle
	}
	title := strings.TrimSpace(strings.Trim(out, `"`))
	if title == "" {
		return FallbackTitle
	}
	return title
}

// EstimateTaskDuration returns a short duration such as "2 hours".
func (c *Client) EstimateTaskDuration(ctx context.Context, t tasks.Task) string {
	out, err := c.call(ctx, "duration", durationPrompt(t))
	if err != nil || out == "" {
		return FallbackDuration
	}
	return out
}

func (c *Client) call(ctx context.Context, op, prompt string) (string, error) {
	ctx, span := otel.Tracer("insights").Start(ctx, "insights."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("insights.op", op),
		attribute.Int("insights.prompt_len", len(prompt)),
	)

	start := time.Now()
	out, err := c.gen.GenerateText(ctx, prompt)
	requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.fail(ctx, op, err)
		return "", err
	}
	requestsTotal.WithLabelValues(op, "ok").Inc()
	return strings.TrimSpace(out), nil
}

func (c *Client) fail(ctx context.Context, op string, err error) {
	requestsTotal.WithLabelValues(op, "fallback").Inc()
	c.logger.ErrorContext(ctx, "insights_error",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}

// parseCategories decodes a JSON object of category -> titles, tolerating
// markdown code fences around it.
func parseCategories(text string) (map[string][]string, error) {
	clean := strings.ReplaceAll(text, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)

	var cats map[string][]string
	if err := json.Unmarshal([]byte(clean), &cats); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	if cats == nil {
		return nil, errors.New("decode categories: not an object")
	}
	return cats, nil
}
