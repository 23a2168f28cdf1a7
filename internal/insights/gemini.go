package insights

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gl "cloud.google.com/go/ai/generativelanguage/apiv1beta"
	pb "cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const (
	DefaultModel = "gemini-2.5-pro"

	generativeLanguageScope = "https://www.googleapis.com/auth/generative-language"
)

type GeminiConfig struct {
	APIKey string
	Model  string
	// Endpoint overrides the service base URL, e.g. a proxy.
	Endpoint string
	// HTTPClient, when set, is used as-is and no credentials are attached.
	HTTPClient *http.Client
}

// Gemini generates text with the Generative Language API.
type Gemini struct {
	client *gl.GenerativeClient
	model  string
}

// NewGemini builds a client authenticated by API key, or by Application
// Default Credentials when no key is configured.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	var opts []option.ClientOption
	switch {
	case cfg.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	default:
		ts, err := google.DefaultTokenSource(ctx, generativeLanguageScope)
		if err != nil {
			return nil, fmt.Errorf("no Gemini API key and no default credentials: %w", err)
		}
		opts = append(opts, option.WithTokenSource(ts))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimSuffix(cfg.Endpoint, "/")))
	}

	client, err := gl.NewGenerativeRESTClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Generative Language client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Close() error { return g.client.Close() }

// GenerateText implements Generator.
func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.GenerateContent(ctx, &pb.GenerateContentRequest{
		Model: g.model,
		Contents: []*pb.Content{{
			Role:  "user",
			Parts: []*pb.Part{{Data: &pb.Part_Text{Text: prompt}}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var b strings.Builder
	if cands := resp.GetCandidates(); len(cands) > 0 {
		for _, p := range cands[0].GetContent().GetParts() {
			b.WriteString(p.GetText())
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		if reason := resp.GetPromptFeedback().GetBlockReason(); reason != 0 {
			return "", fmt.Errorf("prompt blocked: %s", reason)
		}
		return "", errors.New("empty response")
	}
	return text, nil
}
