package reply

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core/types"
)

// geminiDefaultMaxTokens bounds reply length; spoken answers stay short.
const geminiDefaultMaxTokens = 256

// GeminiProvider generates replies through the Google Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// GeminiOption configures Gemini client construction.
type GeminiOption func(*genai.ClientConfig)

// WithGeminiBaseURL sets a custom API base URL (for testing or proxying).
func WithGeminiBaseURL(url string) GeminiOption {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPOptions.BaseURL = url
	}
}

// WithGeminiHTTPClient sets a custom HTTP client.
func WithGeminiHTTPClient(client *http.Client) GeminiOption {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPClient = client
	}
}

// NewGemini creates a new Gemini reply provider.
func NewGemini(ctx context.Context, apiKey, model string, opts ...GeminiOption) (*GeminiProvider, error) {
	cfg := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// Name returns the provider identifier.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Reply sends the conversation to Gemini and returns the generated text.
// The persona turn travels as the system instruction; user and assistant
// turns map to Gemini's user/model roles.
func (p *GeminiProvider) Reply(ctx context.Context, turns []types.Turn) (string, error) {
	system, rest := splitHistory(turns)

	contents := make([]*genai.Content, 0, len(rest))
	for _, t := range rest {
		role := genai.Role(genai.RoleUser)
		if t.Role == types.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: geminiDefaultMaxTokens,
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return "", core.NewGenerationError(p.Name(), err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", core.NewGenerationError(p.Name(), fmt.Errorf("empty completion"))
	}
	return text, nil
}
