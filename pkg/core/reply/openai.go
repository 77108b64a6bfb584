package reply

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core/types"
)

const (
	// openAIDefaultBaseURL is the default OpenAI API endpoint.
	openAIDefaultBaseURL = "https://api.openai.com/v1"

	// openAIDefaultMaxTokens bounds reply length; spoken answers stay short.
	openAIDefaultMaxTokens = 256
)

// OpenAIProvider generates replies through the OpenAI Chat Completions API.
type OpenAIProvider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// OpenAIOption configures the OpenAI provider.
type OpenAIOption func(*OpenAIProvider)

// WithOpenAIBaseURL sets a custom base URL (for testing or proxying).
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.baseURL = url
	}
}

// WithOpenAIHTTPClient sets a custom HTTP client.
func WithOpenAIHTTPClient(client *http.Client) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.httpClient = client
	}
}

// NewOpenAI creates a new OpenAI reply provider.
func NewOpenAI(apiKey, model string, opts ...OpenAIOption) *OpenAIProvider {
	p := &OpenAIProvider{
		apiKey:     strings.TrimSpace(apiKey),
		model:      model,
		baseURL:    openAIDefaultBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// chatRequest is the OpenAI Chat Completions request format.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_completion_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the OpenAI Chat Completions response format, reduced to
// the fields the dialog needs.
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int    `json:"index"`
		FinishReason string `json:"finish_reason"`
		Message      struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// chatErrorResponse is the OpenAI error envelope.
type chatErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// Reply sends the conversation to the Chat Completions endpoint and returns
// the first choice's text.
func (p *OpenAIProvider) Reply(ctx context.Context, turns []types.Turn) (string, error) {
	system, rest := splitHistory(turns)

	messages := make([]chatMessage, 0, len(turns))
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	for _, t := range rest {
		messages = append(messages, chatMessage{Role: string(t.Role), Content: t.Text})
	}

	body, err := json.Marshal(&chatRequest{
		Model:     p.model,
		Messages:  messages,
		MaxTokens: openAIDefaultMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(p.baseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", core.NewGenerationError(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", p.parseError(resp)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", core.NewGenerationError(p.Name(), fmt.Errorf("read response: %w", err))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", core.NewGenerationError(p.Name(), fmt.Errorf("unmarshal response: %w", err))
	}
	if len(chatResp.Choices) == 0 {
		return "", core.NewGenerationError(p.Name(), fmt.Errorf("no choices in response"))
	}

	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", core.NewGenerationError(p.Name(), fmt.Errorf("empty completion"))
	}
	return text, nil
}

// parseError converts an OpenAI error response into a canonical error.
func (p *OpenAIProvider) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp chatErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		code := ""
		if errResp.Error.Code != nil {
			code = fmt.Sprint(errResp.Error.Code)
		}
		return &core.Error{
			Type:          core.ErrGeneration,
			Message:       fmt.Sprintf("%s: %s", p.Name(), errResp.Error.Message),
			Code:          code,
			ProviderError: errResp.Error,
		}
	}
	return core.NewGenerationError(p.Name(), fmt.Errorf("http %d", resp.StatusCode))
}
