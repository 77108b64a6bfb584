package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core"
)

const (
	elevenLabsDefaultBaseURL = "https://api.elevenlabs.io"
	elevenLabsDefaultWSBase  = "wss://api.elevenlabs.io/v1/text-to-speech/{voice_id}/stream-input"
	elevenLabsDefaultModel   = "eleven_flash_v2_5"
)

// ElevenLabsProvider implements the Provider interface using the ElevenLabs
// API. Synthesize uses the plain HTTP endpoint; NewStreamingContext opens the
// stream-input websocket for incremental text.
type ElevenLabsProvider struct {
	apiKey     string
	modelID    string
	httpClient *http.Client
	baseURL    string
	wsBaseURL  string
}

// ElevenLabsOption configures the provider.
type ElevenLabsOption func(*ElevenLabsProvider)

// WithElevenLabsBaseURL sets a custom HTTP base URL (for testing or proxying).
func WithElevenLabsBaseURL(base string) ElevenLabsOption {
	return func(e *ElevenLabsProvider) {
		if strings.TrimSpace(base) != "" {
			e.baseURL = base
		}
	}
}

// WithElevenLabsWSBaseURL sets a custom websocket base URL.
func WithElevenLabsWSBaseURL(base string) ElevenLabsOption {
	return func(e *ElevenLabsProvider) {
		if strings.TrimSpace(base) != "" {
			e.wsBaseURL = base
		}
	}
}

// WithElevenLabsHTTPClient sets a custom HTTP client.
func WithElevenLabsHTTPClient(client *http.Client) ElevenLabsOption {
	return func(e *ElevenLabsProvider) {
		if client != nil {
			e.httpClient = client
		}
	}
}

// WithElevenLabsModel sets the synthesis model.
func WithElevenLabsModel(modelID string) ElevenLabsOption {
	return func(e *ElevenLabsProvider) {
		if strings.TrimSpace(modelID) != "" {
			e.modelID = modelID
		}
	}
}

// NewElevenLabs creates a new ElevenLabs TTS provider.
func NewElevenLabs(apiKey string, opts ...ElevenLabsOption) *ElevenLabsProvider {
	e := &ElevenLabsProvider{
		apiKey:     strings.TrimSpace(apiKey),
		modelID:    elevenLabsDefaultModel,
		httpClient: &http.Client{},
		baseURL:    elevenLabsDefaultBaseURL,
		wsBaseURL:  elevenLabsDefaultWSBase,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the provider identifier.
func (e *ElevenLabsProvider) Name() string {
	return "elevenlabs"
}

// synthesizeRequest is the ElevenLabs text-to-speech request body.
type synthesizeRequest struct {
	Text         string         `json:"text"`
	ModelID      string         `json:"model_id"`
	LanguageCode string         `json:"language_code,omitempty"`
	VoiceSet     *voiceSettings `json:"voice_settings,omitempty"`
}

type voiceSettings struct {
	Speed float64 `json:"speed,omitempty"`
}

// elevenLabsError is the ElevenLabs error envelope.
type elevenLabsError struct {
	Detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"detail"`
}

// Synthesize converts text to audio through the blocking HTTP endpoint and
// returns the complete rendered clip.
func (e *ElevenLabsProvider) Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error) {
	if e.apiKey == "" {
		return nil, core.NewSynthesisError(e.Name(), fmt.Errorf("api key is required"))
	}
	voiceID := strings.TrimSpace(opts.Voice)
	if voiceID == "" {
		return nil, core.NewSynthesisError(e.Name(), fmt.Errorf("voice id is required"))
	}

	req := synthesizeRequest{
		Text:         text,
		ModelID:      e.modelID,
		LanguageCode: opts.Language,
	}
	if opts.Speed > 0 {
		req.VoiceSet = &voiceSettings{Speed: opts.Speed}
	}
	body, err := json.Marshal(&req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(e.baseURL, "/") + "/v1/text-to-speech/" + url.PathEscape(voiceID) +
		"?output_format=" + url.QueryEscape(outputFormat(opts))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.NewSynthesisError(e.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, e.parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.NewSynthesisError(e.Name(), fmt.Errorf("read audio: %w", err))
	}
	if len(audio) == 0 {
		return nil, core.NewSynthesisError(e.Name(), fmt.Errorf("empty audio response"))
	}

	return &Synthesis{
		Audio:  audio,
		Format: getFormat(opts.Format),
	}, nil
}

// parseError converts an ElevenLabs error response into a canonical error.
func (e *ElevenLabsProvider) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp elevenLabsError
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Detail.Message != "" {
		return &core.Error{
			Type:          core.ErrSynthesis,
			Message:       fmt.Sprintf("%s: %s", e.Name(), errResp.Detail.Message),
			Code:          errResp.Detail.Status,
			ProviderError: errResp.Detail,
		}
	}
	return core.NewSynthesisError(e.Name(), fmt.Errorf("http %d", resp.StatusCode))
}

// NewStreamingContext opens a stream-input websocket session for incremental
// text. Audio chunks arrive base64-encoded and are pushed to the context.
func (e *ElevenLabsProvider) NewStreamingContext(ctx context.Context, opts SynthesizeOptions) (*StreamingContext, error) {
	if e.apiKey == "" {
		return nil, core.NewSynthesisError(e.Name(), fmt.Errorf("api key is required"))
	}
	voiceID := strings.TrimSpace(opts.Voice)
	if voiceID == "" {
		return nil, core.NewSynthesisError(e.Name(), fmt.Errorf("voice id is required"))
	}
	wsURL, err := buildElevenLabsWSURL(e.wsBaseURL, voiceID, e.modelID)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("xi-api-key", e.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, core.NewSynthesisError(e.Name(), err)
	}

	sc := NewStreamingContext()
	ctxDone := make(chan struct{})
	var closeOnce sync.Once
	closeConn := func() error {
		var closeErr error
		closeOnce.Do(func() {
			close(ctxDone)
			closeErr = conn.Close()
		})
		return closeErr
	}

	// The protocol requires an initial space to open the stream.
	if err := conn.WriteJSON(map[string]any{
		"text":     " ",
		"voice_id": voiceID,
	}); err != nil {
		_ = closeConn()
		return nil, core.NewSynthesisError(e.Name(), err)
	}

	sc.SendFunc = func(text string, isFinal bool) error {
		payload := map[string]any{
			"text": strings.TrimSpace(text),
		}
		if s := payload["text"].(string); s != "" && !strings.HasSuffix(s, " ") {
			payload["text"] = s + " "
		}
		if isFinal {
			payload["flush"] = true
		}
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		return conn.WriteJSON(payload)
	}
	sc.CloseFunc = closeConn

	go func() {
		defer sc.FinishAudio()
		defer sc.Close()
		for {
			select {
			case <-ctx.Done():
				sc.SetError(ctx.Err())
				return
			case <-ctxDone:
				return
			default:
			}
			_, data, err := conn.ReadMessage()
			if err != nil {
				sc.SetError(err)
				return
			}
			var msg map[string]json.RawMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			if audioB64 := decodeStringRaw(msg["audio"]); audioB64 != "" {
				audio, err := base64.StdEncoding.DecodeString(audioB64)
				if err == nil && len(audio) > 0 {
					if !sc.PushAudio(audio) {
						return
					}
				}
			}
			if decodeBoolRaw(msg["isFinal"]) || decodeBoolRaw(msg["is_final"]) {
				return
			}
		}
	}()

	return sc, nil
}

func buildElevenLabsWSURL(base, voiceID, modelID string) (string, error) {
	if strings.TrimSpace(base) == "" {
		base = elevenLabsDefaultWSBase
	}
	base = strings.ReplaceAll(base, "{voice_id}", url.PathEscape(voiceID))
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid elevenlabs ws url: %w", err)
	}
	if u.Scheme == "" {
		u.Scheme = "wss"
	}
	q := u.Query()
	if q.Get("model_id") == "" {
		q.Set("model_id", modelID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// outputFormat maps synthesis options to an ElevenLabs output_format token.
func outputFormat(opts SynthesizeOptions) string {
	if opts.Format == "pcm" {
		rate := opts.SampleRate
		if rate == 0 {
			rate = 24000
		}
		return fmt.Sprintf("pcm_%d", rate)
	}
	return "mp3_44100_128"
}

func getFormat(format string) string {
	switch format {
	case "mp3", "pcm":
		return format
	default:
		return "mp3"
	}
}

func decodeStringRaw(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var out string
	if err := json.Unmarshal(raw, &out); err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func decodeBoolRaw(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var out bool
	if err := json.Unmarshal(raw, &out); err != nil {
		return false
	}
	return out
}
