package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/gateway/config"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

type ReadyHandler struct {
	Config config.Config
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK              bool     `json:"ok"`
		ReplyBackend    string   `json:"reply_backend"`
		ArtifactBackend string   `json:"artifact_backend"`
		Issues          []string `json:"issues,omitempty"`
	}

	issues := make([]string, 0, 4)

	if h.Config.PublicBaseURL == "" {
		issues = append(issues, "public base url not configured")
	}
	switch h.Config.ReplyBackend {
	case config.ReplyBackendOpenAI:
		if h.Config.OpenAIAPIKey == "" {
			issues = append(issues, "openai api key not configured")
		}
	case config.ReplyBackendGemini:
		if h.Config.GeminiAPIKey == "" {
			issues = append(issues, "gemini api key not configured")
		}
	default:
		issues = append(issues, "invalid reply backend")
	}
	if h.Config.ElevenLabsAPIKey == "" {
		issues = append(issues, "elevenlabs api key not configured")
	}
	if h.Config.VoiceID == "" {
		issues = append(issues, "voice id not configured")
	}
	switch h.Config.ArtifactBackend {
	case config.ArtifactBackendFS:
		if h.Config.ArtifactDir == "" {
			issues = append(issues, "artifact directory not configured")
		}
	case config.ArtifactBackendPostgres:
		if h.Config.PostgresDSN == "" {
			issues = append(issues, "postgres dsn not configured")
		}
	default:
		issues = append(issues, "invalid artifact backend")
	}

	status := http.StatusOK
	if len(issues) > 0 {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(readyResp{
		OK:              len(issues) == 0,
		ReplyBackend:    string(h.Config.ReplyBackend),
		ArtifactBackend: string(h.Config.ArtifactBackend),
		Issues:          issues,
	})
}
