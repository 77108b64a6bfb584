package config

import (
	"strings"
	"testing"
	"time"
)

var gatewayEnvKeys = []string{
	"BAFFONE_ADDR",
	"BAFFONE_PUBLIC_BASE_URL",
	"BAFFONE_REPLY_BACKEND",
	"BAFFONE_OPENAI_API_KEY",
	"BAFFONE_OPENAI_MODEL",
	"BAFFONE_GEMINI_API_KEY",
	"BAFFONE_GEMINI_MODEL",
	"BAFFONE_TTS_MODE",
	"BAFFONE_ELEVENLABS_API_KEY",
	"BAFFONE_ELEVENLABS_MODEL",
	"BAFFONE_VOICE_ID",
	"BAFFONE_VOICE_LANGUAGE",
	"BAFFONE_VOICE_SPEED",
	"BAFFONE_PERSONA",
	"BAFFONE_GREETING",
	"BAFFONE_FALLBACK_LINE",
	"BAFFONE_APOLOGY_LINE",
	"BAFFONE_SPEECH_TIMEOUT",
	"BAFFONE_GATHER_TIMEOUT",
	"BAFFONE_ARTIFACT_BACKEND",
	"BAFFONE_ARTIFACT_DIR",
	"BAFFONE_POSTGRES_DSN",
	"BAFFONE_ARTIFACT_RETENTION",
	"BAFFONE_ARTIFACT_SWEEP_INTERVAL",
	"BAFFONE_SESSION_IDLE_TTL",
	"BAFFONE_SESSION_SWEEP_INTERVAL",
	"BAFFONE_DEBUG_ENDPOINTS",
	"BAFFONE_READ_HEADER_TIMEOUT",
	"BAFFONE_READ_TIMEOUT",
	"BAFFONE_WRITE_TIMEOUT",
	"BAFFONE_SHUTDOWN_GRACE_PERIOD",
}

func clearGatewayEnv(t *testing.T) {
	t.Helper()
	for _, key := range gatewayEnvKeys {
		t.Setenv(key, "")
	}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BAFFONE_PUBLIC_BASE_URL", "https://baffone.example.com")
	t.Setenv("BAFFONE_OPENAI_API_KEY", "sk-test")
	t.Setenv("BAFFONE_ELEVENLABS_API_KEY", "xi-test")
	t.Setenv("BAFFONE_VOICE_ID", "voce-italiana")
}

func TestLoadFromEnvDefaults(t *testing.T) {
	clearGatewayEnv(t)
	setRequiredEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.ReplyBackend != ReplyBackendOpenAI {
		t.Fatalf("ReplyBackend = %q, want openai", cfg.ReplyBackend)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Fatalf("OpenAIModel = %q", cfg.OpenAIModel)
	}
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Fatalf("GeminiModel = %q", cfg.GeminiModel)
	}
	if cfg.VoiceLanguage != "it" {
		t.Fatalf("VoiceLanguage = %q, want it", cfg.VoiceLanguage)
	}
	if cfg.TTSMode != TTSModeHTTP {
		t.Fatalf("TTSMode = %q, want http", cfg.TTSMode)
	}
	if cfg.ArtifactBackend != ArtifactBackendFS {
		t.Fatalf("ArtifactBackend = %q, want fs", cfg.ArtifactBackend)
	}
	if cfg.ArtifactRetention != 24*time.Hour {
		t.Fatalf("ArtifactRetention = %v, want 24h", cfg.ArtifactRetention)
	}
	if cfg.SessionIdleTTL != 30*time.Minute {
		t.Fatalf("SessionIdleTTL = %v, want 30m", cfg.SessionIdleTTL)
	}
	if cfg.SpeechTimeout != 3*time.Second {
		t.Fatalf("SpeechTimeout = %v, want 3s", cfg.SpeechTimeout)
	}
	if cfg.GatherTimeout != 10*time.Second {
		t.Fatalf("GatherTimeout = %v, want 10s", cfg.GatherTimeout)
	}
	if cfg.DebugEndpoints {
		t.Fatal("DebugEndpoints should default to false")
	}
	if cfg.ShutdownGracePeriod != 30*time.Second {
		t.Fatalf("ShutdownGracePeriod = %v, want 30s", cfg.ShutdownGracePeriod)
	}
	if cfg.Persona == "" || cfg.Greeting == "" || cfg.FallbackLine == "" || cfg.ApologyLine == "" {
		t.Fatal("conversation lines must have defaults")
	}
}

func TestLoadFromEnvRequiresPublicBaseURL(t *testing.T) {
	clearGatewayEnv(t)
	setRequiredEnv(t)
	t.Setenv("BAFFONE_PUBLIC_BASE_URL", "")

	if _, err := LoadFromEnv(); err == nil || !strings.Contains(err.Error(), "BAFFONE_PUBLIC_BASE_URL") {
		t.Fatalf("error = %v, want BAFFONE_PUBLIC_BASE_URL complaint", err)
	}
}

func TestLoadFromEnvRejectsRelativeBaseURL(t *testing.T) {
	clearGatewayEnv(t)
	setRequiredEnv(t)
	t.Setenv("BAFFONE_PUBLIC_BASE_URL", "baffone.example.com/audio")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("relative base URL accepted")
	}
}

func TestLoadFromEnvTrimsBaseURLSlash(t *testing.T) {
	clearGatewayEnv(t)
	setRequiredEnv(t)
	t.Setenv("BAFFONE_PUBLIC_BASE_URL", "https://baffone.example.com/")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if got := cfg.AudioURL("abc"); got != "https://baffone.example.com/audio/abc" {
		t.Fatalf("AudioURL = %q", got)
	}
}

func TestLoadFromEnvRejectsUnknownReplyBackend(t *testing.T) {
	clearGatewayEnv(t)
	setRequiredEnv(t)
	t.Setenv("BAFFONE_REPLY_BACKEND", "llama")

	if _, err := LoadFromEnv(); err == nil || !strings.Contains(err.Error(), "BAFFONE_REPLY_BACKEND") {
		t.Fatalf("error = %v, want BAFFONE_REPLY_BACKEND complaint", err)
	}
}

func TestLoadFromEnvGeminiRequiresKey(t *testing.T) {
	clearGatewayEnv(t)
	setRequiredEnv(t)
	t.Setenv("BAFFONE_REPLY_BACKEND", "gemini")

	if _, err := LoadFromEnv(); err == nil || !strings.Contains(err.Error(), "BAFFONE_GEMINI_API_KEY") {
		t.Fatalf("error = %v, want BAFFONE_GEMINI_API_KEY complaint", err)
	}

	t.Setenv("BAFFONE_GEMINI_API_KEY", "g-test")
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.ReplyBackend != ReplyBackendGemini {
		t.Fatalf("ReplyBackend = %q, want gemini", cfg.ReplyBackend)
	}
}

func TestLoadFromEnvTTSMode(t *testing.T) {
	clearGatewayEnv(t)
	setRequiredEnv(t)
	t.Setenv("BAFFONE_TTS_MODE", "stream")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.TTSMode != TTSModeStream {
		t.Fatalf("TTSMode = %q, want stream", cfg.TTSMode)
	}

	t.Setenv("BAFFONE_TTS_MODE", "smoke-signals")
	if _, err := LoadFromEnv(); err == nil || !strings.Contains(err.Error(), "BAFFONE_TTS_MODE") {
		t.Fatalf("error = %v, want BAFFONE_TTS_MODE complaint", err)
	}
}

func TestLoadFromEnvPostgresRequiresDSN(t *testing.T) {
	clearGatewayEnv(t)
	setRequiredEnv(t)
	t.Setenv("BAFFONE_ARTIFACT_BACKEND", "postgres")

	if _, err := LoadFromEnv(); err == nil || !strings.Contains(err.Error(), "BAFFONE_POSTGRES_DSN") {
		t.Fatalf("error = %v, want BAFFONE_POSTGRES_DSN complaint", err)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	clearGatewayEnv(t)
	setRequiredEnv(t)
	t.Setenv("BAFFONE_ADDR", ":9090")
	t.Setenv("BAFFONE_GREETING", "Pronto?")
	t.Setenv("BAFFONE_SESSION_IDLE_TTL", "5m")
	t.Setenv("BAFFONE_DEBUG_ENDPOINTS", "true")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("Addr = %q", cfg.Addr)
	}
	if cfg.Greeting != "Pronto?" {
		t.Fatalf("Greeting = %q", cfg.Greeting)
	}
	if cfg.SessionIdleTTL != 5*time.Minute {
		t.Fatalf("SessionIdleTTL = %v", cfg.SessionIdleTTL)
	}
	if !cfg.DebugEndpoints {
		t.Fatal("DebugEndpoints = false")
	}
}
