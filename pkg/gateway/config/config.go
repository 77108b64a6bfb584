package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type ReplyBackend string

const (
	ReplyBackendOpenAI ReplyBackend = "openai"
	ReplyBackendGemini ReplyBackend = "gemini"
)

type TTSMode string

const (
	// TTSModeHTTP renders each line with one blocking HTTP request.
	TTSModeHTTP TTSMode = "http"
	// TTSModeStream renders through the stream-input websocket session.
	TTSModeStream TTSMode = "stream"
)

type ArtifactBackend string

const (
	ArtifactBackendFS       ArtifactBackend = "fs"
	ArtifactBackendPostgres ArtifactBackend = "postgres"
)

type Config struct {
	Addr string

	// Externally reachable base address; artifact playback URLs are built
	// by appending /audio/<id> to it.
	PublicBaseURL string

	// Reply generation backend.
	ReplyBackend ReplyBackend
	OpenAIAPIKey string
	OpenAIModel  string
	GeminiAPIKey string
	GeminiModel  string

	// Speech synthesis backend.
	TTSMode          TTSMode
	ElevenLabsAPIKey string
	ElevenLabsModel  string
	VoiceID          string
	VoiceLanguage    string
	VoiceSpeed       float64

	// Fixed conversation lines.
	Persona      string
	Greeting     string
	FallbackLine string
	ApologyLine  string

	// Speech capture window relayed to the telephony layer.
	SpeechTimeout time.Duration
	GatherTimeout time.Duration

	// Artifact storage.
	ArtifactBackend   ArtifactBackend
	ArtifactDir       string
	PostgresDSN       string
	ArtifactRetention time.Duration // 0 disables the retention sweep
	ArtifactSweep     time.Duration // 0 derives from retention

	// Session eviction for calls that never send a completed status.
	SessionIdleTTL time.Duration // 0 disables the idle sweep
	SessionSweep   time.Duration

	// Debug surface (GET /session/<callId>).
	DebugEndpoints bool

	// Operational defaults.
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("BAFFONE_ADDR", ":8080"),
		PublicBaseURL:       envOr("BAFFONE_PUBLIC_BASE_URL", ""),
		ReplyBackend:        ReplyBackend(envOr("BAFFONE_REPLY_BACKEND", string(ReplyBackendOpenAI))),
		OpenAIAPIKey:        envOr("BAFFONE_OPENAI_API_KEY", ""),
		OpenAIModel:         envOr("BAFFONE_OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:        envOr("BAFFONE_GEMINI_API_KEY", ""),
		GeminiModel:         envOr("BAFFONE_GEMINI_MODEL", "gemini-2.0-flash"),
		TTSMode:             TTSMode(envOr("BAFFONE_TTS_MODE", string(TTSModeHTTP))),
		ElevenLabsAPIKey:    envOr("BAFFONE_ELEVENLABS_API_KEY", ""),
		ElevenLabsModel:     envOr("BAFFONE_ELEVENLABS_MODEL", "eleven_flash_v2_5"),
		VoiceID:             envOr("BAFFONE_VOICE_ID", ""),
		VoiceLanguage:       envOr("BAFFONE_VOICE_LANGUAGE", "it"),
		VoiceSpeed:          envFloat64Or("BAFFONE_VOICE_SPEED", 0),
		Persona:             envOr("BAFFONE_PERSONA", "Sei Baffone, l'assistente telefonico del ristorante. Rispondi in modo cordiale e conciso, in italiano."),
		Greeting:            envOr("BAFFONE_GREETING", "Buonasera, ristorante Baffone, come posso aiutarla?"),
		FallbackLine:        envOr("BAFFONE_FALLBACK_LINE", "Non ho capito, può ripetere per favore?"),
		ApologyLine:         envOr("BAFFONE_APOLOGY_LINE", "Mi dispiace, si è verificato un problema. Arrivederci."),
		SpeechTimeout:       envDurationOr("BAFFONE_SPEECH_TIMEOUT", 3*time.Second),
		GatherTimeout:       envDurationOr("BAFFONE_GATHER_TIMEOUT", 10*time.Second),
		ArtifactBackend:     ArtifactBackend(envOr("BAFFONE_ARTIFACT_BACKEND", string(ArtifactBackendFS))),
		ArtifactDir:         envOr("BAFFONE_ARTIFACT_DIR", "./audio-cache"),
		PostgresDSN:         envOr("BAFFONE_POSTGRES_DSN", ""),
		ArtifactRetention:   envDurationOr("BAFFONE_ARTIFACT_RETENTION", 24*time.Hour),
		ArtifactSweep:       envDurationOr("BAFFONE_ARTIFACT_SWEEP_INTERVAL", 0),
		SessionIdleTTL:      envDurationOr("BAFFONE_SESSION_IDLE_TTL", 30*time.Minute),
		SessionSweep:        envDurationOr("BAFFONE_SESSION_SWEEP_INTERVAL", time.Minute),
		DebugEndpoints:      envBoolOr("BAFFONE_DEBUG_ENDPOINTS", false),
		ReadHeaderTimeout:   envDurationOr("BAFFONE_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:         envDurationOr("BAFFONE_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:        envDurationOr("BAFFONE_WRITE_TIMEOUT", 60*time.Second),
		ShutdownGracePeriod: envDurationOr("BAFFONE_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	switch cfg.ReplyBackend {
	case ReplyBackendOpenAI, ReplyBackendGemini:
	default:
		return Config{}, fmt.Errorf("BAFFONE_REPLY_BACKEND must be one of openai|gemini")
	}
	switch cfg.TTSMode {
	case TTSModeHTTP, TTSModeStream:
	default:
		return Config{}, fmt.Errorf("BAFFONE_TTS_MODE must be one of http|stream")
	}
	switch cfg.ArtifactBackend {
	case ArtifactBackendFS, ArtifactBackendPostgres:
	default:
		return Config{}, fmt.Errorf("BAFFONE_ARTIFACT_BACKEND must be one of fs|postgres")
	}

	if cfg.PublicBaseURL == "" {
		return Config{}, fmt.Errorf("BAFFONE_PUBLIC_BASE_URL must be set")
	}
	u, err := url.Parse(cfg.PublicBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, fmt.Errorf("BAFFONE_PUBLIC_BASE_URL must be an absolute URL")
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	if cfg.ReplyBackend == ReplyBackendOpenAI && cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("BAFFONE_OPENAI_API_KEY must be set when BAFFONE_REPLY_BACKEND=openai")
	}
	if cfg.ReplyBackend == ReplyBackendGemini && cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("BAFFONE_GEMINI_API_KEY must be set when BAFFONE_REPLY_BACKEND=gemini")
	}
	if cfg.ElevenLabsAPIKey == "" {
		return Config{}, fmt.Errorf("BAFFONE_ELEVENLABS_API_KEY must be set")
	}
	if cfg.VoiceID == "" {
		return Config{}, fmt.Errorf("BAFFONE_VOICE_ID must be set")
	}
	if cfg.ArtifactBackend == ArtifactBackendPostgres && cfg.PostgresDSN == "" {
		return Config{}, fmt.Errorf("BAFFONE_POSTGRES_DSN must be set when BAFFONE_ARTIFACT_BACKEND=postgres")
	}
	if cfg.Persona == "" || cfg.Greeting == "" || cfg.FallbackLine == "" || cfg.ApologyLine == "" {
		return Config{}, fmt.Errorf("BAFFONE_PERSONA, BAFFONE_GREETING, BAFFONE_FALLBACK_LINE and BAFFONE_APOLOGY_LINE must not be empty")
	}
	if cfg.VoiceSpeed < 0 {
		return Config{}, fmt.Errorf("BAFFONE_VOICE_SPEED must be >= 0")
	}
	if cfg.SpeechTimeout <= 0 {
		return Config{}, fmt.Errorf("BAFFONE_SPEECH_TIMEOUT must be > 0")
	}
	if cfg.GatherTimeout <= 0 {
		return Config{}, fmt.Errorf("BAFFONE_GATHER_TIMEOUT must be > 0")
	}
	if cfg.ArtifactRetention < 0 {
		return Config{}, fmt.Errorf("BAFFONE_ARTIFACT_RETENTION must be >= 0")
	}
	if cfg.ArtifactSweep < 0 {
		return Config{}, fmt.Errorf("BAFFONE_ARTIFACT_SWEEP_INTERVAL must be >= 0")
	}
	if cfg.SessionIdleTTL < 0 {
		return Config{}, fmt.Errorf("BAFFONE_SESSION_IDLE_TTL must be >= 0")
	}
	if cfg.SessionIdleTTL > 0 && cfg.SessionSweep <= 0 {
		return Config{}, fmt.Errorf("BAFFONE_SESSION_SWEEP_INTERVAL must be > 0 when BAFFONE_SESSION_IDLE_TTL is set")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("BAFFONE_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("BAFFONE_READ_TIMEOUT must be > 0")
	}
	if cfg.WriteTimeout <= 0 {
		return Config{}, fmt.Errorf("BAFFONE_WRITE_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("BAFFONE_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

// AudioURL builds the externally reachable playback URL for an artifact.
func (c Config) AudioURL(artifactID string) string {
	return c.PublicBaseURL + "/audio/" + artifactID
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envFloat64Or(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return n
}

func envBoolOr(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
