package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core/artifact"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core/convo"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core/dialog"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core/reply"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core/voice/tts"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/gateway/config"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/gateway/handlers"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/gateway/mw"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	registry   *convo.Registry
	controller *dialog.Controller
	store      artifact.Store
}

// New wires the configured backends into a ready-to-serve gateway.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	replier, err := newReplier(ctx, cfg)
	if err != nil {
		return nil, err
	}

	synth, err := newSynthesizer(cfg)
	if err != nil {
		return nil, err
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	registry := convo.NewRegistry(cfg.Persona)
	controller, err := dialog.NewController(dialog.Config{
		Registry:    registry,
		Replier:     replier,
		Synthesizer: synth,
		Store:       store,
		Greeting:    cfg.Greeting,
		Fallback:    cfg.FallbackLine,
		Apology:     cfg.ApologyLine,
		Voice: tts.SynthesizeOptions{
			Voice:    cfg.VoiceID,
			Language: cfg.VoiceLanguage,
			Format:   "mp3",
			Speed:    cfg.VoiceSpeed,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	return newServer(cfg, logger, controller, registry, store), nil
}

// newServer finishes assembly from prebuilt components; tests use it to
// substitute fakes.
func newServer(cfg config.Config, logger *slog.Logger, controller *dialog.Controller, registry *convo.Registry, store artifact.Store) *Server {
	s := &Server{
		cfg:        cfg,
		logger:     logger,
		mux:        http.NewServeMux(),
		registry:   registry,
		controller: controller,
		store:      store,
	}
	s.routes()
	return s
}

func newReplier(ctx context.Context, cfg config.Config) (reply.Provider, error) {
	switch cfg.ReplyBackend {
	case config.ReplyBackendOpenAI:
		return reply.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	case config.ReplyBackendGemini:
		p, err := reply.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("gemini provider: %w", err)
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown reply backend %q", cfg.ReplyBackend)
}

func newSynthesizer(cfg config.Config) (tts.Provider, error) {
	el := tts.NewElevenLabs(cfg.ElevenLabsAPIKey,
		tts.WithElevenLabsModel(cfg.ElevenLabsModel),
	)
	switch cfg.TTSMode {
	case config.TTSModeHTTP:
		return el, nil
	case config.TTSModeStream:
		return tts.NewStreamer(el), nil
	}
	return nil, fmt.Errorf("unknown tts mode %q", cfg.TTSMode)
}

func newStore(ctx context.Context, cfg config.Config) (artifact.Store, error) {
	switch cfg.ArtifactBackend {
	case config.ArtifactBackendFS:
		store, err := artifact.NewFS(cfg.ArtifactDir)
		if err != nil {
			return nil, fmt.Errorf("artifact store: %w", err)
		}
		return store, nil
	case config.ArtifactBackendPostgres:
		store, err := artifact.NewPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("artifact store: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown artifact backend %q", cfg.ArtifactBackend)
}

func (s *Server) routes() {
	s.mux.Handle("GET /healthz", handlers.HealthHandler{})
	s.mux.Handle("GET /readyz", handlers.ReadyHandler{Config: s.cfg})

	s.mux.Handle("POST /voice", &handlers.VoiceHandler{
		Controller: s.controller,
		Config:     s.cfg,
		Logger:     s.logger,
	})
	s.mux.Handle("POST /voice/status", &handlers.StatusHandler{
		Controller: s.controller,
		Logger:     s.logger,
	})
	s.mux.Handle("GET /audio/{id}", &handlers.AudioHandler{
		Store:  s.store,
		Logger: s.logger,
	})

	if s.cfg.DebugEndpoints {
		s.mux.Handle("GET /session/{callId}", &handlers.SessionHandler{
			Registry: s.registry,
			Config:   s.cfg,
		})
	}
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}

// StartBackground launches the artifact retention sweep and the idle-session
// sweep. Both stop when the context is cancelled.
func (s *Server) StartBackground(ctx context.Context) {
	if s.cfg.ArtifactRetention > 0 {
		janitor := artifact.NewJanitor(s.store, s.cfg.ArtifactRetention, s.cfg.ArtifactSweep, s.logger)
		go janitor.Run(ctx)
	}
	if s.cfg.SessionIdleTTL > 0 {
		go s.sweepIdleSessions(ctx)
	}
}

// Close releases store resources (the Postgres pool, when configured).
func (s *Server) Close() {
	if c, ok := s.store.(interface{ Close() }); ok {
		c.Close()
	}
}

func (s *Server) sweepIdleSessions(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SessionSweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := s.registry.EvictIdle(s.cfg.SessionIdleTTL); evicted > 0 {
				s.logger.Info("idle sessions evicted", "count", evicted)
			}
		}
	}
}
