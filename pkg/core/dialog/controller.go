// Package dialog orchestrates one conversational turn: resolve the call
// session, append the caller's utterance, generate a reply, synthesize it and
// store the clip. The outcome is protocol-neutral; the gateway layer turns it
// into telephony markup.
package dialog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core/artifact"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core/convo"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core/reply"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core/types"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core/voice/tts"
)

// Outcome is the result of one turn. Either the call continues playing the
// stored clip, or it ends with an apology spoken by the telephony layer's own
// voice (the clip could not be rendered, so there is nothing to play).
type Outcome struct {
	Terminate bool
	AudioID   string // artifact to play when the call continues
	Apology   string // spoken line when the call terminates
}

// Config carries the controller's collaborators and fixed lines.
type Config struct {
	Registry    *convo.Registry
	Replier     reply.Provider
	Synthesizer tts.Provider
	Store       artifact.Store

	Greeting string // opening line for a call's first event, never model-generated
	Fallback string // spoken when reply generation fails; the call continues
	Apology  string // spoken when synthesis or storage fails; the call ends

	Voice  tts.SynthesizeOptions
	Logger *slog.Logger
}

// Controller runs the per-turn state machine. It holds no per-call state of
// its own; everything lives in the registry.
type Controller struct {
	registry *convo.Registry
	replier  reply.Provider
	synth    tts.Provider
	store    artifact.Store
	greeting string
	fallback string
	apology  string
	voice    tts.SynthesizeOptions
	logger   *slog.Logger
}

// NewController validates the configuration and builds a controller.
func NewController(cfg Config) (*Controller, error) {
	switch {
	case cfg.Registry == nil:
		return nil, fmt.Errorf("dialog: registry is required")
	case cfg.Replier == nil:
		return nil, fmt.Errorf("dialog: reply provider is required")
	case cfg.Synthesizer == nil:
		return nil, fmt.Errorf("dialog: tts provider is required")
	case cfg.Store == nil:
		return nil, fmt.Errorf("dialog: artifact store is required")
	case cfg.Greeting == "" || cfg.Fallback == "" || cfg.Apology == "":
		return nil, fmt.Errorf("dialog: greeting, fallback and apology lines are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		registry: cfg.Registry,
		replier:  cfg.Replier,
		synth:    cfg.Synthesizer,
		store:    cfg.Store,
		greeting: cfg.Greeting,
		fallback: cfg.Fallback,
		apology:  cfg.Apology,
		voice:    cfg.Voice,
		logger:   logger,
	}, nil
}

// HandleInbound processes one inbound turn. A nil utterance on a brand-new
// call produces the fixed greeting without consulting the reply backend; the
// greeting is not recorded in history. Reply failures fall back to a fixed
// line and leave history without an assistant turn. Synthesis or storage
// failures end the call.
func (c *Controller) HandleInbound(ctx context.Context, callID string, utterance *string) Outcome {
	log := c.logger.With("call_id", callID)
	sess, created := c.registry.GetOrCreate(callID)

	var line string
	if created && utterance == nil {
		log.Info("call started, speaking greeting")
		line = c.greeting
	} else {
		if utterance != nil {
			// Empty speech is still a turn the caller took.
			if err := c.registry.Append(callID, types.NewTurn(types.RoleUser, *utterance)); err != nil {
				log.Error("append caller turn", "error", err)
			}
		}
		text, err := c.replier.Reply(ctx, sess.History())
		if err != nil {
			log.Error("reply generation failed", "provider", c.replier.Name(), "error", err)
			line = c.fallback
		} else {
			line = text
			if err := c.registry.Append(callID, types.NewTurn(types.RoleAssistant, line)); err != nil {
				log.Error("append assistant turn", "error", err)
			}
		}
	}

	syn, err := c.synth.Synthesize(ctx, line, c.voice)
	if err != nil {
		log.Error("speech synthesis failed", "provider", c.synth.Name(), "error", err)
		return Outcome{Terminate: true, Apology: c.apology}
	}
	art, err := c.store.Put(ctx, syn.Audio, syn.Format)
	if err != nil {
		log.Error("artifact store failed", "error", err)
		return Outcome{Terminate: true, Apology: c.apology}
	}

	sess.SetLastAudioRef(art.ID)
	log.Info("turn completed", "artifact_id", art.ID, "history_len", sess.Len())
	return Outcome{AudioID: art.ID}
}

// HandleCallEnded evicts the call's session. It reports whether a session
// existed; a miss is normal when the status callback outlives an idle sweep.
func (c *Controller) HandleCallEnded(callID string) bool {
	evicted := c.registry.Evict(callID)
	c.logger.Info("call ended", "call_id", callID, "evicted", evicted)
	return evicted
}
