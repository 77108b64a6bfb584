package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core/convo"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/gateway/config"
)

// SessionHandler exposes raw session state for debugging. It is only routed
// when debug endpoints are enabled.
type SessionHandler struct {
	Registry *convo.Registry
	Config   config.Config
}

type sessionTurn struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

type sessionResp struct {
	CallID       string        `json:"call_id"`
	LastAudioRef string        `json:"last_audio_ref,omitempty"`
	Turns        []sessionTurn `json:"turns"`
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	callID := r.PathValue("callId")

	sess, ok := h.Registry.Get(callID)
	if !ok {
		writeErrorJSON(w, r, core.NewNotFoundError("unknown call session"), http.StatusNotFound)
		return
	}

	resp := sessionResp{CallID: sess.CallID()}
	if id := sess.LastAudioRef(); id != "" {
		resp.LastAudioRef = h.Config.AudioURL(id)
	}
	for _, turn := range sess.History() {
		resp.Turns = append(resp.Turns, sessionTurn{
			Role: string(turn.Role),
			Text: turn.Text,
			At:   turn.At,
		})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
