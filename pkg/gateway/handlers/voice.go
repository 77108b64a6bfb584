// Package handlers holds the HTTP surface: the voice webhook, the call status
// callback, artifact playback and the health endpoints.
package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core/dialog"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/gateway/config"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/gateway/twiml"
)

// VoiceHandler serves the per-turn webhook. Whatever happens, the response is
// a well-formed markup document: an empty or broken body leaves the caller
// with dead air.
type VoiceHandler struct {
	Controller *dialog.Controller
	Config     config.Config
	Logger     *slog.Logger
}

func (h *VoiceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if v := recover(); v != nil {
			h.Logger.Error("voice webhook panic", "panic", v)
			writeTwiML(w, twiml.Terminate(h.Config.ApologyLine, langTag(h.Config.VoiceLanguage)), h.Logger)
		}
	}()

	if err := r.ParseForm(); err != nil {
		h.Logger.Warn("unparseable webhook form", "error", err)
	}

	callID := strings.TrimSpace(r.PostFormValue("CallSid"))
	if callID == "" {
		// Never drop an active call over a missing identifier.
		callID = "fallback-" + uuid.NewString()
		h.Logger.Warn("webhook without call identifier, generated fallback", "call_id", callID)
	}

	var utterance *string
	if _, present := r.PostForm["SpeechResult"]; present {
		v := r.PostFormValue("SpeechResult")
		utterance = &v
	}

	out := h.Controller.HandleInbound(r.Context(), callID, utterance)

	var doc twiml.Response
	if out.Terminate {
		doc = twiml.Terminate(out.Apology, langTag(h.Config.VoiceLanguage))
	} else {
		doc = twiml.Continue(h.Config.AudioURL(out.AudioID), twiml.CaptureOptions{
			Action:        h.Config.PublicBaseURL + "/voice",
			Language:      langTag(h.Config.VoiceLanguage),
			SpeechTimeout: h.Config.SpeechTimeout,
			Timeout:       h.Config.GatherTimeout,
		})
	}
	writeTwiML(w, doc, h.Logger)
}

func writeTwiML(w http.ResponseWriter, doc twiml.Response, logger *slog.Logger) {
	body, err := doc.Render()
	if err != nil {
		if logger != nil {
			logger.Error("render markup", "error", err)
		}
		body = []byte(`<?xml version="1.0" encoding="UTF-8"?><Response><Hangup/></Response>`)
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// langTag widens a bare language code to the region tag the telephony markup
// expects. Unknown codes pass through unchanged.
func langTag(lang string) string {
	if strings.Contains(lang, "-") {
		return lang
	}
	switch lang {
	case "it":
		return "it-IT"
	case "en":
		return "en-US"
	case "fr":
		return "fr-FR"
	case "de":
		return "de-DE"
	case "es":
		return "es-ES"
	}
	return lang
}
