package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core/dialog"
)

// Terminal call statuses reported by the telephony layer's status callback.
var terminalCallStatuses = map[string]bool{
	"completed": true,
	"busy":      true,
	"failed":    true,
	"no-answer": true,
	"canceled":  true,
}

// StatusHandler receives call lifecycle callbacks and evicts the session once
// the call is over, so finished conversations do not accumulate in memory.
type StatusHandler struct {
	Controller *dialog.Controller
	Logger     *slog.Logger
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.Logger.Warn("unparseable status form", "error", err)
		writeErrorJSON(w, r, core.NewInvalidRequestError("unparseable form body"), http.StatusBadRequest)
		return
	}
	callID := strings.TrimSpace(r.PostFormValue("CallSid"))
	status := strings.TrimSpace(r.PostFormValue("CallStatus"))
	if callID == "" {
		writeErrorJSON(w, r, core.NewInvalidRequestErrorWithParam("CallSid is required", "CallSid"), http.StatusBadRequest)
		return
	}

	if terminalCallStatuses[status] {
		h.Controller.HandleCallEnded(callID)
	}
	w.WriteHeader(http.StatusNoContent)
}
