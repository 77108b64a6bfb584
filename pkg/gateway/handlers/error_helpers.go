package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/gateway/mw"
)

// errorEnvelope is the JSON error body wrapping a canonical error. The voice
// webhook never uses it; that endpoint always answers with markup.
type errorEnvelope struct {
	Error *core.Error `json:"error"`
}

func writeErrorJSON(w http.ResponseWriter, r *http.Request, coreErr *core.Error, status int) {
	if coreErr.RequestID == "" {
		if reqID, ok := mw.RequestIDFrom(r.Context()); ok {
			coreErr.RequestID = reqID
		}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: coreErr})
}
