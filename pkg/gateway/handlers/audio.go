package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core/artifact"
)

// AudioHandler serves stored clips to the telephony layer when it fetches a
// playback URL.
type AudioHandler struct {
	Store  artifact.Store
	Logger *slog.Logger
}

func (h *AudioHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	rc, art, err := h.Store.Open(r.Context(), id)
	if errors.Is(err, artifact.ErrNotFound) {
		writeErrorJSON(w, r, core.NewNotFoundError("audio artifact not found"), http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("open artifact", "artifact_id", id, "error", err)
		writeErrorJSON(w, r, core.NewAPIError("internal error"), http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", art.ContentType())
	if art.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(art.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.Logger.Warn("stream artifact", "artifact_id", id, "error", err)
	}
}
