package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/relaycore/dynrelay/internal/logging"
	"github.com/relaycore/dynrelay/internal/relay"
)

type handlers struct {
	lifecycle *relay.Lifecycle
	registry  *relay.Registry
	sweeper   *relay.Sweeper
	log       *logging.Logger
}

func (h *handlers) addStream(w http.ResponseWriter, r *http.Request) {
	var req addStreamRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SourceURL == "" {
		writeError(w, r, relay.UserInput("httpapi.add_stream", "source_url is required", nil), h.log)
		return
	}

	s, err := h.lifecycle.Add(r.Context(), req.Name, req.SourceURL, req.DownScale, req.Expirable)
	if err != nil {
		writeError(w, r, err, h.log)
		return
	}
	writeJSON(w, http.StatusOK, streamToResponse(s))
}

func (h *handlers) putStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req putStreamRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SourceURL == "" {
		writeError(w, r, relay.UserInput("httpapi.put_stream", "source_url is required", nil), h.log)
		return
	}

	s, err := h.lifecycle.PutPermanent(r.Context(), id, req.Name, req.SourceURL, req.DownScale)
	if err != nil {
		writeError(w, r, err, h.log)
		return
	}
	writeJSON(w, http.StatusOK, streamToResponse(s))
}

func (h *handlers) listStreams(w http.ResponseWriter, r *http.Request) {
	streams := h.registry.List()
	out := make([]streamListEntry, 0, len(streams))
	for _, s := range streams {
		out = append(out, streamListEntry{
			ID:             s.ID,
			Name:           s.Name,
			URL:            s.PublicURL,
			AddedAt:        s.AddedAt,
			ExpirationDate: expirationPtr(s),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) removeStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.lifecycle.Remove(r.Context(), id); err != nil {
		writeError(w, r, err, h.log)
		return
	}
	writeJSON(w, http.StatusOK, "Stream Removed")
}

func (h *handlers) sweepStale(w http.ResponseWriter, r *http.Request) {
	h.sweeper.Sweep(r.Context())
	writeJSON(w, http.StatusOK, "Stale streams removed")
}

func streamToResponse(s relay.Stream) streamResponse {
	return streamResponse{
		ID:             s.ID,
		Name:           s.Name,
		URL:            s.PublicURL,
		ExpirationDate: expirationPtr(s),
	}
}

func expirationPtr(s relay.Stream) *time.Time {
	if t, ok := s.Expiration.Time(); ok {
		return &t
	}
	return nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Message: "malformed request body", Details: err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, err error, log *logging.Logger) {
	kind := relay.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case relay.KindUserInput:
		status = http.StatusBadRequest
	case relay.KindNotFound:
		status = http.StatusNotFound
	}

	var relayErr *relay.Error
	message := err.Error()
	if errors.As(err, &relayErr) {
		message = relayErr.Message
	}

	log.WithCorrelationID(r.Context()).WithError(err).WithField("status", status).Error("request failed")
	writeJSON(w, status, errorEnvelope{Message: message})
}
