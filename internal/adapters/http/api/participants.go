package api

import (
	"net/http"

	"github.com/bestquark/ml-at-ml-log/internal/domain/model"
	"github.com/bestquark/ml-at-ml-log/pkg/logger"
)

// ParticipantHandler handles roster and usage requests.
type ParticipantHandler struct {
	deps ParticipantDependencies
	log  logger.Logger
}

// NewParticipantHandler creates a new participant handler.
func NewParticipantHandler(deps ParticipantDependencies, log logger.Logger) *ParticipantHandler {
	return &ParticipantHandler{deps: deps, log: log}
}

// HandleParticipants handles GET, POST and DELETE /participants requests.
func (h *ParticipantHandler) HandleParticipants(w http.ResponseWriter, r *http.Request) {
	const op = "api.participants"
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet:
		roster, err := h.deps.Roster(ctx)
		if err != nil {
			fail(ctx, w, h.log, op, err)
			return
		}
		if roster == nil {
			roster = []model.Participant{}
		}
		writeJSON(w, http.StatusOK, roster)
	case http.MethodPost:
		var p model.Participant
		if err := decode(r, &p, false); err != nil {
			fail(ctx, w, h.log, op, err)
			return
		}
		if err := h.deps.AddParticipant(ctx, p); err != nil {
			fail(ctx, w, h.log, op, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	case http.MethodDelete:
		name := r.URL.Query().Get("name")
		if name == "" {
			fail(ctx, w, h.log, op, errMissing("name"))
			return
		}
		if err := h.deps.RemoveParticipant(ctx, name); err != nil {
			fail(ctx, w, h.log, op, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost, http.MethodDelete)
	}
}

// HandleUsage handles GET /usage?q= requests.
func (h *ParticipantHandler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	const op = "api.usage"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	entries, err := h.deps.Usage(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		fail(r.Context(), w, h.log, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
