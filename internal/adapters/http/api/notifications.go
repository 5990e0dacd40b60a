package api

import (
	"net/http"

	"github.com/bestquark/ml-at-ml-log/pkg/logger"
)

// NotificationHandler handles confirmation mail requests and link replies.
type NotificationHandler struct {
	deps NotificationDependencies
	log  logger.Logger
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(deps NotificationDependencies, log logger.Logger) *NotificationHandler {
	return &NotificationHandler{deps: deps, log: log}
}

// HandleSendConfirmations handles POST /notifications/confirmations requests.
func (h *NotificationHandler) HandleSendConfirmations(w http.ResponseWriter, r *http.Request) {
	const op = "api.send_confirmations"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	report, err := h.deps.SendConfirmations(r.Context())
	if err != nil {
		fail(r.Context(), w, h.log, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, report)
}

// HandleConfirm handles GET /confirm?token= requests from confirmation links.
func (h *NotificationHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	const op = "api.confirm"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	raw := r.URL.Query().Get("token")
	if raw == "" {
		fail(r.Context(), w, h.log, op, errMissing("token"))
		return
	}
	slot, err := h.deps.ConfirmByToken(r.Context(), raw)
	if err != nil {
		fail(r.Context(), w, h.log, op, err)
		return
	}
	writeJSON(w, http.StatusOK, viewSlot(slot))
}
