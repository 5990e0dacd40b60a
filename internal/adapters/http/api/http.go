// Package api exposes the rotation service over JSON HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	service "github.com/bestquark/ml-at-ml-log/internal/app"
	"github.com/bestquark/ml-at-ml-log/internal/adapters/repository"
	"github.com/bestquark/ml-at-ml-log/internal/domain/model"
	"github.com/bestquark/ml-at-ml-log/internal/domain/usage"
	"github.com/bestquark/ml-at-ml-log/pkg/logger"
)

// ScheduleDependencies covers schedule reads, assignment and edits.
type ScheduleDependencies interface {
	Schedule(ctx context.Context) (model.Schedule, repository.Version, error)
	Assign(ctx context.Context, seed int64) (service.AssignResult, error)
	DefaultSeed() int64
	Extend(ctx context.Context, weeks int) (model.Schedule, error)
	UpdateSlot(ctx context.Context, date time.Time, position int, action service.Action) (model.Slot, error)
	DeleteSlot(ctx context.Context, date time.Time) error
}

// ParticipantDependencies covers the roster and the usage report.
type ParticipantDependencies interface {
	Roster(ctx context.Context) ([]model.Participant, error)
	AddParticipant(ctx context.Context, p model.Participant) error
	RemoveParticipant(ctx context.Context, name string) error
	Usage(ctx context.Context, filter string) ([]usage.Entry, error)
}

// NotificationDependencies covers confirmation requests and replies.
type NotificationDependencies interface {
	SendConfirmations(ctx context.Context) (service.ConfirmationReport, error)
	ConfirmByToken(ctx context.Context, raw string) (model.Slot, error)
}

// RecordDependencies covers meeting materials and slide decks.
type RecordDependencies interface {
	Materials(ctx context.Context, date time.Time) ([]model.Material, error)
	AddMaterial(ctx context.Context, m model.Material) (model.Material, error)
	DeleteMaterial(ctx context.Context, id string) error
	SlideDeck(ctx context.Context, date time.Time) (model.SlideDeck, error)
	SetSlideDeck(ctx context.Context, deck model.SlideDeck) error
}

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	ScheduleDependencies
	ParticipantDependencies
	NotificationDependencies
	RecordDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	scheduleHandler     *ScheduleHandler
	participantHandler  *ParticipantHandler
	notificationHandler *NotificationHandler
	recordHandler       *RecordHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		healthHandler:       NewHealthHandler(nil),
		statsHandler:        NewStatsHandler(deps),
		scheduleHandler:     NewScheduleHandler(deps, log),
		participantHandler:  NewParticipantHandler(deps, log),
		notificationHandler: NewNotificationHandler(deps, log),
		recordHandler:       NewRecordHandler(deps, log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("/schedule", MetricsMiddleware(s.scheduleHandler.HandleGetSchedule, "schedule"))
	mux.HandleFunc("/schedule/assign", MetricsMiddleware(s.scheduleHandler.HandleAssign, "schedule_assign"))
	mux.HandleFunc("/schedule/extend", MetricsMiddleware(s.scheduleHandler.HandleExtend, "schedule_extend"))
	mux.HandleFunc("/schedule/slot", MetricsMiddleware(s.scheduleHandler.HandleSlot, "schedule_slot"))

	mux.HandleFunc("/participants", MetricsMiddleware(s.participantHandler.HandleParticipants, "participants"))
	mux.HandleFunc("/usage", MetricsMiddleware(s.participantHandler.HandleUsage, "usage"))

	mux.HandleFunc("/notifications/confirmations", MetricsMiddleware(s.notificationHandler.HandleSendConfirmations, "confirmations"))
	mux.HandleFunc("/confirm", MetricsMiddleware(s.notificationHandler.HandleConfirm, "confirm"))

	mux.HandleFunc("/materials", MetricsMiddleware(s.recordHandler.HandleMaterials, "materials"))
	mux.HandleFunc("/slides", MetricsMiddleware(s.recordHandler.HandleSlides, "slides"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail writes err with the status its kind maps to. Server errors are logged.
func fail(ctx context.Context, w http.ResponseWriter, log logger.Logger, op string, err error) {
	status, code := classify(err)
	if status >= statusInternalError {
		log.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
	}
	writeError(w, status, code, err)
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	for _, m := range allowed {
		w.Header().Add("Allow", m)
	}
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
}

// queryDate parses the date query parameter.
func queryDate(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Time{}, errMissing("date")
	}
	return model.ParseDate(raw)
}

func errMissing(param string) error {
	return fmt.Errorf("%w: missing %s parameter", ErrBadRequest, param)
}
