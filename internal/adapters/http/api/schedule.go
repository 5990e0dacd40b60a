package api

import (
	"net/http"

	service "github.com/bestquark/ml-at-ml-log/internal/app"
	"github.com/bestquark/ml-at-ml-log/internal/adapters/repository"
	"github.com/bestquark/ml-at-ml-log/internal/domain/model"
	"github.com/bestquark/ml-at-ml-log/pkg/logger"
)

// slotView is the wire form of a slot: presenter fields in their text form.
type slotView struct {
	Date       string                          `json:"date"`
	Presenters [model.PresentersPerSlot]string `json:"presenters"`
}

type scheduleResponse struct {
	Version repository.Version `json:"version"`
	Slots   []slotView         `json:"slots"`
}

type assignRequest struct {
	Seed *int64 `json:"seed"`
}

type assignResponse struct {
	service.AssignResult
	Slots []slotView `json:"slots"`
}

type extendRequest struct {
	Weeks int `json:"weeks" validate:"min=0,max=52"`
}

type slotRequest struct {
	Date     string `json:"date" validate:"required"`
	Position int    `json:"position" validate:"required,oneof=1 2"`
	Action   string `json:"action" validate:"required,oneof=confirm reschedule cancel clear"`
}

func viewSlot(s model.Slot) slotView { //nolint:gocritic // small value
	v := slotView{Date: s.Key()}
	for i, p := range s.Presenters {
		v.Presenters[i] = p.String()
	}
	return v
}

func viewSchedule(s model.Schedule) []slotView {
	out := make([]slotView, len(s))
	for i := range s {
		out[i] = viewSlot(s[i])
	}
	return out
}

// ScheduleHandler handles schedule requests.
type ScheduleHandler struct {
	deps ScheduleDependencies
	log  logger.Logger
}

// NewScheduleHandler creates a new schedule handler.
func NewScheduleHandler(deps ScheduleDependencies, log logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{deps: deps, log: log}
}

// HandleGetSchedule handles GET /schedule requests.
func (h *ScheduleHandler) HandleGetSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_schedule"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	sched, version, err := h.deps.Schedule(r.Context())
	if err != nil {
		fail(r.Context(), w, h.log, op, err)
		return
	}
	writeJSON(w, http.StatusOK, scheduleResponse{Version: version, Slots: viewSchedule(sched)})
}

// HandleAssign handles POST /schedule/assign requests.
func (h *ScheduleHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	const op = "api.assign"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req assignRequest
	if err := decode(r, &req, true); err != nil {
		fail(r.Context(), w, h.log, op, err)
		return
	}
	seed := h.deps.DefaultSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}
	res, err := h.deps.Assign(r.Context(), seed)
	if err != nil {
		fail(r.Context(), w, h.log, op, err)
		return
	}
	writeJSON(w, http.StatusOK, assignResponse{AssignResult: res, Slots: viewSchedule(res.Schedule)})
}

// HandleExtend handles POST /schedule/extend requests.
func (h *ScheduleHandler) HandleExtend(w http.ResponseWriter, r *http.Request) {
	const op = "api.extend"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req extendRequest
	if err := decode(r, &req, true); err != nil {
		fail(r.Context(), w, h.log, op, err)
		return
	}
	sched, err := h.deps.Extend(r.Context(), req.Weeks)
	if err != nil {
		fail(r.Context(), w, h.log, op, err)
		return
	}
	writeJSON(w, http.StatusOK, scheduleResponse{Slots: viewSchedule(sched)})
}

// HandleSlot handles POST /schedule/slot (status transition) and
// DELETE /schedule/slot?date= requests.
func (h *ScheduleHandler) HandleSlot(w http.ResponseWriter, r *http.Request) {
	const op = "api.slot"
	switch r.Method {
	case http.MethodPost:
		var req slotRequest
		if err := decode(r, &req, false); err != nil {
			fail(r.Context(), w, h.log, op, err)
			return
		}
		date, err := model.ParseDate(req.Date)
		if err != nil {
			fail(r.Context(), w, h.log, op, err)
			return
		}
		slot, err := h.deps.UpdateSlot(r.Context(), date, req.Position, service.Action(req.Action))
		if err != nil {
			fail(r.Context(), w, h.log, op, err)
			return
		}
		writeJSON(w, http.StatusOK, viewSlot(slot))
	case http.MethodDelete:
		date, err := queryDate(r)
		if err != nil {
			fail(r.Context(), w, h.log, op, err)
			return
		}
		if err := h.deps.DeleteSlot(r.Context(), date); err != nil {
			fail(r.Context(), w, h.log, op, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, http.MethodPost, http.MethodDelete)
	}
}
