package api

import (
	"net/http"

	"github.com/bestquark/ml-at-ml-log/internal/domain/model"
	"github.com/bestquark/ml-at-ml-log/pkg/logger"
)

type materialRequest struct {
	Date        string `json:"date" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	FileName    string `json:"file_name" validate:"max=255"`
	Link        string `json:"link" validate:"omitempty,url"`
}

type slideRequest struct {
	PresentationID string `json:"presentation_id" validate:"required"`
	Link           string `json:"link" validate:"required,url"`
}

type materialView struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	FileName    string `json:"file_name,omitempty"`
	Link        string `json:"link,omitempty"`
}

type slideView struct {
	Date           string `json:"date"`
	PresentationID string `json:"presentation_id"`
	Link           string `json:"link"`
}

func viewMaterial(m model.Material) materialView { //nolint:gocritic // small value
	return materialView{
		ID:          m.ID,
		Date:        m.Date.Format(model.DateLayout),
		Title:       m.Title,
		Description: m.Description,
		FileName:    m.FileName,
		Link:        m.Link,
	}
}

// RecordHandler handles materials and slide deck requests.
type RecordHandler struct {
	deps RecordDependencies
	log  logger.Logger
}

// NewRecordHandler creates a new record handler.
func NewRecordHandler(deps RecordDependencies, log logger.Logger) *RecordHandler {
	return &RecordHandler{deps: deps, log: log}
}

// HandleMaterials handles GET /materials?date=, POST /materials and
// DELETE /materials?id= requests.
func (h *RecordHandler) HandleMaterials(w http.ResponseWriter, r *http.Request) {
	const op = "api.materials"
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet:
		date, err := queryDate(r)
		if err != nil {
			fail(ctx, w, h.log, op, err)
			return
		}
		list, err := h.deps.Materials(ctx, date)
		if err != nil {
			fail(ctx, w, h.log, op, err)
			return
		}
		out := make([]materialView, len(list))
		for i := range list {
			out[i] = viewMaterial(list[i])
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req materialRequest
		if err := decode(r, &req, false); err != nil {
			fail(ctx, w, h.log, op, err)
			return
		}
		date, err := model.ParseDate(req.Date)
		if err != nil {
			fail(ctx, w, h.log, op, err)
			return
		}
		m, err := h.deps.AddMaterial(ctx, model.Material{
			Date:        date,
			Title:       req.Title,
			Description: req.Description,
			FileName:    req.FileName,
			Link:        req.Link,
		})
		if err != nil {
			fail(ctx, w, h.log, op, err)
			return
		}
		writeJSON(w, http.StatusCreated, viewMaterial(m))
	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			fail(ctx, w, h.log, op, errMissing("id"))
			return
		}
		if err := h.deps.DeleteMaterial(ctx, id); err != nil {
			fail(ctx, w, h.log, op, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost, http.MethodDelete)
	}
}

// HandleSlides handles GET and PUT /slides?date= requests.
func (h *RecordHandler) HandleSlides(w http.ResponseWriter, r *http.Request) {
	const op = "api.slides"
	ctx := r.Context()
	if r.Method != http.MethodGet && r.Method != http.MethodPut {
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
		return
	}
	date, err := queryDate(r)
	if err != nil {
		fail(ctx, w, h.log, op, err)
		return
	}

	if r.Method == http.MethodGet {
		deck, err := h.deps.SlideDeck(ctx, date)
		if err != nil {
			fail(ctx, w, h.log, op, err)
			return
		}
		writeJSON(w, http.StatusOK, slideView{Date: deck.Date.Format(model.DateLayout), PresentationID: deck.PresentationID, Link: deck.Link})
		return
	}

	var req slideRequest
	if err := decode(r, &req, false); err != nil {
		fail(ctx, w, h.log, op, err)
		return
	}
	deck := model.SlideDeck{Date: date, PresentationID: req.PresentationID, Link: req.Link}
	if err := h.deps.SetSlideDeck(ctx, deck); err != nil {
		fail(ctx, w, h.log, op, err)
		return
	}
	writeJSON(w, http.StatusOK, slideView{Date: date.Format(model.DateLayout), PresentationID: deck.PresentationID, Link: deck.Link})
}
