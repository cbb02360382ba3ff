package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mvallejoc/eventum/internal/clock"
	"github.com/mvallejoc/eventum/internal/engine"
	"github.com/mvallejoc/eventum/internal/ics"
	"github.com/mvallejoc/eventum/internal/metrics"
	"github.com/mvallejoc/eventum/internal/session"
	"github.com/mvallejoc/eventum/internal/snapshot"
	"github.com/mvallejoc/eventum/internal/timegrid"
)

// Catalogs provides the selectable option lists, with fallback behavior
// hidden behind the interface.
type Catalogs interface {
	FetchResources(ctx context.Context) ([]string, bool)
	FetchFaculties(ctx context.Context) ([]string, bool)
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng      *engine.Engine
	sessions *session.Manager
	snap     *snapshot.Store
	catalogs Catalogs
}

// New creates the router with all routes registered.
func New(eng *engine.Engine, sessions *session.Manager, snap *snapshot.Store, catalogs Catalogs) http.Handler {
	h := &Handler{eng: eng, sessions: sessions, snap: snap, catalogs: catalogs}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/calendar/{year}/{month}", h.monthGrid)
		r.Get("/calendar/{year}/{month}/ics", h.monthICS)
		r.Post("/conflicts/check", h.checkConflicts)
		r.Post("/clock/angle", h.clockAngle)

		r.Get("/catalogs/resources", h.resourceCatalog)
		r.Get("/catalogs/faculties", h.facultyCatalog)

		r.Route("/forms", func(r chi.Router) {
			r.Post("/", h.createForm)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getForm)
				r.Delete("/", h.deleteForm)
				r.Patch("/fields", h.patchFields)
				r.Post("/lists/{list}/rows", h.addRow)
				r.Patch("/lists/{list}/rows/{key}", h.updateRow)
				r.Delete("/lists/{list}/rows/{key}", h.removeRow)
				r.Get("/budget", h.budget)
				r.Post("/clock-drag", h.clockDrag)
				r.Post("/advance", h.advance)
				r.Post("/retreat", h.retreat)
				r.Post("/submit", h.submit)
			})
		})
	})

	return r
}

// GET /healthz always returns 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz returns 503 if the submission queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}

func monthAnchor(r *http.Request) (time.Time, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1 {
		return time.Time{}, fmt.Errorf("invalid year %q", chi.URLParam(r, "year"))
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid month %q", chi.URLParam(r, "month"))
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}

// GET /v1/calendar/{year}/{month}: the 42-cell grid with event buckets.
func (h *Handler) monthGrid(w http.ResponseWriter, r *http.Request) {
	anchor, err := monthAnchor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	events, known := h.snap.Events()
	cells := timegrid.AnnotateGrid(timegrid.BuildMonthGrid(anchor), events)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"year":           anchor.Year(),
		"month":          int(anchor.Month()),
		"snapshot_known": known,
		"cells":          cells,
	})
}

// GET /v1/calendar/{year}/{month}/ics: iCalendar export of the month.
func (h *Handler) monthICS(w http.ResponseWriter, r *http.Request) {
	anchor, err := monthAnchor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	events, _ := h.snap.Events()
	prefix := anchor.Format("2006-01")
	filtered := events[:0:0]
	for _, ev := range events {
		if len(ev.Date) >= 7 && ev.Date[:7] == prefix {
			filtered = append(filtered, ev)
		}
	}
	body, err := ics.Export(filtered)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type conflictCheckRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// POST /v1/conflicts/check: candidate date/time against the snapshot.
func (h *Handler) checkConflicts(w http.ResponseWriter, r *http.Request) {
	var req conflictCheckRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	t, err := clock.Parse(req.Time)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rep := h.eng.CheckConflicts(timegrid.Candidate{Date: req.Date, Time: t})
	writeJSON(w, http.StatusOK, rep)
}

type clockAngleRequest struct {
	Angle   float64 `json:"angle"`
	Hand    string  `json:"hand"`
	Current string  `json:"current"` // HH:mm, defaults to midnight
}

// POST /v1/clock/angle: stateless angle-to-time helper.
func (h *Handler) clockAngle(w http.ResponseWriter, r *http.Request) {
	var req clockAngleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	hand := clock.Hand(req.Hand)
	if hand != clock.HandHour && hand != clock.HandMinute {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid hand %q", req.Hand))
		return
	}
	current := clock.TimeOfDay{}
	if req.Current != "" {
		var err error
		if current, err = clock.Parse(req.Current); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	t := clock.Apply(current, hand, req.Angle)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"time":   t.String(),
		"hour12": t.Hour12(),
		"period": t.Period(),
		"angles": clock.Angles(t),
	})
}

func (h *Handler) catalogResponse(w http.ResponseWriter, items []string, live bool) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"live":  live, // false means the hardcoded fallback catalog
	})
}

// GET /v1/catalogs/resources
func (h *Handler) resourceCatalog(w http.ResponseWriter, r *http.Request) {
	items, live := h.catalogs.FetchResources(r.Context())
	h.catalogResponse(w, items, live)
}

// GET /v1/catalogs/faculties
func (h *Handler) facultyCatalog(w http.ResponseWriter, r *http.Request) {
	items, live := h.catalogs.FetchFaculties(r.Context())
	h.catalogResponse(w, items, live)
}

func (h *Handler) sessionOr404(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	s, ok := h.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("form session %s not found", id))
		return nil, false
	}
	return s, true
}

// POST /v1/forms opens a new form session.
func (h *Handler) createForm(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

// GET /v1/forms/{id}
func (h *Handler) getForm(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionOr404(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// DELETE /v1/forms/{id}
func (h *Handler) deleteForm(w http.ResponseWriter, r *http.Request) {
	h.sessions.Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

type patchFieldsRequest struct {
	Fields  map[string]string   `json:"fields"`
	Lists   map[string][]string `json:"lists"`
	TypeIDs *[]int              `json:"type_ids"`
}

// PATCH /v1/forms/{id}/fields: scalar fields, string lists, type IDs.
// The patch is atomic: one bad name or value rejects the whole request.
func (h *Handler) patchFields(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionOr404(w, r)
	if !ok {
		return
	}
	var req patchFieldsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if err := s.ApplyPatch(req.Fields, req.Lists, req.TypeIDs); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

type addRowRequest struct {
	Data json.RawMessage `json:"data"`
}

// POST /v1/forms/{id}/lists/{list}/rows
func (h *Handler) addRow(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionOr404(w, r)
	if !ok {
		return
	}
	var req addRowRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	key, err := s.AddRow(chi.URLParam(r, "list"), req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

// PATCH /v1/forms/{id}/lists/{list}/rows/{key}
func (h *Handler) updateRow(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionOr404(w, r)
	if !ok {
		return
	}
	var req addRowRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if err := s.UpdateRow(chi.URLParam(r, "list"), chi.URLParam(r, "key"), req.Data); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// DELETE /v1/forms/{id}/lists/{list}/rows/{key}
func (h *Handler) removeRow(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionOr404(w, r)
	if !ok {
		return
	}
	if err := s.RemoveRow(chi.URLParam(r, "list"), chi.URLParam(r, "key")); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// GET /v1/forms/{id}/budget: derived totals only, never stored.
func (h *Handler) budget(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionOr404(w, r)
	if !ok {
		return
	}
	v := s.Snapshot()
	writeJSON(w, http.StatusOK, map[string]float64{
		"total_ingresos": v.TotalIngresos,
		"total_egresos":  v.TotalEgresos,
		"balance":        v.Balance,
	})
}

type clockDragRequest struct {
	Hand   string  `json:"hand"`
	Angle  float64 `json:"angle"`
	Done   bool    `json:"done"`   // pointer released: flush the throttle
	Period string  `json:"period"` // optional AM/PM toggle
}

// POST /v1/forms/{id}/clock-drag: throttled angle stream for the picker.
func (h *Handler) clockDrag(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionOr404(w, r)
	if !ok {
		return
	}
	var req clockDragRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.Period != "" {
		p := clock.Period(req.Period)
		if p != clock.AM && p != clock.PM {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid period %q", req.Period))
			return
		}
		s.SetPeriod(p)
	}
	if req.Hand != "" {
		hand := clock.Hand(req.Hand)
		if hand != clock.HandHour && hand != clock.HandMinute {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid hand %q", req.Hand))
			return
		}
		s.DragClock(hand, req.Angle)
	}
	if req.Done {
		s.EndDrag()
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"accepted": true})
}

// POST /v1/forms/{id}/advance
func (h *Handler) advance(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionOr404(w, r)
	if !ok {
		return
	}
	step, errs, moved := s.Advance()
	status := http.StatusOK
	if !moved {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]interface{}{
		"step":      step,
		"step_name": step.String(),
		"advanced":  moved,
		"errors":    errs,
	})
}

// POST /v1/forms/{id}/retreat
func (h *Handler) retreat(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionOr404(w, r)
	if !ok {
		return
	}
	step := s.Retreat()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"step":      step,
		"step_name": step.String(),
	})
}

// POST /v1/forms/{id}/submit runs the full pipeline.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionOr404(w, r)
	if !ok {
		return
	}
	res, err := h.eng.SubmitSync(r.Context(), s)
	if err != nil {
		if errors.Is(err, engine.ErrQueueFull) {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}
		writeError(w, http.StatusGatewayTimeout, err.Error())
		return
	}
	status := http.StatusOK
	if !res.Accepted {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}
