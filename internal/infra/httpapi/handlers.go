// internal/infra/httpapi/handlers.go
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"menstrual_tracker_daemon/internal/app"
	"menstrual_tracker_daemon/internal/domain/calendar"
	"menstrual_tracker_daemon/internal/domain/cycle"
	"menstrual_tracker_daemon/internal/domain/history"
	"menstrual_tracker_daemon/internal/infra/metrics"
)

// Handler holds the application services the HTTP routes delegate to.
type Handler struct {
	tracker    *app.TrackerService
	historySvc *app.HistoryService
	importSvc  *app.ImportService
	recorder   metrics.Recorder
	logger     *logrus.Entry
}

func NewHandler(
	tracker *app.TrackerService,
	historySvc *app.HistoryService,
	importSvc *app.ImportService,
	recorder metrics.Recorder,
	logger *logrus.Entry,
) *Handler {
	return &Handler{
		tracker:    tracker,
		historySvc: historySvc,
		importSvc:  importSvc,
		recorder:   recorder,
		logger:     logger,
	}
}

// eventPayload is the wire form of an all-day calendar event.
type eventPayload struct {
	Summary string `json:"summary"`
	Start   string `json:"start"`
	End     string `json:"end"`
	AllDay  bool   `json:"all_day"`
}

func toEventPayload(e calendar.Event) eventPayload {
	return eventPayload{
		Summary: e.Summary,
		Start:   cycle.FormatDate(e.Start),
		End:     cycle.FormatDate(e.End),
		AllDay:  true,
	}
}

// loggedEventPayload is the wire form of a stored daily log.
type loggedEventPayload struct {
	ID           string   `json:"id"`
	Day          string   `json:"day"`
	Menstruating bool     `json:"menstruating"`
	Flow         string   `json:"flow"`
	Symptoms     []string `json:"symptoms"`
	CreatedAt    string   `json:"created_at"`
}

func toLoggedEventPayload(l *history.DailyLog) loggedEventPayload {
	return loggedEventPayload{
		ID:           l.ID.String(),
		Day:          cycle.FormatDate(l.Day),
		Menstruating: l.Menstruating,
		Flow:         string(l.Flow),
		Symptoms:     l.Symptoms,
		CreatedAt:    l.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) listStates(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.tracker.States())
}

func (h *Handler) getState(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")
	state, err := h.tracker.StateByID(entityID)
	if err != nil {
		if errors.Is(err, app.ErrUnknownEntity) {
			respondError(w, r, http.StatusNotFound, fmt.Sprintf("unknown entity %q", entityID))
			return
		}
		h.respondInternal(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, state)
}

func (h *Handler) listCalendarEvents(w http.ResponseWriter, r *http.Request) {
	from, ok := h.dateQueryParam(w, r, "start")
	if !ok {
		return
	}
	to, ok := h.dateQueryParam(w, r, "end")
	if !ok {
		return
	}

	events := h.tracker.EventsInRange(from, to)
	payload := make([]eventPayload, 0, len(events))
	for _, e := range events {
		payload = append(payload, toEventPayload(e))
	}
	respondJSON(w, r, http.StatusOK, payload)
}

// dateQueryParam parses an optional YYYY-MM-DD query parameter. A missing
// parameter yields the zero time; a malformed one writes the 400 itself.
func (h *Handler) dateQueryParam(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, true
	}
	day, err := cycle.ParseDate(raw)
	if err != nil {
		respondError(w, r, http.StatusBadRequest,
			fmt.Sprintf("query parameter %q must be a date formatted as YYYY-MM-DD", name))
		return time.Time{}, false
	}
	return day, true
}

type createEventRequest struct {
	Summary string `json:"summary"`
	Start   string `json:"start"`
	End     string `json:"end,omitempty"`
}

func (h *Handler) createCalendarEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if !h.decode(w, r, &req) {
		return
	}
	start, ok := h.dateBodyField(w, r, "start", req.Start)
	if !ok {
		return
	}
	end, ok := h.dateBodyField(w, r, "end", req.End)
	if !ok {
		return
	}

	stored, err := h.historySvc.CreateCalendarEvent(r.Context(), req.Summary, start, end)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	code := http.StatusOK
	if stored {
		code = http.StatusCreated
	}
	respondJSON(w, r, code, map[string]bool{"stored": stored})
}

type recordEventRequest struct {
	Date         string   `json:"date,omitempty"`
	Menstruating bool     `json:"menstruating"`
	Flow         string   `json:"flow,omitempty"`
	Symptoms     []string `json:"symptoms,omitempty"`
}

func (h *Handler) recordEvent(w http.ResponseWriter, r *http.Request) {
	var req recordEventRequest
	if !h.decode(w, r, &req) {
		return
	}
	day, ok := h.dateBodyField(w, r, "date", req.Date)
	if !ok {
		return
	}

	log, err := h.historySvc.RecordEvent(r.Context(), day, req.Menstruating, req.Flow, req.Symptoms)
	h.recorder.IncServiceCall("record_event", err == nil)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, toLoggedEventPayload(log))
}

type deleteEventRequest struct {
	Date         string   `json:"date"`
	Mode         string   `json:"mode,omitempty"`
	Menstruating *bool    `json:"menstruating,omitempty"`
	Flow         *string  `json:"flow,omitempty"`
	Symptoms     []string `json:"symptoms,omitempty"`
}

func (h *Handler) deleteEvent(w http.ResponseWriter, r *http.Request) {
	var req deleteEventRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Date == "" {
		respondError(w, r, http.StatusBadRequest, "a date is required")
		return
	}
	day, ok := h.dateBodyField(w, r, "date", req.Date)
	if !ok {
		return
	}

	filter := history.LogFilter{Menstruating: req.Menstruating, Symptoms: req.Symptoms}
	if req.Flow != nil {
		flow, err := history.ParseFlow(*req.Flow)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		filter.Flow = &flow
	}

	deleted, err := h.historySvc.DeleteEvents(r.Context(), day, req.Mode, filter)
	h.recorder.IncServiceCall("delete_event", err == nil)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]int{"deleted": deleted})
}

func (h *Handler) importHistory(w http.ResponseWriter, r *http.Request) {
	var req app.ImportRequest
	if !h.decode(w, r, &req) {
		return
	}

	summary, err := h.importSvc.Import(r.Context(), req)
	h.recorder.IncServiceCall("import_history", err == nil)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, summary)
}

type exportRequest struct {
	File string `json:"file"`
}

func (h *Handler) exportHistory(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !h.decode(w, r, &req) {
		return
	}

	path, err := h.importSvc.Export(r.Context(), req.File)
	h.recorder.IncServiceCall("export_history", err == nil)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"path": path})
}

type pregnancyModeRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *Handler) setPregnancyMode(w http.ResponseWriter, r *http.Request) {
	var req pregnancyModeRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.tracker.SetPregnancyMode(r.Context(), req.Enabled)
	h.recorder.IncServiceCall("set_pregnancy_mode", err == nil)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]bool{"pregnancy_mode": req.Enabled})
}

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	doc, err := h.importSvc.Document(r.Context())
	if err != nil {
		h.respondInternal(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, doc)
}

// decode reads the JSON request body into dst, answering the 400 itself
// when the body does not parse.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer func() { _ = r.Body.Close() }()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "request body is not valid JSON")
		return false
	}
	return true
}

// dateBodyField parses an optional YYYY-MM-DD body field, leaving the zero
// time for an empty value so the services apply their own defaults.
func (h *Handler) dateBodyField(w http.ResponseWriter, r *http.Request, name, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	day, err := cycle.ParseDate(raw)
	if err != nil {
		respondError(w, r, http.StatusBadRequest,
			fmt.Sprintf("field %q must be a date formatted as YYYY-MM-DD", name))
		return time.Time{}, false
	}
	return day, true
}

// respondServiceError translates the known validation failures into 400s;
// everything else is reported as an internal error.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrMissingStart),
		errors.Is(err, app.ErrEndBeforeStart),
		errors.Is(err, app.ErrInvalidImportJSON),
		errors.Is(err, app.ErrUnsupportedImportJSON),
		errors.Is(err, app.ErrNoValidRecords),
		errors.Is(err, app.ErrImportFileUnreadable),
		errors.Is(err, app.ErrMissingExportFile),
		errors.Is(err, history.ErrUnknownFlow),
		errors.Is(err, history.ErrUnknownMode):
		respondError(w, r, http.StatusBadRequest, err.Error())
	default:
		h.respondInternal(w, r, err)
	}
}

func (h *Handler) respondInternal(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WithError(err).Errorf("Request %s %s failed", r.Method, r.URL.Path)
	respondError(w, r, http.StatusInternalServerError, "internal server error")
}
