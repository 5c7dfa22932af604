package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"pawtrack/internal/model"
	"pawtrack/internal/series"
	"pawtrack/internal/store"
	ws "pawtrack/internal/websocket"
)

type EventHandler struct {
	events    *store.EventStore
	reminders *store.ReminderStore
	pets      *store.PetStore
	manager   *series.Manager
	hub       *ws.Hub
	logger    *slog.Logger
}

func NewEventHandler(events *store.EventStore, reminders *store.ReminderStore, pets *store.PetStore, manager *series.Manager, hub *ws.Hub, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		events:    events,
		reminders: reminders,
		pets:      pets,
		manager:   manager,
		hub:       hub,
		logger:    logger,
	}
}

type reminderRequest struct {
	RemindAt    *string `json:"remind_at"`
	Repeat      bool    `json:"repeat"`
	RepeatDays  []int   `json:"repeat_days"`
	RepeatEvery int     `json:"repeat_every"`
	RemindDate  *string `json:"remind_date"`
}

type eventRequest struct {
	Title           string           `json:"title"`
	Category        string           `json:"category"`
	Date            string           `json:"date"`
	Time            *string          `json:"time"`
	DurationMinutes *int64           `json:"duration_minutes"`
	Note            string           `json:"note"`
	IsYearly        bool             `json:"is_yearly"`
	Reminder        *reminderRequest `json:"reminder"`
}

// toInput validates the request and converts it to the manager's input form.
// A non-empty second return value is the client-facing validation error.
func (req *eventRequest) toInput() (series.EventInput, string) {
	var in series.EventInput

	in.Title = strings.TrimSpace(req.Title)
	if in.Title == "" {
		return in, "title is required"
	}
	if !model.ValidCategory(req.Category) {
		return in, "unknown category"
	}
	in.Category = req.Category

	date, err := parseDate(req.Date)
	if err != nil {
		return in, "date must be YYYY-MM-DD"
	}
	in.Date = date

	if req.Time != nil && *req.Time != "" {
		if !validTimeOfDay(*req.Time) {
			return in, "time must be HH:MM"
		}
		in.Time = req.Time
	}
	in.DurationMinutes = req.DurationMinutes
	in.Note = req.Note
	in.IsYearly = req.IsYearly

	if req.Reminder != nil && req.Reminder.RemindAt != nil {
		if !validTimeOfDay(*req.Reminder.RemindAt) {
			return in, "remind_at must be HH:MM"
		}
		for _, d := range req.Reminder.RepeatDays {
			if d < 0 || d > 6 {
				return in, "repeat_days values must be 0 (Monday) through 6 (Sunday)"
			}
		}

		rin := &series.ReminderInput{
			RemindAt:    req.Reminder.RemindAt,
			Repeat:      req.Reminder.Repeat,
			RepeatDays:  req.Reminder.RepeatDays,
			RepeatEvery: req.Reminder.RepeatEvery,
		}
		if req.Reminder.RemindDate != nil && *req.Reminder.RemindDate != "" {
			rd, err := parseDate(*req.Reminder.RemindDate)
			if err != nil {
				return in, "remind_date must be YYYY-MM-DD"
			}
			rin.RemindDate = &rd
		}
		in.Reminder = rin
	}

	return in, ""
}

// Create handles POST /api/pets/{id}/events. A yearly request creates the
// whole series and reports skipped occurrences as warnings.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	pet, ok := authorizePet(w, r, h.pets, r.PathValue("id"))
	if !ok {
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	in, msg := req.toInput()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if in.IsYearly {
		events, warnings, err := h.manager.CreateSeries(pet.ID, in, time.Now())
		if err != nil {
			h.writeManagerError(w, err, "create series")
			return
		}
		h.broadcast("event", "created", "")
		writeJSON(w, http.StatusCreated, map[string]any{
			"events":   events,
			"warnings": warningsOrEmpty(warnings),
		})
		return
	}

	event, err := h.manager.CreateSingle(pet.ID, in)
	if err != nil {
		h.writeManagerError(w, err, "create event")
		return
	}
	h.broadcast("event", "created", event.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"event": event})
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, ok := h.authorizeEvent(w, r)
	if !ok {
		return
	}

	reminder, err := h.reminders.GetByEvent(event.ID)
	if err != nil {
		h.logger.Error("load reminder", "event_id", event.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load reminder")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": event, "reminder": reminder})
}

// Update handles PUT /api/events/{id}. With ?apply_to_all=true the change is
// propagated to every member of the event's series, each keeping its own year.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	event, ok := h.authorizeEvent(w, r)
	if !ok {
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	in, msg := req.toInput()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	applyToAll := r.URL.Query().Get("apply_to_all") == "true"
	events, warnings, err := h.manager.Edit(event, in, applyToAll, time.Now())
	if err != nil {
		h.writeManagerError(w, err, "edit event")
		return
	}

	h.broadcast("event", "updated", event.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"events":   events,
		"warnings": warningsOrEmpty(warnings),
	})
}

// Done handles POST /api/events/{id}/done, stamping the current year.
func (h *EventHandler) Done(w http.ResponseWriter, r *http.Request) {
	event, ok := h.authorizeEvent(w, r)
	if !ok {
		return
	}

	if err := h.events.MarkDone(event.ID, time.Now().Year()); err != nil {
		h.logger.Error("mark event done", "event_id", event.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to mark event done")
		return
	}

	h.broadcast("event", "updated", event.ID)
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/events/{id}. Deleting the first event of a
// series with later occurrences requires ?delete_all=true.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	event, ok := h.authorizeEvent(w, r)
	if !ok {
		return
	}

	deleteAll := r.URL.Query().Get("delete_all") == "true"
	if err := h.manager.Delete(event, deleteAll); err != nil {
		h.writeManagerError(w, err, "delete event")
		return
	}

	h.broadcast("event", "deleted", event.ID)
	w.WriteHeader(http.StatusNoContent)
}

// ListByPet handles GET /api/pets/{id}/events.
func (h *EventHandler) ListByPet(w http.ResponseWriter, r *http.Request) {
	pet, ok := authorizePet(w, r, h.pets, r.PathValue("id"))
	if !ok {
		return
	}

	events, err := h.events.ListByPet(pet.ID)
	if err != nil {
		h.logger.Error("list events", "pet_id", pet.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// authorizeEvent loads the event from the path and checks pet ownership.
func (h *EventHandler) authorizeEvent(w http.ResponseWriter, r *http.Request) (*model.Event, bool) {
	event, err := h.events.GetByID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load event")
		return nil, false
	}
	if event == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return nil, false
	}

	if _, ok := authorizePet(w, r, h.pets, event.PetID); !ok {
		return nil, false
	}
	return event, true
}

func (h *EventHandler) writeManagerError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, series.ErrDuplicateEvent),
		errors.Is(err, series.ErrDuplicateSeries),
		errors.Is(err, series.ErrSeriesAnchor):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, series.ErrYearlyFeb29):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+op)
	}
}

func (h *EventHandler) broadcast(entity, action, id string) {
	if h.hub != nil {
		h.hub.Broadcast(ws.NewMessage(entity, action, id, nil))
	}
}

func warningsOrEmpty(w []string) []string {
	if w == nil {
		return []string{}
	}
	return w
}
