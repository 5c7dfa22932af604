package handler

import (
	"net/http"
	"time"

	ical "github.com/arran4/golang-ical"
)

// Calendar handles GET /api/pets/{id}/calendar.ics: the pet's events as an
// iCalendar feed. Events without a time of day become all-day entries.
func (h *EventHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	pet, ok := authorizePet(w, r, h.pets, r.PathValue("id"))
	if !ok {
		return
	}

	events, err := h.events.ListByPet(pet.ID)
	if err != nil {
		h.logger.Error("list events for calendar", "pet_id", pet.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build calendar")
		return
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//pawtrack//calendar//EN")
	cal.SetXWRCalName(pet.Name)

	now := time.Now().UTC()
	for _, e := range events {
		entry := cal.AddEvent(e.ID)
		entry.SetDtStampTime(now)
		entry.SetSummary(e.Title)
		if e.Note != "" {
			entry.SetDescription(e.Note)
		}

		if e.Time == nil {
			entry.SetAllDayStartAt(e.Date)
			entry.SetAllDayEndAt(e.Date.AddDate(0, 0, 1))
			continue
		}

		tod, err := time.Parse("15:04", *e.Time)
		if err != nil {
			entry.SetAllDayStartAt(e.Date)
			entry.SetAllDayEndAt(e.Date.AddDate(0, 0, 1))
			continue
		}
		start := time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(),
			tod.Hour(), tod.Minute(), 0, 0, time.UTC)
		duration := time.Hour
		if e.DurationMinutes != nil && *e.DurationMinutes > 0 {
			duration = time.Duration(*e.DurationMinutes) * time.Minute
		}
		entry.SetStartAt(start)
		entry.SetEndAt(start.Add(duration))
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+pet.ID+`.ics"`)
	if err := cal.SerializeTo(w); err != nil {
		h.logger.Error("serialize calendar", "pet_id", pet.ID, "error", err)
	}
}
