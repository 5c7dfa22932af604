package model

import "time"

// Reminder holds the firing configuration owned 1:1 by an event.
// If Repeat is true the reminder fires on the weekdays in RepeatDays
// (0=Monday..6=Sunday) and RemindDate is cleared; otherwise it fires once
// on RemindDate. RepeatEvery is stored but advisory: the matcher does not
// consult it. LastReminded suppresses a second firing within the same day.
type Reminder struct {
	ID           string     `json:"id"`
	EventID      string     `json:"event_id"`
	PetID        string     `json:"pet_id"`
	RemindAt     *string    `json:"remind_at"`
	Repeat       bool       `json:"repeat"`
	RepeatDays   []int      `json:"repeat_days"`
	RepeatEvery  int        `json:"repeat_every"`
	RemindDate   *time.Time `json:"remind_date"`
	LastReminded *time.Time `json:"last_reminded"`
}
