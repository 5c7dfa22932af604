package model

import "time"

// Event categories. Birthday events are special-cased by the series manager:
// they are keyed by pet rather than by title.
const (
	CategoryWalk     = "walk"
	CategoryVet      = "vet"
	CategoryGrooming = "grooming"
	CategoryVaccine  = "vaccine"
	CategoryPill     = "pill"
	CategoryBirthday = "birthday"
)

var Categories = []string{
	CategoryWalk,
	CategoryVet,
	CategoryGrooming,
	CategoryVaccine,
	CategoryPill,
	CategoryBirthday,
}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Event is a single calendar occurrence. A yearly series is one anchor event
// (SeriesID nil) plus successor events whose SeriesID points at the anchor.
// The (PetID, Title, Date) triple is unique.
type Event struct {
	ID              string    `json:"id"`
	PetID           string    `json:"pet_id"`
	Title           string    `json:"title"`
	Category        string    `json:"category"`
	Date            time.Time `json:"date"`
	Time            *string   `json:"time"`
	DurationMinutes *int64    `json:"duration_minutes"`
	IsDone          bool      `json:"is_done"`
	DoneYear        *int      `json:"done_year"`
	Note            string    `json:"note"`
	IsYearly        bool      `json:"is_yearly"`
	SeriesID        *string   `json:"series_id"`
	IsEventPassed   bool      `json:"is_event_passed"`
	CreatedAt       time.Time `json:"created_at"`
}

// AnchorID returns the id of the series anchor this event belongs to:
// the event's own id if it is the anchor, otherwise its SeriesID.
func (e *Event) AnchorID() string {
	if e.SeriesID != nil {
		return *e.SeriesID
	}
	return e.ID
}
