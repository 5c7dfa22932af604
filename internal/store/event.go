package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pawtrack/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

const eventCols = `id, pet_id, title, category, date, time, duration_minutes, is_done, done_year, note, is_yearly, series_id, is_event_passed, created_at`

func scanEvent(scanner interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	var dateStr string
	var timeOfDay, seriesID sql.NullString
	var duration sql.NullInt64
	var doneYear sql.NullInt64
	var isDone, isYearly, isPassed int

	err := scanner.Scan(&e.ID, &e.PetID, &e.Title, &e.Category, &dateStr, &timeOfDay,
		&duration, &isDone, &doneYear, &e.Note, &isYearly, &seriesID, &isPassed, &e.CreatedAt)
	if err != nil {
		return nil, err
	}

	e.Date, err = parseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("parse event date: %w", err)
	}
	if timeOfDay.Valid {
		e.Time = &timeOfDay.String
	}
	if duration.Valid {
		e.DurationMinutes = &duration.Int64
	}
	if doneYear.Valid {
		y := int(doneYear.Int64)
		e.DoneYear = &y
	}
	if seriesID.Valid {
		e.SeriesID = &seriesID.String
	}
	e.IsDone = isDone != 0
	e.IsYearly = isYearly != 0
	e.IsEventPassed = isPassed != 0

	return &e, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Create inserts the event, assigning an id if none is set.
func (s *EventStore) Create(e *model.Event) error {
	return s.create(s.db, e)
}

// CreateTx is Create inside an open transaction.
func (s *EventStore) CreateTx(tx *sql.Tx, e *model.Event) error {
	return s.create(tx, e)
}

func (s *EventStore) create(q querier, e *model.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	var doneYear sql.NullInt64
	if e.DoneYear != nil {
		doneYear = sql.NullInt64{Int64: int64(*e.DoneYear), Valid: true}
	}

	_, err := q.Exec(
		`INSERT INTO events (id, pet_id, title, category, date, time, duration_minutes, is_done, done_year, note, is_yearly, series_id, is_event_passed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.PetID, e.Title, e.Category, fmtDate(e.Date), nullString(e.Time),
		nullInt64(e.DurationMinutes), boolInt(e.IsDone), doneYear, e.Note,
		boolInt(e.IsYearly), nullString(e.SeriesID), boolInt(e.IsEventPassed),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *EventStore) GetByID(id string) (*model.Event, error) {
	row := s.db.QueryRow(`SELECT `+eventCols+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query event: %w", err)
	}
	return e, nil
}

// Exists reports whether an event with the same (pet, title, date) triple is
// present, excluding the event with excludeID (pass "" to exclude nothing).
func (s *EventStore) Exists(petID, title string, date time.Time, excludeID string) (bool, error) {
	return s.exists(s.db, petID, title, date, excludeID)
}

// ExistsTx is Exists inside an open transaction.
func (s *EventStore) ExistsTx(tx *sql.Tx, petID, title string, date time.Time, excludeID string) (bool, error) {
	return s.exists(tx, petID, title, date, excludeID)
}

func (s *EventStore) exists(q querier, petID, title string, date time.Time, excludeID string) (bool, error) {
	var one int
	err := q.QueryRow(
		`SELECT 1 FROM events WHERE pet_id = ? AND title = ? AND date = ? AND id != ?`,
		petID, title, fmtDate(date), excludeID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check event exists: %w", err)
	}
	return true, nil
}

func (s *EventStore) listQuery(q querier, query string, args ...any) ([]model.Event, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *EventStore) ListByPet(petID string) ([]model.Event, error) {
	return s.listQuery(s.db,
		`SELECT `+eventCols+` FROM events WHERE pet_id = ? ORDER BY date, time`, petID)
}

// ListSeries returns every member of a yearly series given its anchor id,
// the anchor included, ordered by date.
func (s *EventStore) ListSeries(anchorID string) ([]model.Event, error) {
	return s.listQuery(s.db,
		`SELECT `+eventCols+` FROM events WHERE id = ? OR series_id = ? ORDER BY date`,
		anchorID, anchorID)
}

// ListYearlyByCategory returns all yearly events of a category for a pet.
// Used for birthday edits, which span every birthday event of the pet.
func (s *EventStore) ListYearlyByCategory(petID, category string) ([]model.Event, error) {
	return s.listQuery(s.db,
		`SELECT `+eventCols+` FROM events WHERE pet_id = ? AND category = ? AND is_yearly = 1 ORDER BY date`,
		petID, category)
}

// ListYearly returns every yearly event, ordered so series members group together.
func (s *EventStore) ListYearly() ([]model.Event, error) {
	return s.listQuery(s.db,
		`SELECT `+eventCols+` FROM events WHERE is_yearly = 1 ORDER BY pet_id, title, date`)
}

// CountSuccessors returns how many events reference the given anchor.
func (s *EventStore) CountSuccessors(anchorID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM events WHERE series_id = ?`, anchorID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count successors: %w", err)
	}
	return n, nil
}

// UpdateTx writes every mutable field of the event inside a transaction.
func (s *EventStore) UpdateTx(tx *sql.Tx, e *model.Event) error {
	var doneYear sql.NullInt64
	if e.DoneYear != nil {
		doneYear = sql.NullInt64{Int64: int64(*e.DoneYear), Valid: true}
	}

	_, err := tx.Exec(
		`UPDATE events
		 SET title = ?, category = ?, date = ?, time = ?, duration_minutes = ?,
		     is_done = ?, done_year = ?, note = ?, is_yearly = ?, is_event_passed = ?
		 WHERE id = ?`,
		e.Title, e.Category, fmtDate(e.Date), nullString(e.Time), nullInt64(e.DurationMinutes),
		boolInt(e.IsDone), doneYear, e.Note, boolInt(e.IsYearly), boolInt(e.IsEventPassed),
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// MarkDone flags the event done for the given year.
func (s *EventStore) MarkDone(id string, year int) error {
	_, err := s.db.Exec(`UPDATE events SET is_done = 1, done_year = ? WHERE id = ?`, year, id)
	if err != nil {
		return fmt.Errorf("mark event done: %w", err)
	}
	return nil
}

func (s *EventStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// DeleteSeries removes every yearly event sharing (pet, title).
func (s *EventStore) DeleteSeries(petID, title string) error {
	_, err := s.db.Exec(`DELETE FROM events WHERE pet_id = ? AND title = ? AND is_yearly = 1`, petID, title)
	if err != nil {
		return fmt.Errorf("delete series: %w", err)
	}
	return nil
}

// DeleteYearlyByCategoryTx removes every yearly event of a category for a pet.
// Used when a pet's birthday changes and the birthday series is rebuilt.
func (s *EventStore) DeleteYearlyByCategoryTx(tx *sql.Tx, petID, category string) error {
	_, err := tx.Exec(`DELETE FROM events WHERE pet_id = ? AND category = ? AND is_yearly = 1`, petID, category)
	if err != nil {
		return fmt.Errorf("delete yearly events by category: %w", err)
	}
	return nil
}
