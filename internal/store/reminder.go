package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pawtrack/internal/model"
)

type ReminderStore struct {
	db *sql.DB
}

func NewReminderStore(db *sql.DB) *ReminderStore {
	return &ReminderStore{db: db}
}

const reminderCols = `id, event_id, pet_id, remind_at, repeat, repeat_days, repeat_every, remind_date, last_reminded`

func scanReminder(scanner interface{ Scan(...any) error }) (*model.Reminder, error) {
	var r model.Reminder
	var remindAt, repeatDays, remindDate, lastReminded sql.NullString
	var repeat int

	err := scanner.Scan(&r.ID, &r.EventID, &r.PetID, &remindAt, &repeat,
		&repeatDays, &r.RepeatEvery, &remindDate, &lastReminded)
	if err != nil {
		return nil, err
	}

	r.Repeat = repeat != 0
	if remindAt.Valid {
		r.RemindAt = &remindAt.String
	}
	if repeatDays.Valid && repeatDays.String != "" {
		if err := json.Unmarshal([]byte(repeatDays.String), &r.RepeatDays); err != nil {
			return nil, fmt.Errorf("decode repeat days: %w", err)
		}
	}
	if r.RemindDate, err = scanNullDate(remindDate); err != nil {
		return nil, fmt.Errorf("parse remind date: %w", err)
	}
	if r.LastReminded, err = scanNullDate(lastReminded); err != nil {
		return nil, fmt.Errorf("parse last reminded: %w", err)
	}

	return &r, nil
}

// Upsert creates or replaces the reminder configuration for r.EventID.
// A repeating reminder never stores a remind date; the two are mutually
// exclusive and repeat wins.
func (s *ReminderStore) Upsert(r *model.Reminder) error {
	return s.upsert(s.db, r)
}

// UpsertTx is Upsert inside an open transaction.
func (s *ReminderStore) UpsertTx(tx *sql.Tx, r *model.Reminder) error {
	return s.upsert(tx, r)
}

func (s *ReminderStore) upsert(q querier, r *model.Reminder) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.RepeatEvery <= 0 {
		r.RepeatEvery = 1
	}
	if r.Repeat {
		r.RemindDate = nil
	}

	days := r.RepeatDays
	if days == nil {
		days = []int{}
	}
	daysJSON, err := json.Marshal(days)
	if err != nil {
		return fmt.Errorf("encode repeat days: %w", err)
	}

	_, err = q.Exec(
		`INSERT INTO reminders (id, event_id, pet_id, remind_at, repeat, repeat_days, repeat_every, remind_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(event_id) DO UPDATE SET
		   remind_at = excluded.remind_at,
		   repeat = excluded.repeat,
		   repeat_days = excluded.repeat_days,
		   repeat_every = excluded.repeat_every,
		   remind_date = excluded.remind_date`,
		r.ID, r.EventID, r.PetID, nullString(r.RemindAt), boolInt(r.Repeat),
		string(daysJSON), r.RepeatEvery, nullDate(r.RemindDate),
	)
	if err != nil {
		return fmt.Errorf("upsert reminder: %w", err)
	}
	return nil
}

func (s *ReminderStore) GetByEvent(eventID string) (*model.Reminder, error) {
	row := s.db.QueryRow(`SELECT `+reminderCols+` FROM reminders WHERE event_id = ?`, eventID)
	r, err := scanReminder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query reminder: %w", err)
	}
	return r, nil
}

// PendingReminder pairs a reminder with its owning event and pet name for
// dispatch. Only reminders of not-done events are pending.
type PendingReminder struct {
	Reminder model.Reminder
	Event    model.Event
	PetName  string
}

// ListPending returns the reminders of all not-done events.
func (s *ReminderStore) ListPending() ([]PendingReminder, error) {
	rows, err := s.db.Query(
		`SELECT r.id, r.event_id, r.pet_id, r.remind_at, r.repeat, r.repeat_days, r.repeat_every, r.remind_date, r.last_reminded,
		        e.id, e.pet_id, e.title, e.category, e.date, e.time, e.duration_minutes, e.is_done, e.done_year, e.note, e.is_yearly, e.series_id, e.is_event_passed, e.created_at,
		        p.name
		 FROM reminders r
		 JOIN events e ON e.id = r.event_id
		 JOIN pets p ON p.id = r.pet_id
		 WHERE e.is_done = 0`)
	if err != nil {
		return nil, fmt.Errorf("query pending reminders: %w", err)
	}
	defer rows.Close()

	var pending []PendingReminder
	for rows.Next() {
		var pr PendingReminder
		var remindAt, repeatDays, remindDate, lastReminded sql.NullString
		var repeat int
		var dateStr string
		var timeOfDay, seriesID sql.NullString
		var duration, doneYear sql.NullInt64
		var isDone, isYearly, isPassed int

		err := rows.Scan(
			&pr.Reminder.ID, &pr.Reminder.EventID, &pr.Reminder.PetID, &remindAt, &repeat,
			&repeatDays, &pr.Reminder.RepeatEvery, &remindDate, &lastReminded,
			&pr.Event.ID, &pr.Event.PetID, &pr.Event.Title, &pr.Event.Category, &dateStr,
			&timeOfDay, &duration, &isDone, &doneYear, &pr.Event.Note, &isYearly,
			&seriesID, &isPassed, &pr.Event.CreatedAt,
			&pr.PetName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pending reminder: %w", err)
		}

		pr.Reminder.Repeat = repeat != 0
		if remindAt.Valid {
			pr.Reminder.RemindAt = &remindAt.String
		}
		if repeatDays.Valid && repeatDays.String != "" {
			if err := json.Unmarshal([]byte(repeatDays.String), &pr.Reminder.RepeatDays); err != nil {
				return nil, fmt.Errorf("decode repeat days: %w", err)
			}
		}
		if pr.Reminder.RemindDate, err = scanNullDate(remindDate); err != nil {
			return nil, fmt.Errorf("parse remind date: %w", err)
		}
		if pr.Reminder.LastReminded, err = scanNullDate(lastReminded); err != nil {
			return nil, fmt.Errorf("parse last reminded: %w", err)
		}

		if pr.Event.Date, err = parseDate(dateStr); err != nil {
			return nil, fmt.Errorf("parse event date: %w", err)
		}
		if timeOfDay.Valid {
			pr.Event.Time = &timeOfDay.String
		}
		if duration.Valid {
			pr.Event.DurationMinutes = &duration.Int64
		}
		if doneYear.Valid {
			y := int(doneYear.Int64)
			pr.Event.DoneYear = &y
		}
		if seriesID.Valid {
			pr.Event.SeriesID = &seriesID.String
		}
		pr.Event.IsDone = isDone != 0
		pr.Event.IsYearly = isYearly != 0
		pr.Event.IsEventPassed = isPassed != 0

		pending = append(pending, pr)
	}
	return pending, rows.Err()
}

// SetLastReminded stamps the reminder as fired on the given day.
func (s *ReminderStore) SetLastReminded(id string, day time.Time) error {
	_, err := s.db.Exec(`UPDATE reminders SET last_reminded = ? WHERE id = ?`, fmtDate(day), id)
	if err != nil {
		return fmt.Errorf("set last reminded: %w", err)
	}
	return nil
}
