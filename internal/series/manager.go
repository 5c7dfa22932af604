package series

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pawtrack/internal/model"
	"pawtrack/internal/store"
)

var (
	// ErrDuplicateEvent means the (pet, title, date) triple already exists.
	ErrDuplicateEvent = errors.New("an event with this title and date already exists")
	// ErrDuplicateSeries means the series start date itself collides.
	ErrDuplicateSeries = errors.New("an event with this title already exists on the series start date")
	// ErrSeriesAnchor means the first event of a series with successors was
	// deleted without requesting a whole-series delete.
	ErrSeriesAnchor = errors.New("the first event of a yearly series cannot be deleted on its own")
	// ErrYearlyFeb29 rejects retargeting a yearly event onto February 29.
	ErrYearlyFeb29 = errors.New("February 29 cannot be set for a yearly event")
)

// BirthdayTitle is the fixed title of generated birthday events.
const BirthdayTitle = "День рождения"

// ReminderInput carries reminder configuration alongside an event write.
type ReminderInput struct {
	RemindAt    *string
	Repeat      bool
	RepeatDays  []int
	RepeatEvery int
	RemindDate  *time.Time
}

// EventInput is the caller-supplied event payload for create and edit.
type EventInput struct {
	Title           string
	Category        string
	Date            time.Time
	Time            *string
	DurationMinutes *int64
	Note            string
	IsYearly        bool
	Reminder        *ReminderInput
}

// Manager owns all series-aware event mutations. Every multi-row write runs
// inside a single transaction: a batch either commits whole or not at all.
type Manager struct {
	db        *sql.DB
	events    *store.EventStore
	reminders *store.ReminderStore
	logger    *slog.Logger
}

func NewManager(db *sql.DB, events *store.EventStore, reminders *store.ReminderStore, logger *slog.Logger) *Manager {
	return &Manager{db: db, events: events, reminders: reminders, logger: logger}
}

// CreateSingle creates one non-yearly event, plus its reminder if configured.
func (m *Manager) CreateSingle(petID string, in EventInput) (*model.Event, error) {
	exists, err := m.events.Exists(petID, in.Title, in.Date, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateEvent
	}

	tx, err := m.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	e := &model.Event{
		PetID:           petID,
		Title:           in.Title,
		Category:        in.Category,
		Date:            in.Date,
		Time:            in.Time,
		DurationMinutes: in.DurationMinutes,
		Note:            in.Note,
	}
	if err := m.events.CreateTx(tx, e); err != nil {
		return nil, err
	}

	if err := m.upsertReminderTx(tx, e, in.Reminder, in.Date.Year()); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return e, nil
}

// CreateSeries creates a yearly series: one event per year across the
// three-year span, starting no further than one year in the past. The first
// created occurrence becomes the anchor; the rest point at it. Colliding
// extension dates are skipped with a warning; a collision on the start date
// itself fails the whole operation with ErrDuplicateSeries.
func (m *Manager) CreateSeries(petID string, in EventInput, now time.Time) ([]model.Event, []string, error) {
	var warnings []string

	startYear, adjusted := StartYear(in.Date.Year(), now.Year())
	if adjusted {
		warnings = append(warnings, fmt.Sprintf(
			"the series starts at %d because the original date is too far in the past", startYear))
		m.logger.Warn("yearly series start pulled forward",
			"pet_id", petID, "title", in.Title, "input_year", in.Date.Year(), "start_year", startYear)
	}

	startDate := StartDate(in.Date, startYear)
	if startDate.Day() != in.Date.Day() {
		m.logger.Warn("series start clamped to Feb 28",
			"pet_id", petID, "title", in.Title, "start_year", startYear)
	}

	exists, err := m.events.Exists(petID, in.Title, startDate, "")
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, ErrDuplicateSeries
	}

	tx, err := m.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	today := dateOnly(now)
	var created []model.Event
	var anchorID string

	for _, d := range Dates(in.Date, startYear, Span) {
		exists, err := m.events.ExistsTx(tx, petID, in.Title, d, "")
		if err != nil {
			return nil, nil, err
		}
		if exists {
			warnings = append(warnings, fmt.Sprintf("skipped duplicate occurrence on %s", d.Format("2006-01-02")))
			m.logger.Warn("skipping duplicate series occurrence",
				"pet_id", petID, "title", in.Title, "date", d.Format("2006-01-02"))
			continue
		}

		e := &model.Event{
			PetID:           petID,
			Title:           in.Title,
			Category:        in.Category,
			Date:            d,
			Time:            in.Time,
			DurationMinutes: in.DurationMinutes,
			Note:            in.Note,
			IsYearly:        true,
			IsEventPassed:   d.Before(today),
		}
		if anchorID != "" {
			id := anchorID
			e.SeriesID = &id
		}
		if err := m.events.CreateTx(tx, e); err != nil {
			return nil, nil, err
		}
		if anchorID == "" {
			anchorID = e.ID
		}

		if err := m.upsertReminderTx(tx, e, in.Reminder, d.Year()); err != nil {
			return nil, nil, err
		}

		created = append(created, *e)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return created, warnings, nil
}

// Edit applies the input to one event, or to its whole series when applyToAll
// is set. Each member keeps its own year; only month and day move. Members
// whose new (title, date) would collide with another event are skipped with a
// warning rather than aborting the batch. Birthday events are keyed by pet,
// not title: applyToAll updates every birthday event of the pet, and only the
// time/duration/note fields.
func (m *Manager) Edit(ev *model.Event, in EventInput, applyToAll bool, now time.Time) ([]model.Event, []string, error) {
	if ev.Category == model.CategoryBirthday {
		return m.editBirthday(ev, in, applyToAll)
	}

	if in.IsYearly && in.Date.Month() == time.February && in.Date.Day() == 29 {
		return nil, nil, ErrYearlyFeb29
	}

	var members []model.Event
	if applyToAll {
		var err error
		members, err = m.events.ListSeries(ev.AnchorID())
		if err != nil {
			return nil, nil, err
		}
	} else {
		members = []model.Event{*ev}
	}

	tx, err := m.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	today := dateOnly(now)
	usedDates := make(map[string]bool)
	var updated []model.Event
	var warnings []string

	for i := range members {
		member := members[i]

		// Edits never move an event across years: each member keeps its own
		// year and takes only the month and day from the new date.
		newDate, ok := YearDate(in.Date, member.Date.Year())
		if !ok {
			warnings = append(warnings, fmt.Sprintf("no %s %d in %d, occurrence unchanged",
				in.Date.Month(), in.Date.Day(), member.Date.Year()))
			continue
		}

		exists, err := m.events.ExistsTx(tx, ev.PetID, in.Title, newDate, member.ID)
		if err != nil {
			return nil, nil, err
		}
		dateKey := newDate.Format("2006-01-02")
		if exists || usedDates[dateKey] {
			warnings = append(warnings, fmt.Sprintf("duplicate: %q on %s, occurrence skipped", in.Title, dateKey))
			m.logger.Warn("skipping colliding series member",
				"event_id", member.ID, "title", in.Title, "date", dateKey)
			continue
		}
		usedDates[dateKey] = true

		member.Title = in.Title
		member.Category = in.Category
		member.Date = newDate
		member.Time = in.Time
		member.DurationMinutes = in.DurationMinutes
		member.Note = in.Note
		member.IsYearly = in.IsYearly
		member.IsEventPassed = in.IsYearly && newDate.Before(today)

		if err := m.events.UpdateTx(tx, &member); err != nil {
			return nil, nil, err
		}
		if err := m.upsertReminderTx(tx, &member, in.Reminder, member.Date.Year()); err != nil {
			return nil, nil, err
		}
		updated = append(updated, member)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return updated, warnings, nil
}

// editBirthday updates the time/duration/note of one birthday event, or of
// every birthday event of the pet when applyToAll is set. Title, category and
// date are fixed for birthdays.
func (m *Manager) editBirthday(ev *model.Event, in EventInput, applyToAll bool) ([]model.Event, []string, error) {
	var members []model.Event
	if applyToAll {
		var err error
		members, err = m.events.ListYearlyByCategory(ev.PetID, model.CategoryBirthday)
		if err != nil {
			return nil, nil, err
		}
	} else {
		members = []model.Event{*ev}
	}

	tx, err := m.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var updated []model.Event
	for i := range members {
		member := members[i]
		member.Time = in.Time
		member.DurationMinutes = in.DurationMinutes
		member.Note = in.Note

		if err := m.events.UpdateTx(tx, &member); err != nil {
			return nil, nil, err
		}
		if err := m.upsertReminderTx(tx, &member, in.Reminder, member.Date.Year()); err != nil {
			return nil, nil, err
		}
		updated = append(updated, member)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return updated, nil, nil
}

// Delete removes one event, or a whole yearly series when deleteAll is set.
// The anchor of a series that still has successors can only go as part of a
// whole-series delete.
func (m *Manager) Delete(ev *model.Event, deleteAll bool) error {
	if !ev.IsYearly {
		return m.events.Delete(ev.ID)
	}

	if ev.SeriesID == nil {
		successors, err := m.events.CountSuccessors(ev.ID)
		if err != nil {
			return err
		}
		if successors > 0 && !deleteAll {
			return ErrSeriesAnchor
		}
	}

	if deleteAll {
		m.logger.Info("deleting yearly series", "pet_id", ev.PetID, "title", ev.Title)
		return m.events.DeleteSeries(ev.PetID, ev.Title)
	}
	return m.events.Delete(ev.ID)
}

// ExtendSeries brings every yearly series up to date: each series gets
// occurrences through currentYear+2, skipping years where the date does not
// exist and dates already taken. Idempotent and safe to run daily. A failure
// on one series is logged and does not stop the others.
func (m *Manager) ExtendSeries(now time.Time) error {
	yearly, err := m.events.ListYearly()
	if err != nil {
		return err
	}

	groups := make(map[string][]model.Event)
	var order []string
	for _, e := range yearly {
		key := e.PetID + "\x00" + e.Title
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], e)
	}

	targetYear := now.Year() + 2
	extended := 0
	for _, key := range order {
		members := groups[key] // ordered by date
		last := members[len(members)-1]

		anchor := members[0]
		for _, e := range members {
			if e.SeriesID == nil {
				anchor = e
				break
			}
		}

		// New years take the anchor's month and day; a member re-dated on
		// its own must not steer the rest of the series.
		for year := last.Date.Year() + 1; year <= targetYear; year++ {
			d, ok := YearDate(anchor.Date, year)
			if !ok {
				continue
			}

			exists, err := m.events.Exists(last.PetID, last.Title, d, "")
			if err != nil {
				m.logger.Error("series extension check failed", "pet_id", last.PetID, "title", last.Title, "error", err)
				break
			}
			if exists {
				continue
			}

			id := anchor.ID
			e := &model.Event{
				PetID:           last.PetID,
				Title:           last.Title,
				Category:        last.Category,
				Date:            d,
				Time:            last.Time,
				DurationMinutes: last.DurationMinutes,
				Note:            last.Note,
				IsYearly:        true,
				SeriesID:        &id,
			}
			if err := m.events.Create(e); err != nil {
				m.logger.Error("series extension failed", "pet_id", last.PetID, "title", last.Title, "year", year, "error", err)
				break
			}
			extended++
		}
	}

	if extended > 0 {
		m.logger.Info("extended yearly series", "created", extended)
	}
	return nil
}

// RebuildBirthdaySeries replaces the pet's birthday series from its current
// birthday: three yearly occurrences starting at the current year, with a
// 09:00 repeating reminder on the current-year event. A pet without a
// birthday just loses any existing series.
func (m *Manager) RebuildBirthdaySeries(pet *model.Pet, now time.Time) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := m.events.DeleteYearlyByCategoryTx(tx, pet.ID, model.CategoryBirthday); err != nil {
		return err
	}

	if pet.Birthday == nil {
		return tx.Commit()
	}

	today := dateOnly(now)
	var anchorID string
	for year := now.Year(); year < now.Year()+Span; year++ {
		d, ok := YearDate(*pet.Birthday, year)
		if !ok {
			continue
		}

		exists, err := m.events.ExistsTx(tx, pet.ID, BirthdayTitle, d, "")
		if err != nil {
			return err
		}
		if exists {
			m.logger.Warn("birthday occurrence collides with existing event",
				"pet_id", pet.ID, "date", d.Format("2006-01-02"))
			continue
		}

		e := &model.Event{
			PetID:         pet.ID,
			Title:         BirthdayTitle,
			Category:      model.CategoryBirthday,
			Date:          d,
			IsYearly:      true,
			IsEventPassed: d.Before(today),
		}
		if anchorID != "" {
			id := anchorID
			e.SeriesID = &id
		}
		if err := m.events.CreateTx(tx, e); err != nil {
			return err
		}
		if anchorID == "" {
			anchorID = e.ID
		}

		if year == now.Year() {
			remindAt := "09:00"
			r := &model.Reminder{
				EventID:     e.ID,
				PetID:       pet.ID,
				RemindAt:    &remindAt,
				Repeat:      true,
				RepeatEvery: 365,
			}
			if err := m.reminders.UpsertTx(tx, r); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// upsertReminderTx writes the reminder config for an event, keying a one-shot
// remind date to the event's own year. A nil input leaves any existing
// reminder untouched.
func (m *Manager) upsertReminderTx(tx *sql.Tx, e *model.Event, in *ReminderInput, year int) error {
	if in == nil || in.RemindAt == nil {
		return nil
	}

	r := &model.Reminder{
		EventID:     e.ID,
		PetID:       e.PetID,
		RemindAt:    in.RemindAt,
		Repeat:      in.Repeat,
		RepeatDays:  in.RepeatDays,
		RepeatEvery: in.RepeatEvery,
	}
	if !in.Repeat && in.RemindDate != nil {
		if d, ok := YearDate(*in.RemindDate, year); ok {
			r.RemindDate = &d
		}
	}
	return m.reminders.UpsertTx(tx, r)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
