package reminder

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"pawtrack/internal/database"
	"pawtrack/internal/model"
	"pawtrack/internal/store"
)

type dispatchFixture struct {
	dispatcher    *Dispatcher
	events        *store.EventStore
	reminders     *store.ReminderStore
	notifications *store.NotificationStore
	userID        string
	petID         string
}

func setupDispatcher(t *testing.T) *dispatchFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	user, err := users.Create("tester", "secret")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	pets := store.NewPetStore(db)
	pet := &model.Pet{Name: "Шарик"}
	if err := pets.Create(pet, user.ID); err != nil {
		t.Fatalf("create pet: %v", err)
	}

	events := store.NewEventStore(db)
	reminders := store.NewReminderStore(db)
	notifications := store.NewNotificationStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &dispatchFixture{
		dispatcher:    NewDispatcher(reminders, pets, notifications, nil, logger),
		events:        events,
		reminders:     reminders,
		notifications: notifications,
		userID:        user.ID,
		petID:         pet.ID,
	}
}

func (f *dispatchFixture) addEventWithReminder(t *testing.T, title string, date time.Time, repeatDays []int) *model.Event {
	t.Helper()
	e := &model.Event{
		PetID:    f.petID,
		Title:    title,
		Category: model.CategoryWalk,
		Date:     date,
	}
	if err := f.events.Create(e); err != nil {
		t.Fatalf("create event: %v", err)
	}

	remindAt := "09:00"
	r := &model.Reminder{
		EventID:    e.ID,
		PetID:      f.petID,
		RemindAt:   &remindAt,
		Repeat:     true,
		RepeatDays: repeatDays,
	}
	if err := f.reminders.Upsert(r); err != nil {
		t.Fatalf("upsert reminder: %v", err)
	}
	return e
}

func TestRunCreatesNotificationAndStamps(t *testing.T) {
	f := setupDispatcher(t)

	// 2025-06-16 is a Monday (weekday index 0).
	day := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	f.addEventWithReminder(t, "Прогулка", day, []int{0})

	now := time.Date(2025, 6, 16, 9, 1, 0, 0, time.UTC)
	f.dispatcher.Run(now)

	got, err := f.notifications.ListByUser(f.userID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("%d notifications, want 1", len(got))
	}
	if got[0].IsRead {
		t.Error("fresh notification should be unread")
	}

	pending, err := f.reminders.ListPending()
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("%d pending reminders, want 1", len(pending))
	}
	if pending[0].Reminder.LastReminded == nil {
		t.Error("last reminded not stamped")
	}
}

func TestRunIsIdempotentWithinTheDay(t *testing.T) {
	f := setupDispatcher(t)

	day := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	f.addEventWithReminder(t, "Прогулка", day, []int{0})

	f.dispatcher.Run(time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC))
	f.dispatcher.Run(time.Date(2025, 6, 16, 9, 2, 0, 0, time.UTC))

	got, err := f.notifications.ListByUser(f.userID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("%d notifications after two runs, want 1", len(got))
	}
}

func TestRunSkipsDoneEvents(t *testing.T) {
	f := setupDispatcher(t)

	day := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	e := f.addEventWithReminder(t, "Прогулка", day, []int{0})
	if err := f.events.MarkDone(e.ID, 2025); err != nil {
		t.Fatalf("mark done: %v", err)
	}

	f.dispatcher.Run(time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC))

	got, err := f.notifications.ListByUser(f.userID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("%d notifications for a done event, want 0", len(got))
	}
}

func TestRunOutsideWindowFiresNothing(t *testing.T) {
	f := setupDispatcher(t)

	day := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	f.addEventWithReminder(t, "Прогулка", day, []int{0})

	f.dispatcher.Run(time.Date(2025, 6, 16, 10, 30, 0, 0, time.UTC))

	got, err := f.notifications.ListByUser(f.userID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("%d notifications outside the window, want 0", len(got))
	}
}
