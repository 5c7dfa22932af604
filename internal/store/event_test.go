package store

import (
	"testing"
	"time"

	"pawtrack/internal/database"
	"pawtrack/internal/model"
)

func setupTestDB(t *testing.T) (*EventStore, string) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := NewUserStore(db)
	user, err := users.Create("tester", "secret")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	pets := NewPetStore(db)
	pet := &model.Pet{Name: "Мурка"}
	if err := pets.Create(pet, user.ID); err != nil {
		t.Fatalf("create pet: %v", err)
	}

	return NewEventStore(db), pet.ID
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEventCreateAndGet(t *testing.T) {
	s, petID := setupTestDB(t)

	tod := "14:30"
	dur := int64(45)
	e := &model.Event{
		PetID:           petID,
		Title:           "Стрижка",
		Category:        model.CategoryGrooming,
		Date:            day(2025, time.May, 20),
		Time:            &tod,
		DurationMinutes: &dur,
		Note:            "у Ольги",
	}
	if err := s.Create(e); err != nil {
		t.Fatalf("create event: %v", err)
	}
	if e.ID == "" {
		t.Fatal("id not assigned")
	}

	got, err := s.GetByID(e.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if got.Title != "Стрижка" {
		t.Errorf("title = %q", got.Title)
	}
	if !got.Date.Equal(day(2025, time.May, 20)) {
		t.Errorf("date = %v", got.Date)
	}
	if got.Time == nil || *got.Time != "14:30" {
		t.Errorf("time = %v", got.Time)
	}
	if got.DurationMinutes == nil || *got.DurationMinutes != 45 {
		t.Errorf("duration = %v", got.DurationMinutes)
	}
	if got.IsDone || got.IsYearly || got.IsEventPassed {
		t.Error("flags should default to false")
	}
}

func TestEventGetByIDNotFound(t *testing.T) {
	s, _ := setupTestDB(t)

	got, err := s.GetByID("missing")
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if got != nil {
		t.Error("expected nil for nonexistent event")
	}
}

func TestEventExists(t *testing.T) {
	s, petID := setupTestDB(t)

	e := &model.Event{
		PetID:    petID,
		Title:    "Прививка",
		Category: model.CategoryVaccine,
		Date:     day(2025, time.June, 15),
	}
	if err := s.Create(e); err != nil {
		t.Fatalf("create event: %v", err)
	}

	exists, err := s.Exists(petID, "Прививка", day(2025, time.June, 15), "")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Error("triple should exist")
	}

	// Excluding the event itself reports no duplicate.
	exists, err = s.Exists(petID, "Прививка", day(2025, time.June, 15), e.ID)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Error("self-exclusion should report no duplicate")
	}

	exists, err = s.Exists(petID, "Прививка", day(2025, time.June, 16), "")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Error("different date should not exist")
	}
}

func TestEventListSeries(t *testing.T) {
	s, petID := setupTestDB(t)

	anchor := &model.Event{
		PetID:    petID,
		Title:    "Прививка",
		Category: model.CategoryVaccine,
		Date:     day(2024, time.June, 15),
		IsYearly: true,
	}
	if err := s.Create(anchor); err != nil {
		t.Fatalf("create anchor: %v", err)
	}
	for _, y := range []int{2025, 2026} {
		id := anchor.ID
		e := &model.Event{
			PetID:    petID,
			Title:    "Прививка",
			Category: model.CategoryVaccine,
			Date:     day(y, time.June, 15),
			IsYearly: true,
			SeriesID: &id,
		}
		if err := s.Create(e); err != nil {
			t.Fatalf("create member: %v", err)
		}
	}

	members, err := s.ListSeries(anchor.ID)
	if err != nil {
		t.Fatalf("list series: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("%d members, want 3", len(members))
	}
	if members[0].ID != anchor.ID {
		t.Error("anchor should sort first by date")
	}

	n, err := s.CountSuccessors(anchor.ID)
	if err != nil {
		t.Fatalf("count successors: %v", err)
	}
	if n != 2 {
		t.Errorf("successors = %d, want 2", n)
	}
}

func TestEventMarkDone(t *testing.T) {
	s, petID := setupTestDB(t)

	e := &model.Event{
		PetID:    petID,
		Title:    "Таблетка",
		Category: model.CategoryPill,
		Date:     day(2025, time.April, 1),
	}
	if err := s.Create(e); err != nil {
		t.Fatalf("create event: %v", err)
	}

	if err := s.MarkDone(e.ID, 2025); err != nil {
		t.Fatalf("mark done: %v", err)
	}

	got, err := s.GetByID(e.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if !got.IsDone {
		t.Error("event should be done")
	}
	if got.DoneYear == nil || *got.DoneYear != 2025 {
		t.Errorf("done year = %v, want 2025", got.DoneYear)
	}
}

func TestEventDeleteSeries(t *testing.T) {
	s, petID := setupTestDB(t)

	for _, y := range []int{2024, 2025, 2026} {
		e := &model.Event{
			PetID:    petID,
			Title:    "Прививка",
			Category: model.CategoryVaccine,
			Date:     day(y, time.June, 15),
			IsYearly: true,
		}
		if err := s.Create(e); err != nil {
			t.Fatalf("create event: %v", err)
		}
	}
	keeper := &model.Event{
		PetID:    petID,
		Title:    "Прививка",
		Category: model.CategoryVaccine,
		Date:     day(2025, time.July, 1),
	}
	if err := s.Create(keeper); err != nil {
		t.Fatalf("create event: %v", err)
	}

	if err := s.DeleteSeries(petID, "Прививка"); err != nil {
		t.Fatalf("delete series: %v", err)
	}

	left, err := s.ListByPet(petID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	// The non-yearly event with the same title survives.
	if len(left) != 1 || left[0].ID != keeper.ID {
		t.Errorf("left = %d events, want only the non-yearly one", len(left))
	}
}
