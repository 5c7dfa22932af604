package store

import (
	"testing"

	"pawtrack/internal/database"
)

func setupUserStore(t *testing.T) *UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func TestUserCreateAndCheckPassword(t *testing.T) {
	s := setupUserStore(t)

	user, err := s.Create("alice", "correct horse")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID == "" {
		t.Fatal("id not assigned")
	}
	if user.PasswordHash == "correct horse" {
		t.Fatal("password stored in plain text")
	}

	got, err := s.GetByUsername("alice")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Fatalf("got = %+v", got)
	}

	if !s.CheckPassword(got, "correct horse") {
		t.Error("right password rejected")
	}
	if s.CheckPassword(got, "wrong") {
		t.Error("wrong password accepted")
	}
}

func TestUserGetByUsernameMissing(t *testing.T) {
	s := setupUserStore(t)

	got, err := s.GetByUsername("nobody")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown username")
	}
}

func TestUserDuplicateUsername(t *testing.T) {
	s := setupUserStore(t)

	if _, err := s.Create("alice", "one"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := s.Create("alice", "two"); err == nil {
		t.Error("duplicate username should fail")
	}
}
