package store

import (
	"testing"
	"time"

	"pawtrack/internal/database"
)

func setupSessionStore(t *testing.T) (*SessionStore, string) {
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
	return NewSessionStore(db), user.ID
}

func TestSessionCreateAndGet(t *testing.T) {
	s, userID := setupSessionStore(t)

	sess, err := s.Create(userID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.Token == "" {
		t.Fatal("empty token")
	}
	if !sess.ExpiresAt.After(time.Now()) {
		t.Error("session should expire in the future")
	}

	got, err := s.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil || got.UserID != userID {
		t.Fatalf("got = %+v", got)
	}
}

func TestSessionDelete(t *testing.T) {
	s, userID := setupSessionStore(t)

	sess, err := s.Create(userID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := s.Delete(sess.Token); err != nil {
		t.Fatalf("delete session: %v", err)
	}

	got, err := s.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("deleted session still resolves")
	}
}

func TestSessionUnknownToken(t *testing.T) {
	s, _ := setupSessionStore(t)

	got, err := s.GetByToken("bogus")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("unknown token should resolve to nil")
	}
}
