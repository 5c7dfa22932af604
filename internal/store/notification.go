package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"pawtrack/internal/model"
)

type NotificationStore struct {
	db *sql.DB
}

func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) Create(userID, message string) (*model.Notification, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO notifications (id, user_id, message) VALUES (?, ?, ?)`,
		id, userID, message,
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	return s.getByID(id)
}

func (s *NotificationStore) getByID(id string) (*model.Notification, error) {
	var n model.Notification
	var isRead int
	err := s.db.QueryRow(
		`SELECT id, user_id, message, created_at, is_read FROM notifications WHERE id = ?`, id,
	).Scan(&n.ID, &n.UserID, &n.Message, &n.CreatedAt, &isRead)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query notification: %w", err)
	}
	n.IsRead = isRead != 0
	return &n, nil
}

func (s *NotificationStore) ListByUser(userID string) ([]model.Notification, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, message, created_at, is_read
		 FROM notifications WHERE user_id = ?
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		var isRead int
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.CreatedAt, &isRead); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.IsRead = isRead != 0
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead flags the notification read. The user id guards against marking
// another user's notification; the bool reports whether a row was updated.
func (s *NotificationStore) MarkRead(id, userID string) (bool, error) {
	res, err := s.db.Exec(
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	return n > 0, nil
}
