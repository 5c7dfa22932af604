package reminder

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pawtrack/internal/store"
	ws "pawtrack/internal/websocket"
)

// Dispatcher runs the periodic reminder pass: evaluate every pending reminder
// against the matcher, create one notification per owner of the pet, stamp
// the reminder as fired today. A failure on one reminder is logged and the
// rest still run.
type Dispatcher struct {
	mu            sync.Mutex
	reminders     *store.ReminderStore
	pets          *store.PetStore
	notifications *store.NotificationStore
	hub           *ws.Hub
	logger        *slog.Logger
}

func NewDispatcher(reminders *store.ReminderStore, pets *store.PetStore, notifications *store.NotificationStore, hub *ws.Hub, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		reminders:     reminders,
		pets:          pets,
		notifications: notifications,
		hub:           hub,
		logger:        logger,
	}
}

// Run executes one dispatch pass at the given instant. Overlapping runs from
// a slow previous tick are skipped: the same-day suppression makes repeated
// runs idempotent, but two concurrent passes could both fire inside the same
// window, so only one runs at a time.
func (d *Dispatcher) Run(now time.Time) {
	if !d.mu.TryLock() {
		d.logger.Warn("dispatch pass already running, skipping tick")
		return
	}
	defer d.mu.Unlock()

	pending, err := d.reminders.ListPending()
	if err != nil {
		d.logger.Error("list pending reminders", "error", err)
		return
	}

	fired := 0
	for _, pr := range pending {
		if !Due(pr.Reminder, pr.Event, now) {
			continue
		}

		if err := d.fire(pr, now); err != nil {
			d.logger.Error("fire reminder", "reminder_id", pr.Reminder.ID, "event", pr.Event.Title, "error", err)
			continue
		}
		fired++
	}

	if fired > 0 {
		d.logger.Info("dispatch pass complete", "checked", len(pending), "fired", fired)
	}
}

func (d *Dispatcher) fire(pr store.PendingReminder, now time.Time) error {
	owners, err := d.pets.ListOwnerIDs(pr.Event.PetID)
	if err != nil {
		return fmt.Errorf("list owners: %w", err)
	}

	msg := fmt.Sprintf("%s: %s, today at %s", pr.PetName, pr.Event.Title, *pr.Reminder.RemindAt)
	for _, userID := range owners {
		n, err := d.notifications.Create(userID, msg)
		if err != nil {
			return fmt.Errorf("create notification: %w", err)
		}
		if d.hub != nil {
			d.hub.Broadcast(ws.NewMessage("notification", "created", n.ID, map[string]any{
				"user_id": userID,
				"message": msg,
			}))
		}
	}

	if err := d.reminders.SetLastReminded(pr.Reminder.ID, now); err != nil {
		return fmt.Errorf("stamp last reminded: %w", err)
	}
	return nil
}
