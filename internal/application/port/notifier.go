package port

import "context"

// Notification is a local user notification.
type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Notifier schedules a notification. Delivery is fire-and-forget; an error
// only means this attempt failed and is never retried by callers.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
