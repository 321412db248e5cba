package notify

import (
	"context"
	"errors"

	"cryptotracker/internal/application/port"
)

// Multi fans a notification out to every notifier. All are attempted; the
// returned error joins every failure.
type Multi struct {
	notifiers []port.Notifier
}

func NewMulti(notifiers ...port.Notifier) *Multi {
	out := make([]port.Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return &Multi{notifiers: out}
}

func (m *Multi) Len() int { return len(m.notifiers) }

func (m *Multi) Notify(ctx context.Context, msg port.Notification) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Gate forwards notifications only while allowed reports true. A closed
// gate drops the notification silently.
type Gate struct {
	next    port.Notifier
	allowed func() bool
}

func NewGate(next port.Notifier, allowed func() bool) *Gate {
	return &Gate{next: next, allowed: allowed}
}

func (g *Gate) Notify(ctx context.Context, msg port.Notification) error {
	if g.next == nil || (g.allowed != nil && !g.allowed()) {
		return nil
	}
	return g.next.Notify(ctx, msg)
}

var (
	_ port.Notifier = (*Multi)(nil)
	_ port.Notifier = (*Gate)(nil)
)
