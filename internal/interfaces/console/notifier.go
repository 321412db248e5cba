package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"cryptotracker/internal/application/port"
)

// Notifier prints alert notifications on their own line.
type Notifier struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

func NewNotifier() *Notifier { return NewNotifierTo(os.Stdout) }

func NewNotifierTo(out io.Writer) *Notifier {
	return &Notifier{out: out, now: time.Now}
}

func (n *Notifier) Notify(ctx context.Context, msg port.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintf(n.out, "\n%s %s %s\n",
		n.now().Format("2006-01-02 15:04:05"),
		colorize("🔔 "+msg.Title, ansiYellow),
		msg.Body,
	)
	return err
}

var _ port.Notifier = (*Notifier)(nil)
