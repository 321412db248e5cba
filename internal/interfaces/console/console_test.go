package console

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"cryptotracker/internal/application/port"
)

func TestSinkWrites(t *testing.T) {
	var buf bytes.Buffer
	s := NewSinkTo(&buf)

	_ = s.WriteLive("\rBTC 60000")
	_ = s.WriteSnapshot(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), "BTC 60000")
	_ = s.NewLine()

	want := "\rBTC 60000\n2026-01-02 03:04:05 BTC 60000\n\n\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}

func TestNotifierPrintsTitleAndBody(t *testing.T) {
	var buf bytes.Buffer
	n := NewNotifierTo(&buf)
	n.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	err := n.Notify(context.Background(), port.Notification{
		Title: "Bitcoin Price Alert",
		Body:  "Bitcoin is now above $60000.00 (Current: $60010.00)",
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}

	out := buf.String()
	for _, part := range []string{"2026-01-02 03:04:05", "Bitcoin Price Alert", "(Current: $60010.00)"} {
		if !strings.Contains(out, part) {
			t.Fatalf("output %q missing %q", out, part)
		}
	}
}
