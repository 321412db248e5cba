package console

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"cryptotracker/internal/application/port"
)

type Sink struct {
	mu  sync.Mutex
	out io.Writer
}

func NewSink() *Sink { return NewSinkTo(os.Stdout) }

func NewSinkTo(out io.Writer) *Sink { return &Sink{out: out} }

func (s *Sink) WriteLive(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprint(s.out, line) // no newline
	return err
}

// A 方案：打印快照行后，留一个空行占位；不立刻重画 live，等下一次变化刷新
func (s *Sink) WriteSnapshot(ts time.Time, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.out, "\n%s %s\n\n", ts.Format("2006-01-02 15:04:05"), line)
	return err
}

func (s *Sink) NewLine() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprint(s.out, "\n")
	return err
}

var _ port.Sink = (*Sink)(nil)
