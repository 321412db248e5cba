package service

import (
	"context"
	"errors"
	"sync"

	"cryptotracker/internal/application/port"
)

type fakeStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet bool
	failSet bool
	sets    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (s *fakeStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return nil, false, errors.New("disk unavailable")
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *fakeStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.failSet {
		return errors.New("disk full")
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *fakeStore) Close() error { return nil }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []port.Notification
	err  error
}

func (n *recordingNotifier) Notify(ctx context.Context, msg port.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *recordingNotifier) at(i int) port.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[i]
}
