package storage

import (
	"context"
	"testing"
)

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	v := []byte("abc")
	if err := m.Set(ctx, "k", v); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v[0] = 'x'

	got, ok, err := m.Get(ctx, "k")
	if err != nil || !ok || string(got) != "abc" {
		t.Fatalf("Get: %q %v %v", got, ok, err)
	}
	got[1] = 'y'
	again, _, _ := m.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored value mutated through returned slice: %q", again)
	}

	_ = m.Delete(ctx, "k")
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatalf("key survived Delete")
	}
}
