package domain

import (
	"errors"
	"testing"
	"time"
)

func TestAlertCrossed(t *testing.T) {
	tests := []struct {
		name  string
		cond  Condition
		price float64
		want  bool
	}{
		{"above below target", ConditionAbove, 59999.99, false},
		{"above at target", ConditionAbove, 60000, true},
		{"above over target", ConditionAbove, 61000, true},
		{"below over target", ConditionBelow, 60000.01, false},
		{"below at target", ConditionBelow, 60000, true},
		{"below under target", ConditionBelow, 1, true},
		{"unknown condition", Condition("sideways"), 60000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Alert{TargetPrice: 60000, Condition: tt.cond}
			if got := a.Crossed(tt.price); got != tt.want {
				t.Errorf("Crossed(%v) = %v, want %v", tt.price, got, tt.want)
			}
		})
	}
}

func TestAlertTriggerIsTerminal(t *testing.T) {
	a := Alert{IsActive: true}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	if !a.Trigger(at) {
		t.Fatalf("expected first trigger to succeed")
	}
	if !a.IsTriggered || a.IsActive || a.TriggeredAt == nil || !a.TriggeredAt.Equal(at) {
		t.Errorf("unexpected state after trigger: %+v", a)
	}
	if a.Trigger(at.Add(time.Minute)) {
		t.Errorf("expected second trigger to be refused")
	}
	if !a.TriggeredAt.Equal(at) {
		t.Errorf("expected triggeredAt unchanged, got %v", a.TriggeredAt)
	}
	if a.Toggle() || a.IsActive {
		t.Errorf("expected toggle of triggered alert to be refused")
	}
	if a.Eligible() {
		t.Errorf("triggered alert must not be eligible")
	}
}

func TestAlertToggle(t *testing.T) {
	a := Alert{IsActive: true}
	a.Toggle()
	if a.IsActive || a.Eligible() {
		t.Errorf("expected inactive alert, got %+v", a)
	}
	a.Toggle()
	if !a.Eligible() {
		t.Errorf("expected eligible alert, got %+v", a)
	}
}

func TestAlertDraftValidate(t *testing.T) {
	valid := AlertDraft{AssetID: "bitcoin", TargetPrice: 60000, Condition: ConditionAbove}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid draft, got %v", err)
	}

	bad := []AlertDraft{
		{TargetPrice: 1, Condition: ConditionAbove},
		{AssetID: "bitcoin", TargetPrice: 0, Condition: ConditionAbove},
		{AssetID: "bitcoin", TargetPrice: 1, Condition: "near"},
	}
	for _, d := range bad {
		if err := d.Validate(); !errors.Is(err, ErrInvalidAlert) {
			t.Errorf("expected ErrInvalidAlert for %+v, got %v", d, err)
		}
	}
}
