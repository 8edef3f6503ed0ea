package timeutil

import (
	"testing"
	"time"
)

func TestRealClock(t *testing.T) {
	var c Clock = RealClock{}
	before := time.Now()
	now := c.Now()
	if now.Before(before) {
		t.Errorf("Now() = %v, before %v", now, before)
	}
	if c.Since(before) < 0 {
		t.Error("Since() returned a negative duration")
	}
}

func TestMockClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	if got := c.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}
	if got := c.Now(); !got.Equal(start) {
		t.Errorf("Now() moved without a step: %v", got)
	}

	c.Advance(time.Minute)
	if got := c.Since(start); got != time.Minute {
		t.Errorf("Since() = %v, want 1m", got)
	}

	later := start.Add(time.Hour)
	c.Set(later)
	if got := c.Now(); !got.Equal(later) {
		t.Errorf("Now() after Set = %v, want %v", got, later)
	}
}

func TestSteppingClock(t *testing.T) {
	start := time.Unix(0, 100)
	c := NewSteppingClock(start, time.Nanosecond)

	for i := int64(0); i < 3; i++ {
		if got := c.Now().UnixNano(); got != 100+i {
			t.Errorf("call %d: Now() = %d, want %d", i, got, 100+i)
		}
	}
	if got := c.Since(start); got != 3*time.Nanosecond {
		t.Errorf("Since() = %v, want 3ns", got)
	}
}
