package session

import (
	"testing"
	"time"
)

// 2026-08-26 is a Wednesday, 2026-08-29 a Saturday.
func wib(day, hour, min int) time.Time {
	return time.Date(2026, 8, day, hour, min, 0, 0, WIB)
}

func TestIsWeekday(t *testing.T) {
	if !IsWeekday(wib(26, 12, 0)) {
		t.Fatal("Wednesday should be a weekday")
	}
	if IsWeekday(wib(29, 12, 0)) {
		t.Fatal("Saturday should not be a weekday")
	}
}

func TestIsTradingHours(t *testing.T) {
	cases := []struct {
		t    time.Time
		want bool
	}{
		{wib(26, 8, 59), false},
		{wib(26, 9, 0), true},
		{wib(26, 15, 59), true},
		{wib(26, 16, 0), false},
		{wib(29, 10, 0), false}, // weekend
	}
	for _, tc := range cases {
		if got := IsTradingHours(tc.t); got != tc.want {
			t.Fatalf("%v: expected %v, got %v", tc.t, tc.want, got)
		}
	}
}

func TestState(t *testing.T) {
	cases := []struct {
		t    time.Time
		want string
	}{
		{wib(26, 8, 15), StateClosed},
		{wib(26, 8, 30), StatePreMarket},
		{wib(26, 8, 59), StatePreMarket},
		{wib(26, 9, 0), StateOpen},
		{wib(26, 15, 29), StateOpen},
		{wib(26, 15, 30), StatePostMarket},
		{wib(26, 15, 59), StatePostMarket},
		{wib(26, 16, 0), StateClosed},
		{wib(29, 10, 0), StateClosed},
	}
	for _, tc := range cases {
		if got := State(tc.t); got != tc.want {
			t.Fatalf("%v: expected %s, got %s", tc.t, tc.want, got)
		}
	}
}

func TestStateConvertsZone(t *testing.T) {
	// 03:00 UTC is 10:00 WIB.
	utc := time.Date(2026, 8, 26, 3, 0, 0, 0, time.UTC)
	if got := State(utc); got != StateOpen {
		t.Fatalf("expected OPEN for 10:00 WIB, got %s", got)
	}
}

func TestStatusOpen(t *testing.T) {
	c := &Clock{Now: func() time.Time { return wib(26, 13, 30) }}
	got := c.Status()
	if got.State != StateOpen || !got.IsOpen {
		t.Fatalf("expected open status, got %+v", got)
	}
	if got.Message != "Market open - closes in 2h 30m" {
		t.Fatalf("unexpected message %q", got.Message)
	}
}

func TestStatusClosed(t *testing.T) {
	cases := []struct {
		t    time.Time
		want string
	}{
		{wib(29, 12, 0), "Market closed - weekend"},
		{wib(26, 7, 0), "Market closed - opens at 09:00"},
		{wib(26, 17, 0), "Market closed - opens tomorrow at 09:00"},
	}
	for _, tc := range cases {
		c := &Clock{Now: func() time.Time { return tc.t }}
		got := c.Status()
		if got.IsOpen {
			t.Fatalf("%v: expected closed", tc.t)
		}
		if got.Message != tc.want {
			t.Fatalf("%v: expected %q, got %q", tc.t, tc.want, got.Message)
		}
	}
}

func TestClockIsTrading(t *testing.T) {
	trading := &Clock{Now: func() time.Time { return wib(26, 10, 0) }}
	if !trading.IsTrading() {
		t.Fatal("expected trading")
	}
	after := &Clock{Now: func() time.Time { return wib(26, 20, 0) }}
	if after.IsTrading() {
		t.Fatal("expected not trading")
	}
}

func TestClockCurrentInWIB(t *testing.T) {
	c := &Clock{Now: func() time.Time { return time.Date(2026, 8, 26, 3, 0, 0, 0, time.UTC) }}
	got := c.Current()
	if got.Hour() != 10 {
		t.Fatalf("expected 10:00 WIB, got %v", got)
	}
}
