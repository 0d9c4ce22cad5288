package session

import (
	"fmt"
	"time"

	"bandarscan/internal/domain/models"
)

// WIB is the Jakarta exchange timezone (UTC+7).
var WIB = time.FixedZone("WIB", 7*3600)

// IDX regular session in WIB.
const (
	OpenHour  = 9
	CloseHour = 16
)

// State labels.
const (
	StateOpen       = "OPEN"
	StatePreMarket  = "PRE_MARKET"
	StatePostMarket = "POST_MARKET"
	StateClosed     = "CLOSED"
)

// Clock answers trading-session questions for a point in time. The zero value
// uses the real wall clock; tests inject Now.
type Clock struct {
	Now func() time.Time
}

func NewClock() *Clock {
	return &Clock{Now: time.Now}
}

func (c *Clock) now() time.Time {
	if c.Now != nil {
		return c.Now().In(WIB)
	}
	return time.Now().In(WIB)
}

// IsWeekday reports whether t falls Mon-Fri in WIB.
func IsWeekday(t time.Time) bool {
	wd := t.In(WIB).Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// IsTradingHours reports whether t is inside the regular session
// (09:00-16:00 WIB on a weekday).
func IsTradingHours(t time.Time) bool {
	w := t.In(WIB)
	if !IsWeekday(w) {
		return false
	}
	return w.Hour() >= OpenHour && w.Hour() < CloseHour
}

// State classifies t into OPEN, PRE_MARKET, POST_MARKET or CLOSED.
// Pre-market runs 08:30-09:00, post-market 15:30-16:00.
func State(t time.Time) string {
	w := t.In(WIB)
	if !IsWeekday(w) {
		return StateClosed
	}
	hm := w.Hour()*100 + w.Minute()
	switch {
	case hm >= 830 && hm < 900:
		return StatePreMarket
	case hm >= 900 && hm < 1530:
		return StateOpen
	case hm >= 1530 && hm < 1600:
		return StatePostMarket
	default:
		return StateClosed
	}
}

// Status builds the market status block served on scan responses.
func (c *Clock) Status() models.MarketStatus {
	now := c.now()
	st := State(now)
	open := st == StateOpen

	var msg string
	switch {
	case open:
		close := time.Date(now.Year(), now.Month(), now.Day(), CloseHour, 0, 0, 0, WIB)
		d := close.Sub(now)
		msg = fmt.Sprintf("Market open - closes in %dh %dm", int(d.Hours()), int(d.Minutes())%60)
	case !IsWeekday(now):
		msg = "Market closed - weekend"
	case now.Hour() < OpenHour:
		msg = "Market closed - opens at 09:00"
	default:
		msg = "Market closed - opens tomorrow at 09:00"
	}

	return models.MarketStatus{
		State:       st,
		IsOpen:      open,
		Message:     msg,
		CurrentTime: now,
	}
}

// IsTrading reports whether the clock's current time is inside trading hours.
// Cache TTL and bucket width depend on this.
func (c *Clock) IsTrading() bool {
	return IsTradingHours(c.now())
}

// Current returns the clock's current time in WIB.
func (c *Clock) Current() time.Time {
	return c.now()
}
