package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// Time of day as minutes after midnight. Transit schedules repeat daily,
// so no date component is carried.
type Clock int

// ParseClock reads an "HH:MM" 24-hour time.
func ParseClock(s string) (Clock, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("parse clock %q: missing ':'", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("parse clock %q: invalid hour", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || len(mm) != 2 {
		return 0, fmt.Errorf("parse clock %q: invalid minute", s)
	}
	return Clock(h*60 + m), nil
}

func NewClock(hour, minute int) Clock { return Clock(hour*60 + minute) }

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute()) }

// Minutes from c until later, wrapping past midnight when later is earlier in the day.
func (c Clock) Until(later Clock) int {
	d := int(later) - int(c)
	if d < 0 {
		d += minutesPerDay
	}
	return d
}

func (c Clock) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
