// Package recurrence decides whether a routine is due on a given calendar
// date. Weekdays are numbered Monday=0 … Sunday=6; every call site that needs
// "today's weekday" must go through FromTime so the remap from Go's
// Sunday-first numbering happens in exactly one place.
package recurrence

import (
	"fmt"
	"strings"
	"time"
)

// Weekday with Monday as index 0 and Sunday as index 6.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// labels 后端约定的星期标签，按 Monday=0 排列
var labels = [7]string{"월", "화", "수", "목", "금", "토", "일"}

func (w Weekday) String() string {
	if w < Monday || w > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return labels[w]
}

// FromTime remaps Go's Sunday-first weekday numbering to Monday-first.
func FromTime(t time.Time) Weekday {
	raw := int(t.Weekday()) // Sunday=0 … Saturday=6
	if raw == 0 {
		return Sunday
	}
	return Weekday(raw - 1)
}

// ParseWeekday resolves a single label to its weekday.
func ParseWeekday(label string) (Weekday, error) {
	for i, l := range labels {
		if l == label {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday label: %q", label)
}

// Set is a recurrence rule: the set of weekdays a routine is due.
type Set uint8

// NewSet builds a set from weekdays.
func NewSet(days ...Weekday) Set {
	var s Set
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

// ParseSet parses the backend's comma-joined label pattern, e.g. "월,수,금".
// An empty pattern is invalid: every routine recurs on at least one day.
func ParseSet(pattern string) (Set, error) {
	var s Set
	for _, part := range strings.Split(pattern, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := ParseWeekday(part)
		if err != nil {
			return 0, err
		}
		s |= 1 << uint(d)
	}
	if s == 0 {
		return 0, fmt.Errorf("empty recurrence pattern: %q", pattern)
	}
	return s, nil
}

// Contains reports whether the set includes the weekday.
func (s Set) Contains(d Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// IsDue reports whether a routine with this rule is due on the date.
func (s Set) IsDue(date time.Time) bool {
	return s.Contains(FromTime(date))
}

// String renders the set back into the backend's label pattern.
func (s Set) String() string {
	var parts []string
	for d := Monday; d <= Sunday; d++ {
		if s.Contains(d) {
			parts = append(parts, labels[d])
		}
	}
	return strings.Join(parts, ",")
}

// DateKey formats a date the way occurrence keys and the backend expect it.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
