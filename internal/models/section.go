package models

import (
	"fmt"
	"sort"
	"strings"
)

// Day identifies one symbol of the university week: Sunday through
// Thursday plus the Saturday column used for make-up classes.
type Day byte

const (
	DaySunday    Day = 'S'
	DayMonday    Day = 'M'
	DayTuesday   Day = 'T'
	DayWednesday Day = 'W'
	DayThursday  Day = 'R'
	DaySaturday  Day = 'A'
)

// dayOrder fixes the canonical rendering order of day sets.
var dayOrder = []Day{DaySunday, DayMonday, DayTuesday, DayWednesday, DayThursday, DaySaturday}

var dayBits = map[Day]uint8{
	DaySunday:    1 << 0,
	DayMonday:    1 << 1,
	DayTuesday:   1 << 2,
	DayWednesday: 1 << 3,
	DayThursday:  1 << 4,
	DaySaturday:  1 << 5,
}

// DaySet is a set of Day symbols backed by a bitmask. The zero value is empty.
type DaySet uint8

// ParseDaySet builds a DaySet from a compact day string such as "ST" or "MW".
// Unknown symbols are rejected; duplicates collapse.
func ParseDaySet(raw string) (DaySet, error) {
	var set DaySet
	for _, r := range strings.ToUpper(strings.TrimSpace(raw)) {
		bit, ok := dayBits[Day(r)]
		if !ok {
			return 0, fmt.Errorf("unknown day symbol %q in %q", string(r), raw)
		}
		set |= DaySet(bit)
	}
	return set, nil
}

// MustDaySet is a fixture helper; it panics on malformed input.
func MustDaySet(raw string) DaySet {
	set, err := ParseDaySet(raw)
	if err != nil {
		panic(err)
	}
	return set
}

// Has reports whether the set contains the given day.
func (s DaySet) Has(d Day) bool {
	return s&DaySet(dayBits[d]) != 0
}

// Union merges two day sets.
func (s DaySet) Union(other DaySet) DaySet {
	return s | other
}

// Intersects reports whether the two sets share at least one day.
func (s DaySet) Intersects(other DaySet) bool {
	return s&other != 0
}

// Count returns the number of distinct days in the set.
func (s DaySet) Count() int {
	n := 0
	for v := s; v != 0; v &= v - 1 {
		n++
	}
	return n
}

// Days lists the members in canonical order.
func (s DaySet) Days() []Day {
	var days []Day
	for _, d := range dayOrder {
		if s.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

// String renders the set in canonical SMTWRA order, e.g. "ST".
func (s DaySet) String() string {
	var b strings.Builder
	for _, d := range dayOrder {
		if s.Has(d) {
			b.WriteByte(byte(d))
		}
	}
	return b.String()
}

// MarshalJSON renders the set as its canonical string.
func (s DaySet) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON parses a compact day string.
func (s *DaySet) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	parsed, err := ParseDaySet(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ClockTime is a time of day in minutes since midnight.
type ClockTime int

// ClockNone marks an unset ClockTime in optional rule fields.
const ClockNone ClockTime = -1

// NewClock builds a ClockTime from hour and minute.
func NewClock(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClock accepts 24-hour "15:04" strings.
func ParseClock(raw string) (ClockTime, error) {
	raw = strings.TrimSpace(raw)
	var hour, minute int
	if _, err := fmt.Sscanf(raw, "%d:%d", &hour, &minute); err != nil {
		return ClockNone, fmt.Errorf("malformed clock time %q", raw)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ClockNone, fmt.Errorf("clock time %q out of range", raw)
	}
	return NewClock(hour, minute), nil
}

// Hour returns the hour component.
func (t ClockTime) Hour() int {
	return int(t) / 60
}

// Minutes returns the raw minute count since midnight.
func (t ClockTime) Minutes() int {
	return int(t)
}

func (t ClockTime) String() string {
	if t < 0 {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MarshalJSON renders the time as "HH:MM", or null when unset.
func (t ClockTime) MarshalJSON() ([]byte, error) {
	if t < 0 {
		return []byte("null"), nil
	}
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON parses a 24-hour "HH:MM" string.
func (t *ClockTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "null" || raw == "" {
		*t = ClockNone
		return nil
	}
	parsed, err := ParseClock(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// SectionKind distinguishes lecture meetings from lab meetings.
type SectionKind string

const (
	KindLecture SectionKind = "LECTURE"
	KindLab     SectionKind = "LAB"
)

// KindForCourse derives the section kind from the course code: lab codes
// carry a trailing "L" suffix (e.g. PHY108L).
func KindForCourse(courseCode string) SectionKind {
	if strings.HasSuffix(strings.ToUpper(strings.TrimSpace(courseCode)), "L") {
		return KindLab
	}
	return KindLecture
}

// Section is one offered meeting-time instance of a course. Sections are
// built once per catalog refresh and treated as immutable afterwards.
type Section struct {
	CourseCode     string      `json:"courseCode"`
	SectionNumber  string      `json:"sectionNumber"`
	Kind           SectionKind `json:"kind"`
	Title          string      `json:"title,omitempty"`
	Credit         int         `json:"credit,omitempty"`
	Instructor     string      `json:"instructor"`
	Days           DaySet      `json:"days"`
	StartTime      ClockTime   `json:"startTime"`
	EndTime        ClockTime   `json:"endTime"`
	Room           string      `json:"room"`
	SeatsAvailable int         `json:"seatsAvailable"`
}

// Valid reports whether the section obeys the catalog invariants: a
// non-empty day set, a positive time interval and a non-negative seat count.
func (s Section) Valid() bool {
	return s.Days != 0 && s.StartTime >= 0 && s.StartTime < s.EndTime && s.SeatsAvailable >= 0
}

// Key is the canonical "course:section" identity used for assignment keys.
func (s Section) Key() string {
	return s.CourseCode + ":" + s.SectionNumber
}

// CanonicalKey builds a deterministic, order-independent identifier for a
// set of chosen sections: sorted course:section pairs joined with "|".
func CanonicalKey(sections []Section) string {
	keys := make([]string, 0, len(sections))
	for _, s := range sections {
		keys = append(keys, s.Key())
	}
	sort.Strings(keys)
	return strings.Join(keys, "|")
}
