package engine

import (
	"fmt"
	"strings"

	"github.com/nsu-tools/course-scheduler-api/internal/models"
	appErrors "github.com/nsu-tools/course-scheduler-api/pkg/errors"
)

// CoursePair links a lecture course to its lab; chosen sections for the two
// must carry identical section numbers while the rule is active.
type CoursePair struct {
	Lecture string `json:"lecture"`
	Lab     string `json:"lab"`
}

// InstructorRule restricts a course to specific instructors and, optionally,
// to specific section numbers. An empty Sections list leaves sections open.
type InstructorRule struct {
	Instructors []string `json:"instructors"`
	Sections    []string `json:"sections"`
}

// Config is the active hard-constraint rule set for one generation run.
// It is either assembled from built-in defaults or deserialized from a
// caller-supplied request; the engine only ever reads it.
type Config struct {
	// RequiredCourses must each receive exactly one section. A paired lab
	// counts as its own required entry. Order defines assignment order in
	// emitted schedules.
	RequiredCourses []string

	// MinLectureStart is the earliest permitted start for LECTURE sections.
	MinLectureStart models.ClockTime

	// AllowedDayPatterns lists the exact day sets a LECTURE section may
	// meet on. Empty means unrestricted.
	AllowedDayPatterns []models.DaySet

	// LabForbiddenDay excludes labs meeting on the given day. Zero disables.
	LabForbiddenDay models.Day

	// LabForbiddenStart excludes labs starting exactly at the given time.
	// ClockNone disables.
	LabForbiddenStart models.ClockTime

	// PairedCourses carries the lecture/lab section-number pairing rules.
	// Empty disables pairing entirely.
	PairedCourses []CoursePair

	// InstructorRules maps course code to its instructor restriction.
	InstructorRules map[string]InstructorRule

	// MaxDistinctDays caps the union of meeting days across a schedule.
	MaxDistinctDays int

	// ExcludeEvening drops sections starting at or after EveningStart
	// before the search begins.
	ExcludeEvening bool
	EveningStart   models.ClockTime
}

// Validate checks the structural invariants before any search work starts.
// Violations surface as InvalidConfiguration and abort the run.
func (c Config) Validate() error {
	if len(c.RequiredCourses) == 0 {
		return appErrors.Clone(appErrors.ErrInvalidConfiguration, "requiredCourses must not be empty")
	}
	seen := make(map[string]bool, len(c.RequiredCourses))
	for _, course := range c.RequiredCourses {
		if strings.TrimSpace(course) == "" {
			return appErrors.Clone(appErrors.ErrInvalidConfiguration, "requiredCourses must not contain blank entries")
		}
		if seen[course] {
			return appErrors.Clone(appErrors.ErrInvalidConfiguration, fmt.Sprintf("course %s listed more than once", course))
		}
		seen[course] = true
	}
	if c.MaxDistinctDays <= 0 {
		return appErrors.Clone(appErrors.ErrInvalidConfiguration, "maxDistinctDays must be positive")
	}
	for _, pattern := range c.AllowedDayPatterns {
		if pattern == 0 {
			return appErrors.Clone(appErrors.ErrInvalidConfiguration, "allowedDayPatterns must not contain empty day sets")
		}
	}
	for _, pair := range c.PairedCourses {
		if pair.Lecture == "" || pair.Lab == "" {
			return appErrors.Clone(appErrors.ErrInvalidConfiguration, "paired course rules need both a lecture and a lab course")
		}
		if pair.Lecture == pair.Lab {
			return appErrors.Clone(appErrors.ErrInvalidConfiguration, fmt.Sprintf("course %s cannot be paired with itself", pair.Lecture))
		}
	}
	if c.ExcludeEvening && c.EveningStart <= 0 {
		return appErrors.Clone(appErrors.ErrInvalidConfiguration, "eveningStart required when evening exclusion is enabled")
	}
	return nil
}

// pairFor returns the pairing rule covering both course codes, if any.
func (c Config) pairFor(courseA, courseB string) (CoursePair, bool) {
	for _, pair := range c.PairedCourses {
		if (pair.Lecture == courseA && pair.Lab == courseB) || (pair.Lecture == courseB && pair.Lab == courseA) {
			return pair, true
		}
	}
	return CoursePair{}, false
}
