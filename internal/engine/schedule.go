package engine

import (
	"github.com/nsu-tools/course-scheduler-api/internal/models"
)

// Schedule is one assignment of sections to required courses. Sections
// follow the required-course order; a partial schedule covers fewer than
// all required courses. Schedules are never mutated after scoring.
type Schedule struct {
	Sections  []models.Section `json:"sections"`
	Score     float64          `json:"score"`
	IsPartial bool             `json:"isPartial"`
	IsNew     bool             `json:"isNew"`
}

// CanonicalKey is the deterministic, order-independent identity of the
// assignment: sorted course:section pairs. Used for equality and for
// "new" detection against the previous run.
func (s Schedule) CanonicalKey() string {
	return models.CanonicalKey(s.Sections)
}

// DaySet returns the union of meeting days across the assignment.
func (s Schedule) DaySet() models.DaySet {
	var union models.DaySet
	for _, sec := range s.Sections {
		union = union.Union(sec.Days)
	}
	return union
}

// Courses lists the covered course codes in assignment order.
func (s Schedule) Courses() []string {
	courses := make([]string, 0, len(s.Sections))
	for _, sec := range s.Sections {
		courses = append(courses, sec.CourseCode)
	}
	return courses
}
