package engine

import (
	"strings"

	"github.com/nsu-tools/course-scheduler-api/internal/models"
)

// Evaluator answers the two questions the search asks: may this section
// ever be chosen (unary), and may these two sections coexist (pairwise).
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	cfg Config
}

// NewEvaluator binds an evaluator to a rule set.
func NewEvaluator(cfg Config) Evaluator {
	return Evaluator{cfg: cfg}
}

// Admissible runs every unary check against a single section.
func (e Evaluator) Admissible(sec models.Section) bool {
	if sec.SeatsAvailable <= 0 {
		return false
	}
	if e.cfg.ExcludeEvening && sec.StartTime >= e.cfg.EveningStart {
		return false
	}
	switch sec.Kind {
	case models.KindLab:
		if e.cfg.LabForbiddenDay != 0 && sec.Days.Has(e.cfg.LabForbiddenDay) {
			return false
		}
		if e.cfg.LabForbiddenStart != models.ClockNone && sec.StartTime == e.cfg.LabForbiddenStart {
			return false
		}
	default:
		if sec.StartTime < e.cfg.MinLectureStart {
			return false
		}
		if !e.dayPatternAllowed(sec.Days) {
			return false
		}
	}
	return e.instructorAllowed(sec)
}

// Compatible reports whether adding b next to an already-chosen a keeps the
// schedule legal: no time conflict and no violated pairing rule.
func (e Evaluator) Compatible(a, b models.Section) bool {
	if Conflicts(a, b) {
		return false
	}
	if _, ok := e.cfg.pairFor(a.CourseCode, b.CourseCode); ok && a.SectionNumber != b.SectionNumber {
		return false
	}
	return true
}

// Conflicts reports whether two sections collide: they share at least one
// meeting day and their [start, end) intervals overlap. Back-to-back
// sections (endA == startB) do not conflict. Symmetric by construction.
func Conflicts(a, b models.Section) bool {
	if !a.Days.Intersects(b.Days) {
		return false
	}
	return a.StartTime < b.EndTime && b.StartTime < a.EndTime
}

func (e Evaluator) dayPatternAllowed(days models.DaySet) bool {
	if len(e.cfg.AllowedDayPatterns) == 0 {
		return true
	}
	for _, pattern := range e.cfg.AllowedDayPatterns {
		if days == pattern {
			return true
		}
	}
	return false
}

func (e Evaluator) instructorAllowed(sec models.Section) bool {
	rule, ok := e.cfg.InstructorRules[sec.CourseCode]
	if !ok || len(rule.Instructors) == 0 {
		return true
	}
	matched := false
	for _, instructor := range rule.Instructors {
		if strings.EqualFold(strings.TrimSpace(instructor), strings.TrimSpace(sec.Instructor)) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	if len(rule.Sections) == 0 {
		return true
	}
	for _, number := range rule.Sections {
		if number == sec.SectionNumber {
			return true
		}
	}
	return false
}
