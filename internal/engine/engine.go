// Package engine implements the constraint-based schedule generator: it
// filters a catalog snapshot against a hard-constraint rule set, enumerates
// mutually compatible section combinations with backtracking search, scores
// the survivors by soft preference and ranks them for presentation.
//
// The engine is computationally pure: it performs no I/O, holds no mutable
// shared state and treats both of its inputs as read-only, so concurrent
// Generate calls need no locking.
package engine

import (
	"go.uber.org/zap"

	"github.com/nsu-tools/course-scheduler-api/internal/models"
)

// Stats summarises one generation run for callers and dashboards.
type Stats struct {
	TotalSections        int            `json:"totalSections"`
	SectionsAfterFilter  int            `json:"sectionsAfterUnaryFilter"`
	CandidateCounts      map[string]int `json:"perCourseCandidateCounts"`
	UnsatisfiableCourses []string       `json:"unsatisfiableCourses"`
	Partial              bool           `json:"partial"`
	TotalFound           int            `json:"totalFound"`
}

// Result is the ranked outcome of one generation run.
type Result struct {
	Schedules []Schedule `json:"schedules"`
	Stats     Stats      `json:"stats"`
}

// Engine bundles the scoring weights and result sizing shared by every run.
type Engine struct {
	weights ScoreWeights
	topN    int
	logger  *zap.Logger
}

// New builds an engine. A zero topN falls back to 10, matching the
// dashboard's historical display size.
func New(weights ScoreWeights, topN int, logger *zap.Logger) *Engine {
	if topN <= 0 {
		topN = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{weights: weights, topN: topN, logger: logger}
}

// Generate runs the full pipeline: validate the rule set, unary-filter the
// catalog, search, score and rank. A missing complete schedule is not an
// error; the best partial assignments come back flagged instead. prevKeys
// is the previous run's canonical key set used for "new" detection; nil
// disables the comparison.
func (e *Engine) Generate(catalog []models.Section, cfg Config, prevKeys map[string]struct{}) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	eval := NewEvaluator(cfg)
	stats := Stats{
		TotalSections:   len(catalog),
		CandidateCounts: make(map[string]int, len(cfg.RequiredCourses)),
	}

	byCourse := make(map[string][]models.Section, len(cfg.RequiredCourses))
	for _, sec := range catalog {
		if !sec.Valid() {
			continue
		}
		if !eval.Admissible(sec) {
			continue
		}
		byCourse[sec.CourseCode] = append(byCourse[sec.CourseCode], sec)
		stats.SectionsAfterFilter++
	}

	groups := make([]courseGroup, 0, len(cfg.RequiredCourses))
	for _, course := range cfg.RequiredCourses {
		candidates := byCourse[course]
		stats.CandidateCounts[course] = len(candidates)
		if len(candidates) == 0 {
			stats.UnsatisfiableCourses = append(stats.UnsatisfiableCourses, course)
			continue
		}
		groups = append(groups, courseGroup{course: course, candidates: candidates})
	}

	complete, partial := newSearcher(eval, cfg.MaxDistinctDays, groups).run()

	// An unsatisfiable required course means no assignment can be complete,
	// however deep the search got.
	coveringAll := len(stats.UnsatisfiableCourses) == 0

	var schedules []Schedule
	if coveringAll && len(complete) > 0 {
		for _, sections := range complete {
			schedules = append(schedules, e.toSchedule(cfg, sections, false))
		}
	} else {
		stats.Partial = true
		fallback := partial
		if !coveringAll && len(complete) > 0 {
			// Full coverage of the satisfiable courses is still the best
			// partial answer available.
			fallback = complete
		}
		for _, sections := range fallback {
			schedules = append(schedules, e.toSchedule(cfg, sections, true))
		}
	}
	stats.TotalFound = len(schedules)

	ranked := Rank(schedules, e.topN, prevKeys)

	e.logger.Debug("generation finished",
		zap.Int("totalSections", stats.TotalSections),
		zap.Int("afterFilter", stats.SectionsAfterFilter),
		zap.Int("found", stats.TotalFound),
		zap.Bool("partial", stats.Partial),
		zap.Strings("unsatisfiable", stats.UnsatisfiableCourses),
	)

	return &Result{Schedules: ranked, Stats: stats}, nil
}

// toSchedule restores required-course order (the search reorders groups for
// branching), scores the assignment and freezes it.
func (e *Engine) toSchedule(cfg Config, sections []models.Section, isPartial bool) Schedule {
	ordered := make([]models.Section, 0, len(sections))
	for _, course := range cfg.RequiredCourses {
		for _, sec := range sections {
			if sec.CourseCode == course {
				ordered = append(ordered, sec)
				break
			}
		}
	}
	return Schedule{
		Sections:  ordered,
		Score:     e.weights.Score(ordered),
		IsPartial: isPartial,
	}
}
