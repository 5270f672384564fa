package engine

import (
	"sort"

	"github.com/nsu-tools/course-scheduler-api/internal/models"
)

// maxPartialResults bounds how many equally-sized best partial assignments
// are retained; pathological rule sets can otherwise produce thousands of
// interchangeable fragments that the ranker would truncate anyway.
const maxPartialResults = 256

// courseGroup is one required course together with its unary-filtered
// candidate sections, in catalog order.
type courseGroup struct {
	course     string
	candidates []models.Section
}

// searcher runs the backtracking enumeration over ordered course groups.
type searcher struct {
	eval    Evaluator
	maxDays int
	groups  []courseGroup

	current  []models.Section
	complete [][]models.Section

	bestPartial     [][]models.Section
	bestPartialKeys map[string]struct{}
	bestPartialLen  int
}

// newSearcher orders groups most-constrained-first. The ordering is a
// branching heuristic only; it cannot change which schedules exist.
func newSearcher(eval Evaluator, maxDays int, groups []courseGroup) *searcher {
	ordered := make([]courseGroup, len(groups))
	copy(ordered, groups)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].candidates) < len(ordered[j].candidates)
	})
	return &searcher{
		eval:    eval,
		maxDays: maxDays,
		groups:  ordered,
		current: make([]models.Section, 0, len(ordered)),
	}
}

// run enumerates every maximal assignment. It returns the complete
// assignments and, separately, the largest partial assignments found, in
// discovery order. Either list may be empty; an empty catalog terminates
// immediately with both empty.
func (s *searcher) run() (complete, partial [][]models.Section) {
	s.descend(0)
	return s.complete, s.bestPartial
}

func (s *searcher) descend(index int) {
	if index == len(s.groups) {
		if len(s.current) > 0 {
			s.complete = append(s.complete, snapshot(s.current))
		}
		return
	}
	for _, candidate := range s.groups[index].candidates {
		if !s.fitsCurrent(candidate) {
			continue
		}
		s.current = append(s.current, candidate)
		if s.withinDayBudget() {
			s.recordPartial()
			s.descend(index + 1)
		}
		s.current = s.current[:len(s.current)-1]
	}
}

// fitsCurrent pairwise-checks the candidate against every chosen section.
func (s *searcher) fitsCurrent(candidate models.Section) bool {
	for _, chosen := range s.current {
		if !s.eval.Compatible(chosen, candidate) {
			return false
		}
	}
	return true
}

// withinDayBudget prunes branches whose day union already exceeds the cap.
func (s *searcher) withinDayBudget() bool {
	var union models.DaySet
	for _, sec := range s.current {
		union = union.Union(sec.Days)
	}
	return union.Count() <= s.maxDays
}

// recordPartial tracks the assignments with the greatest satisfied-course
// count so the engine can fall back to them when no complete schedule
// exists. Ties keep discovery order, deduplicated by canonical key.
func (s *searcher) recordPartial() {
	switch {
	case len(s.current) > s.bestPartialLen:
		candidate := snapshot(s.current)
		s.bestPartialLen = len(s.current)
		s.bestPartial = [][]models.Section{candidate}
		s.bestPartialKeys = map[string]struct{}{models.CanonicalKey(candidate): {}}
	case len(s.current) == s.bestPartialLen && len(s.bestPartial) < maxPartialResults:
		candidate := snapshot(s.current)
		key := models.CanonicalKey(candidate)
		if _, seen := s.bestPartialKeys[key]; seen {
			return
		}
		s.bestPartialKeys[key] = struct{}{}
		s.bestPartial = append(s.bestPartial, candidate)
	}
}

func snapshot(sections []models.Section) []models.Section {
	copied := make([]models.Section, len(sections))
	copy(copied, sections)
	return copied
}
