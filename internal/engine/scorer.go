package engine

import (
	"sort"

	"github.com/nsu-tools/course-scheduler-api/internal/models"
)

// ScoreWeights are the soft-preference knobs. They only influence ranking,
// never candidacy.
type ScoreWeights struct {
	// IdealDays earns IdealDayBonus when the distinct-day count matches it;
	// AcceptableDays earns the smaller AcceptableDayBonus.
	IdealDays          int
	IdealDayBonus      float64
	AcceptableDays     int
	AcceptableDayBonus float64

	// LabMorningThreshold penalises labs starting before it by one point
	// per hour of earliness.
	LabMorningThreshold models.ClockTime
}

// DefaultScoreWeights mirror the long-standing dashboard tuning: four class
// days is perfect, five is acceptable, labs before 11:00 cost points.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		IdealDays:           4,
		IdealDayBonus:       100,
		AcceptableDays:      5,
		AcceptableDayBonus:  50,
		LabMorningThreshold: models.NewClock(11, 0),
	}
}

// Score computes the preference score of an assignment. Pure and
// deterministic: identical input always yields the identical number.
func (w ScoreWeights) Score(sections []models.Section) float64 {
	var score float64

	var union models.DaySet
	for _, sec := range sections {
		union = union.Union(sec.Days)
	}
	switch union.Count() {
	case w.IdealDays:
		score += w.IdealDayBonus
	case w.AcceptableDays:
		score += w.AcceptableDayBonus
	}

	for _, sec := range sections {
		if sec.Kind == models.KindLab && sec.StartTime < w.LabMorningThreshold {
			score -= float64(w.LabMorningThreshold.Hour() - sec.StartTime.Hour())
		}
	}

	score -= float64(idleMinutes(sections))
	return score
}

// idleMinutes sums the gaps between consecutive meetings on each day.
func idleMinutes(sections []models.Section) int {
	type window struct {
		start models.ClockTime
		end   models.ClockTime
	}
	byDay := make(map[models.Day][]window)
	for _, sec := range sections {
		for _, day := range sec.Days.Days() {
			byDay[day] = append(byDay[day], window{start: sec.StartTime, end: sec.EndTime})
		}
	}

	total := 0
	for _, windows := range byDay {
		if len(windows) < 2 {
			continue
		}
		sort.Slice(windows, func(i, j int) bool { return windows[i].start < windows[j].start })
		for i := 1; i < len(windows); i++ {
			if gap := windows[i].start.Minutes() - windows[i-1].end.Minutes(); gap > 0 {
				total += gap
			}
		}
	}
	return total
}
