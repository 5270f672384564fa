package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nsu-tools/course-scheduler-api/internal/models"
)

func TestScoreDayBonuses(t *testing.T) {
	weights := DefaultScoreWeights()

	fourDays := []models.Section{
		section("AAA", "1", "ST", models.NewClock(11, 0), models.NewClock(12, 30)),
		section("BBB", "1", "MW", models.NewClock(11, 0), models.NewClock(12, 30)),
	}
	assert.Equal(t, 100.0, weights.Score(fourDays))

	fiveDays := append(fourDays, section("CCC", "1", "R", models.NewClock(11, 0), models.NewClock(12, 30)))
	assert.Equal(t, 50.0, weights.Score(fiveDays))

	twoDays := fourDays[:1]
	assert.Equal(t, 0.0, weights.Score(twoDays))
}

func TestScoreEarlyLabPenalty(t *testing.T) {
	weights := DefaultScoreWeights()

	// A 09:00 lab is two hours before the 11:00 threshold.
	earlyLab := []models.Section{
		section("PHYL", "1", "R", models.NewClock(9, 0), models.NewClock(12, 0)),
	}
	assert.Equal(t, -2.0, weights.Score(earlyLab))

	// Lectures at the same hour are not penalised.
	earlyLecture := []models.Section{
		section("AAA", "1", "R", models.NewClock(9, 0), models.NewClock(12, 0)),
	}
	assert.Equal(t, 0.0, weights.Score(earlyLecture))
}

func TestScoreIdlePenalty(t *testing.T) {
	weights := DefaultScoreWeights()

	// One hour idle between the Sunday meetings.
	gapped := []models.Section{
		section("AAA", "1", "S", models.NewClock(11, 0), models.NewClock(12, 30)),
		section("BBB", "1", "S", models.NewClock(13, 30), models.NewClock(15, 0)),
	}
	assert.Equal(t, -60.0, weights.Score(gapped))

	// Back-to-back meetings cost nothing.
	packed := []models.Section{
		section("AAA", "1", "S", models.NewClock(11, 0), models.NewClock(12, 30)),
		section("BBB", "1", "S", models.NewClock(12, 30), models.NewClock(14, 0)),
	}
	assert.Equal(t, 0.0, weights.Score(packed))
}

func TestScoreIdempotent(t *testing.T) {
	weights := DefaultScoreWeights()
	sections := []models.Section{
		section("AAA", "1", "ST", models.NewClock(11, 0), models.NewClock(12, 30)),
		section("PHYL", "1", "M", models.NewClock(9, 0), models.NewClock(12, 0)),
		section("BBB", "1", "MW", models.NewClock(13, 0), models.NewClock(14, 30)),
	}

	first := weights.Score(sections)
	second := weights.Score(sections)
	assert.Equal(t, first, second)
}

func TestRankOrderingAndTruncation(t *testing.T) {
	a := Schedule{Sections: []models.Section{section("AAA", "1", "ST", models.NewClock(11, 0), models.NewClock(12, 30))}, Score: 50}
	b := Schedule{Sections: []models.Section{section("AAA", "2", "ST", models.NewClock(11, 0), models.NewClock(12, 30))}, Score: 100}
	c := Schedule{Sections: []models.Section{section("AAA", "3", "ST", models.NewClock(11, 0), models.NewClock(12, 30))}, Score: 100}

	ranked := Rank([]Schedule{a, c, b}, 0, nil)
	assert.Equal(t, "AAA:2", ranked[0].CanonicalKey(), "ties break on canonical key")
	assert.Equal(t, "AAA:3", ranked[1].CanonicalKey())
	assert.Equal(t, "AAA:1", ranked[2].CanonicalKey())

	truncated := Rank([]Schedule{a, c, b}, 2, nil)
	assert.Len(t, truncated, 2)
}

func TestRankNewFlags(t *testing.T) {
	sched := Schedule{Sections: []models.Section{section("AAA", "1", "ST", models.NewClock(11, 0), models.NewClock(12, 30))}}

	// nil baseline disables detection entirely.
	ranked := Rank([]Schedule{sched}, 0, nil)
	assert.False(t, ranked[0].IsNew)

	// An empty but non-nil baseline marks everything new.
	ranked = Rank([]Schedule{sched}, 0, map[string]struct{}{})
	assert.True(t, ranked[0].IsNew)

	ranked = Rank([]Schedule{sched}, 0, map[string]struct{}{"AAA:1": {}})
	assert.False(t, ranked[0].IsNew)
}
