package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsu-tools/course-scheduler-api/internal/models"
)

func TestRecordPartialDeduplicatesByKey(t *testing.T) {
	s := &searcher{}
	sec := section("AAA", "1", "ST", models.NewClock(11, 0), models.NewClock(12, 30))

	s.current = []models.Section{sec}
	s.recordPartial()
	s.recordPartial()

	require.Len(t, s.bestPartial, 1, "identical assignments collapse to one partial")

	// A larger assignment resets the retained set.
	s.current = []models.Section{sec, section("BBB", "1", "MW", models.NewClock(11, 0), models.NewClock(12, 30))}
	s.recordPartial()
	require.Len(t, s.bestPartial, 1)
	assert.Equal(t, 2, s.bestPartialLen)
}

func TestRecordPartialHonorsCap(t *testing.T) {
	s := &searcher{}

	for i := 0; i < maxPartialResults+50; i++ {
		s.current = []models.Section{
			section("AAA", fmt.Sprintf("%d", i), "ST", models.NewClock(11, 0), models.NewClock(12, 30)),
		}
		s.recordPartial()
	}

	assert.Len(t, s.bestPartial, maxPartialResults)
}

func TestSearchDuplicateCatalogRowsYieldOnePartial(t *testing.T) {
	// Cross-listing collapse can leave two identical rows in a catalog. Both
	// BBB candidates collide with AAA, so every branch re-records the same
	// one-course partial.
	dup := section("AAA", "1", "ST", models.NewClock(11, 0), models.NewClock(12, 30))
	blocked1 := section("BBB", "1", "ST", models.NewClock(11, 0), models.NewClock(12, 30))
	blocked2 := section("BBB", "2", "ST", models.NewClock(11, 30), models.NewClock(13, 0))

	eval := NewEvaluator(baseConfig("AAA", "BBB"))
	groups := []courseGroup{
		{course: "AAA", candidates: []models.Section{dup, dup}},
		{course: "BBB", candidates: []models.Section{blocked1, blocked2}},
	}

	complete, partial := newSearcher(eval, 5, groups).run()
	assert.Empty(t, complete)
	require.Len(t, partial, 1, "duplicate rows must not inflate the partial set")
	assert.Equal(t, "AAA:1", models.CanonicalKey(partial[0]))
}
