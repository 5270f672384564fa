package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsu-tools/course-scheduler-api/internal/dto"
	"github.com/nsu-tools/course-scheduler-api/internal/models"
)

type fakeFetcher struct {
	sections []models.Section
	skipped  int
	err      error
	calls    int
}

func (f *fakeFetcher) Fetch(context.Context) ([]models.Section, int, error) {
	f.calls++
	return f.sections, f.skipped, f.err
}

func TestCatalogServiceRefreshPublishesSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{
		sections: []models.Section{testSection("CSE327", "1", "ST", 11)},
		skipped:  2,
	}
	svc := NewCatalogService(fetcher, nil, nil)

	assert.Nil(t, svc.Snapshot())

	require.NoError(t, svc.Refresh(context.Background()))

	snapshot := svc.Snapshot()
	require.NotNil(t, snapshot)
	assert.Len(t, snapshot.Sections, 1)
	assert.Equal(t, 2, snapshot.Skipped)
	assert.False(t, snapshot.FetchedAt.IsZero())
}

func TestCatalogServiceFailedRefreshKeepsOldSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{sections: []models.Section{testSection("CSE327", "1", "ST", 11)}}
	svc := NewCatalogService(fetcher, nil, nil)
	require.NoError(t, svc.Refresh(context.Background()))
	previous := svc.Snapshot()

	fetcher.err = errors.New("portal down")
	require.Error(t, svc.Refresh(context.Background()))

	assert.Same(t, previous, svc.Snapshot())
}

func TestCatalogServiceFilters(t *testing.T) {
	a := testSection("CSE327", "1", "ST", 11)
	a.Instructor = "NbM"
	b := testSection("ENG115", "3", "MW", 11)
	b.Instructor = "AbC"
	fetcher := &fakeFetcher{sections: []models.Section{a, b}}

	svc := NewCatalogService(fetcher, nil, nil)
	require.NoError(t, svc.Refresh(context.Background()))

	all, err := svc.Catalog(dto.CatalogFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.TotalSections)

	byCourse, err := svc.Catalog(dto.CatalogFilter{CourseCode: "cse327"})
	require.NoError(t, err)
	require.Len(t, byCourse.Sections, 1)
	assert.Equal(t, "CSE327", byCourse.Sections[0].CourseCode)

	byInstructor, err := svc.Catalog(dto.CatalogFilter{Instructor: "abc"})
	require.NoError(t, err)
	require.Len(t, byInstructor.Sections, 1)
	assert.Equal(t, "ENG115", byInstructor.Sections[0].CourseCode)
}

func TestCatalogServiceBeforeFirstFetch(t *testing.T) {
	svc := NewCatalogService(&fakeFetcher{}, nil, nil)

	_, err := svc.Catalog(dto.CatalogFilter{})
	require.Error(t, err)
}

type recordingScrapeObserver struct {
	calls  int
	lastOK bool
}

func (r *recordingScrapeObserver) ObserveScrape(_ time.Duration, err error) {
	r.calls++
	r.lastOK = err == nil
}

func TestCatalogServiceReportsScrapeMetrics(t *testing.T) {
	observer := &recordingScrapeObserver{}
	fetcher := &fakeFetcher{err: errors.New("boom")}
	svc := NewCatalogService(fetcher, observer, nil)

	_ = svc.Refresh(context.Background())
	assert.Equal(t, 1, observer.calls)
	assert.False(t, observer.lastOK)

	fetcher.err = nil
	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, 2, observer.calls)
	assert.True(t, observer.lastOK)
}
