package service

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/nsu-tools/course-scheduler-api/internal/dto"
	"github.com/nsu-tools/course-scheduler-api/internal/models"
	appErrors "github.com/nsu-tools/course-scheduler-api/pkg/errors"
)

type sectionFetcher interface {
	Fetch(ctx context.Context) ([]models.Section, int, error)
}

type scrapeObserver interface {
	ObserveScrape(duration time.Duration, err error)
}

// CatalogSnapshot is one immutable fetch result. Readers share the slice
// without copying; it is never mutated after publication.
type CatalogSnapshot struct {
	Sections  []models.Section
	Skipped   int
	FetchedAt time.Time
}

// CatalogService owns the in-memory catalog. Refreshes build a complete new
// snapshot and publish it atomically, so generation runs always see a
// consistent catalog even while a refresh is in flight.
type CatalogService struct {
	fetcher sectionFetcher
	metrics scrapeObserver
	logger  *zap.Logger

	current atomic.Pointer[CatalogSnapshot]
}

// NewCatalogService wires the scraper behind the catalog. metrics is optional.
func NewCatalogService(fetcher sectionFetcher, metrics scrapeObserver, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{fetcher: fetcher, metrics: metrics, logger: logger}
}

// Refresh fetches the offered-courses page and swaps in the new snapshot.
// A failed fetch leaves the previous snapshot in place.
func (s *CatalogService) Refresh(ctx context.Context) error {
	start := time.Now()
	sections, skipped, err := s.fetcher.Fetch(ctx)
	if s.metrics != nil {
		s.metrics.ObserveScrape(time.Since(start), err)
	}
	if err != nil {
		s.logger.Warn("catalog refresh failed", zap.Error(err))
		return err
	}

	snapshot := &CatalogSnapshot{
		Sections:  sections,
		Skipped:   skipped,
		FetchedAt: time.Now().UTC(),
	}
	s.current.Store(snapshot)

	s.logger.Info("catalog snapshot published",
		zap.Int("sections", len(sections)),
		zap.Int("skipped_rows", skipped),
	)
	return nil
}

// Snapshot returns the current catalog, or nil before the first successful
// refresh.
func (s *CatalogService) Snapshot() *CatalogSnapshot {
	return s.current.Load()
}

// Catalog returns the current snapshot filtered for presentation. Callers
// receive a fresh slice; the snapshot itself stays untouched.
func (s *CatalogService) Catalog(filter dto.CatalogFilter) (*dto.CatalogResponse, error) {
	snapshot := s.current.Load()
	if snapshot == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course catalog has not been fetched yet")
	}

	course := strings.ToUpper(strings.TrimSpace(filter.CourseCode))
	instructor := strings.TrimSpace(filter.Instructor)

	sections := make([]models.Section, 0, len(snapshot.Sections))
	for _, sec := range snapshot.Sections {
		if course != "" && sec.CourseCode != course {
			continue
		}
		if instructor != "" && !strings.EqualFold(sec.Instructor, instructor) {
			continue
		}
		sections = append(sections, sec)
	}

	return &dto.CatalogResponse{
		FetchedAt:     snapshot.FetchedAt,
		TotalSections: len(sections),
		Skipped:       snapshot.Skipped,
		Sections:      sections,
	}, nil
}
