package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/nsu-tools/course-scheduler-api/internal/dto"
	appErrors "github.com/nsu-tools/course-scheduler-api/pkg/errors"
	"github.com/nsu-tools/course-scheduler-api/pkg/export"
)

type scheduleSource interface {
	Latest(ctx context.Context) (*dto.GenerationResponse, bool, error)
}

// ExportResult carries rendered file content plus download metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

type exportArchive interface {
	Save(filename string, data []byte) (string, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportService renders the latest ranked schedules as downloadable CSV or
// PDF files. Rendered files are also archived on disk when an archive is
// configured.
type ExportService struct {
	schedules scheduleSource
	archive   exportArchive
	retention time.Duration
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	enabled   bool
	logger    *zap.Logger
}

// NewExportService wires the exporters. archive is optional.
func NewExportService(schedules scheduleSource, archive exportArchive, retention time.Duration, enabled bool, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		schedules: schedules,
		archive:   archive,
		retention: retention,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		enabled:   enabled,
		logger:    logger,
	}
}

// ExportSchedules renders the latest generation result in the requested
// format ("csv" or "pdf").
func (s *ExportService) ExportSchedules(ctx context.Context, format string) (*ExportResult, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "export endpoints are disabled")
	}

	result, _, err := s.schedules.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if len(result.Schedules) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no schedules available to export")
	}

	data := scheduleDataset(result)
	stamp := time.Now().UTC().Format("20060102-150405")

	var out *ExportResult
	switch format {
	case "csv", "":
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render CSV export")
		}
		out = &ExportResult{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("schedules-%s.csv", stamp),
		}
	case "pdf":
		content, err := s.pdf.Render(data, "Ranked Course Schedules")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render PDF export")
		}
		out = &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("schedules-%s.pdf", stamp),
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q, want csv or pdf", format))
	}

	s.archiveCopy(out)
	return out, nil
}

// archiveCopy stores the rendered file and prunes stale ones. Archive
// failures never block the download.
func (s *ExportService) archiveCopy(out *ExportResult) {
	if s.archive == nil {
		return
	}
	if _, err := s.archive.Save(out.Filename, out.Content); err != nil {
		s.logger.Warn("failed to archive export", zap.String("file", out.Filename), zap.Error(err))
		return
	}
	if removed, err := s.archive.CleanupOlderThan(s.retention); err != nil {
		s.logger.Warn("export archive cleanup failed", zap.Error(err))
	} else if len(removed) > 0 {
		s.logger.Info("pruned archived exports", zap.Int("count", len(removed)))
	}
}

// scheduleDataset flattens ranked schedules into export rows. Each schedule
// contributes one row per section; a blank row separates schedules so the
// PDF renderer can break between them.
func scheduleDataset(result *dto.GenerationResponse) export.Dataset {
	data := export.Dataset{
		Headers: []string{"Rank", "Score", "New", "Partial", "Course", "Section", "Instructor", "Days", "Start", "End", "Room"},
	}

	for rank, sched := range result.Schedules {
		for i, sec := range sched.Sections {
			row := []string{"", "", "", "", sec.CourseCode, sec.SectionNumber, sec.Instructor, sec.Days.String(), sec.StartTime.String(), sec.EndTime.String(), sec.Room}
			if i == 0 {
				row[0] = strconv.Itoa(rank + 1)
				row[1] = strconv.FormatFloat(sched.Score, 'f', 1, 64)
				row[2] = yesNo(sched.IsNew)
				row[3] = yesNo(sched.IsPartial)
			}
			data.Rows = append(data.Rows, row)
		}
		if rank < len(result.Schedules)-1 {
			data.Rows = append(data.Rows, make([]string, len(data.Headers)))
		}
	}

	return data
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return ""
}
