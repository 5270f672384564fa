package dto

import (
	"time"

	"github.com/nsu-tools/course-scheduler-api/internal/engine"
	"github.com/nsu-tools/course-scheduler-api/internal/models"
)

// GenerateScheduleRequest is the body of POST /schedules/generate. Every
// field beyond requiredCourses is optional; omitted fields fall back to the
// server's configured rule set. Times are 24-hour "HH:MM" strings and day
// patterns use the compact SMTWRA symbols.
type GenerateScheduleRequest struct {
	RequiredCourses   []string `json:"requiredCourses" binding:"required,min=1,dive,required" validate:"required,min=1,dive,required"`
	MinLectureStart   string   `json:"minLectureStart"`
	DayPatterns       []string `json:"dayPatterns"`
	PairedCourses     []string `json:"pairedCourses"`
	InstructorRules   []string `json:"instructorRules"`
	MaxDistinctDays   int      `json:"maxDistinctDays" binding:"omitempty,min=1,max=6" validate:"omitempty,min=1,max=6"`
	LabForbiddenStart string   `json:"labForbiddenStart"`
	LabForbiddenDay   string   `json:"labForbiddenDay"`
	ExcludeEvening    bool     `json:"excludeEvening"`
	EveningStart      string   `json:"eveningStart"`
	TopN              int      `json:"topN" binding:"omitempty,min=1,max=100" validate:"omitempty,min=1,max=100"`
}

// ScheduleResponse is one ranked schedule in a generation payload.
type ScheduleResponse struct {
	Key       string           `json:"key"`
	Score     float64          `json:"score"`
	IsPartial bool             `json:"isPartial"`
	IsNew     bool             `json:"isNew"`
	Days      string           `json:"days"`
	Sections  []models.Section `json:"sections"`
}

// GenerationResponse is the payload of both the cached GET /schedules and a
// fresh POST /schedules/generate.
type GenerationResponse struct {
	RunID       string             `json:"runId"`
	GeneratedAt time.Time          `json:"generatedAt"`
	Partial     bool               `json:"partial"`
	TotalFound  int                `json:"totalFound"`
	Schedules   []ScheduleResponse `json:"schedules"`
	Stats       engine.Stats       `json:"stats"`
}

// CatalogResponse is the payload of GET /catalog.
type CatalogResponse struct {
	FetchedAt     time.Time        `json:"fetchedAt"`
	TotalSections int              `json:"totalSections"`
	Skipped       int              `json:"skipped"`
	Sections      []models.Section `json:"sections"`
}

// CatalogFilter captures query parameters for GET /catalog.
type CatalogFilter struct {
	CourseCode string
	Instructor string
}

// StatusResponse summarizes engine and catalog health for GET /status.
type StatusResponse struct {
	CatalogFetchedAt  *time.Time `json:"catalogFetchedAt,omitempty"`
	CatalogSections   int        `json:"catalogSections"`
	LastRunID         string     `json:"lastRunId,omitempty"`
	LastRunAt         *time.Time `json:"lastRunAt,omitempty"`
	LastRunPartial    bool       `json:"lastRunPartial"`
	LastRunTotalFound int        `json:"lastRunTotalFound"`
	RefreshInterval   string     `json:"refreshInterval"`
}
