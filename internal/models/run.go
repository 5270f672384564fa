package models

import "time"

// GenerationRun records one completed scheduling run. Only the latest run is
// retained; its schedule keys are what the next run diffs against to flag
// newly appearing schedules.
type GenerationRun struct {
	ID           string    `json:"id" db:"id"`
	RanAt        time.Time `json:"ranAt" db:"ran_at"`
	ScheduleKeys []string  `json:"scheduleKeys" db:"-"`
	Partial      bool      `json:"partial" db:"partial"`
	TotalFound   int       `json:"totalFound" db:"total_found"`
	StatsJSON    []byte    `json:"-" db:"stats"`
}

// KeySet returns the run's schedule keys as a membership set.
func (r GenerationRun) KeySet() map[string]struct{} {
	set := make(map[string]struct{}, len(r.ScheduleKeys))
	for _, k := range r.ScheduleKeys {
		set[k] = struct{}{}
	}
	return set
}

// Pagination carries list-endpoint paging metadata.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
