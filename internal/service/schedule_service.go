package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nsu-tools/course-scheduler-api/internal/dto"
	"github.com/nsu-tools/course-scheduler-api/internal/engine"
	"github.com/nsu-tools/course-scheduler-api/internal/models"
	"github.com/nsu-tools/course-scheduler-api/pkg/config"
	appErrors "github.com/nsu-tools/course-scheduler-api/pkg/errors"
)

const resultCacheKey = "scheduler:result:latest"

type runStore interface {
	ReplaceLatest(ctx context.Context, run *models.GenerationRun) error
	GetLatest(ctx context.Context) (*models.GenerationRun, error)
}

type catalogSource interface {
	Snapshot() *CatalogSnapshot
}

// ResultCache is the slice of the Redis client the scheduler needs. It is
// exported so callers can pass an untyped nil to disable caching.
type ResultCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type generationObserver interface {
	ObserveGeneration(duration time.Duration, found int, partial bool)
	RecordCacheOperation(hit bool, duration time.Duration)
}

// ScheduleService orchestrates generation runs: it turns the configured (or
// request-supplied) rule set into an engine configuration, runs the search
// under the wall-clock budget, persists the default run for new-schedule
// detection and caches the latest payload between dashboard polls.
type ScheduleService struct {
	catalog  catalogSource
	runs     runStore
	cache    ResultCache
	metrics  generationObserver
	settings config.SchedulerConfig
	weights  engine.ScoreWeights
	validate *validator.Validate
	logger   *zap.Logger
}

// NewScheduleService wires scheduler dependencies. cache and metrics are
// optional; a nil cache disables result caching.
func NewScheduleService(
	catalog catalogSource,
	runs runStore,
	cache ResultCache,
	metrics generationObserver,
	settings config.SchedulerConfig,
	weights engine.ScoreWeights,
	logger *zap.Logger,
) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		catalog:  catalog,
		runs:     runs,
		cache:    cache,
		metrics:  metrics,
		settings: settings,
		weights:  weights,
		validate: validator.New(),
		logger:   logger,
	}
}

// Latest returns the most recent default-mode result, serving from the Redis
// cache when fresh. The boolean reports whether the cache was hit.
func (s *ScheduleService) Latest(ctx context.Context) (*dto.GenerationResponse, bool, error) {
	if s.cache != nil {
		start := time.Now()
		raw, err := s.cache.Get(ctx, resultCacheKey).Result()
		if err == nil {
			var cached dto.GenerationResponse
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				if s.metrics != nil {
					s.metrics.RecordCacheOperation(true, time.Since(start))
				}
				return &cached, true, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("result cache lookup failed", zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false, time.Since(start))
		}
	}

	resp, err := s.GenerateDefault(ctx)
	return resp, false, err
}

// GenerateDefault runs the configured rule set against the current catalog,
// replaces the stored run and refreshes the result cache.
func (s *ScheduleService) GenerateDefault(ctx context.Context) (*dto.GenerationResponse, error) {
	snapshot := s.catalog.Snapshot()
	if snapshot == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course catalog has not been fetched yet")
	}

	cfg, err := buildEngineConfig(ruleInput{
		RequiredCourses:   s.settings.RequiredCourses,
		MinLectureStart:   s.settings.MinLectureStart,
		DayPatterns:       s.settings.DayPatterns,
		PairedCourses:     s.settings.PairedCourses,
		InstructorRules:   s.settings.InstructorRules,
		MaxDistinctDays:   s.settings.MaxDistinctDays,
		LabForbiddenStart: s.settings.LabForbiddenStart,
		LabForbiddenDay:   s.settings.LabForbiddenDay,
		ExcludeEvening:    s.settings.ExcludeEvening,
		EveningStart:      s.settings.EveningStart,
	})
	if err != nil {
		return nil, err
	}

	prevKeys := s.previousKeys(ctx)

	result, err := s.runWithBudget(ctx, snapshot.Sections, cfg, s.settings.TopN, prevKeys)
	if err != nil {
		return nil, err
	}

	run := &models.GenerationRun{
		ID:         uuid.NewString(),
		RanAt:      time.Now().UTC(),
		Partial:    result.Stats.Partial,
		TotalFound: result.Stats.TotalFound,
	}
	for _, sched := range result.Schedules {
		run.ScheduleKeys = append(run.ScheduleKeys, sched.CanonicalKey())
	}
	if run.StatsJSON, err = json.Marshal(result.Stats); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode run stats")
	}

	if err := s.runs.ReplaceLatest(ctx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist generation run")
	}

	resp := buildGenerationResponse(run.ID, run.RanAt, result)
	s.cacheResult(ctx, resp)
	return resp, nil
}

// GenerateCustom runs a one-off generation with the request's rule set. The
// result is compared against the stored run for new-schedule flags but is
// neither persisted nor cached, so it cannot disturb the default cycle.
func (s *ScheduleService) GenerateCustom(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerationResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation request")
	}
	snapshot := s.catalog.Snapshot()
	if snapshot == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course catalog has not been fetched yet")
	}

	in := ruleInput{
		RequiredCourses:   req.RequiredCourses,
		MinLectureStart:   s.settings.MinLectureStart,
		DayPatterns:       s.settings.DayPatterns,
		PairedCourses:     s.settings.PairedCourses,
		InstructorRules:   s.settings.InstructorRules,
		MaxDistinctDays:   s.settings.MaxDistinctDays,
		LabForbiddenStart: s.settings.LabForbiddenStart,
		LabForbiddenDay:   s.settings.LabForbiddenDay,
		ExcludeEvening:    req.ExcludeEvening,
		EveningStart:      s.settings.EveningStart,
	}
	if req.MinLectureStart != "" {
		in.MinLectureStart = req.MinLectureStart
	}
	if req.DayPatterns != nil {
		in.DayPatterns = req.DayPatterns
	}
	if req.PairedCourses != nil {
		in.PairedCourses = req.PairedCourses
	}
	if req.InstructorRules != nil {
		in.InstructorRules = req.InstructorRules
	}
	if req.MaxDistinctDays > 0 {
		in.MaxDistinctDays = req.MaxDistinctDays
	}
	if req.LabForbiddenStart != "" {
		in.LabForbiddenStart = req.LabForbiddenStart
	}
	if req.LabForbiddenDay != "" {
		in.LabForbiddenDay = req.LabForbiddenDay
	}
	if req.EveningStart != "" {
		in.EveningStart = req.EveningStart
	}

	cfg, err := buildEngineConfig(in)
	if err != nil {
		return nil, err
	}

	topN := s.settings.TopN
	if req.TopN > 0 {
		topN = req.TopN
	}

	result, err := s.runWithBudget(ctx, snapshot.Sections, cfg, topN, s.previousKeys(ctx))
	if err != nil {
		return nil, err
	}

	return buildGenerationResponse(uuid.NewString(), time.Now().UTC(), result), nil
}

// Status summarises catalog and run state for the dashboard.
func (s *ScheduleService) Status(ctx context.Context) (*dto.StatusResponse, error) {
	status := &dto.StatusResponse{
		RefreshInterval: s.settings.RefreshInterval.String(),
	}

	if snapshot := s.catalog.Snapshot(); snapshot != nil {
		fetchedAt := snapshot.FetchedAt
		status.CatalogFetchedAt = &fetchedAt
		status.CatalogSections = len(snapshot.Sections)
	}

	run, err := s.runs.GetLatest(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return status, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest run")
	}

	ranAt := run.RanAt
	status.LastRunID = run.ID
	status.LastRunAt = &ranAt
	status.LastRunPartial = run.Partial
	status.LastRunTotalFound = run.TotalFound
	return status, nil
}

// runWithBudget executes the search on its own goroutine and abandons it
// when the wall-clock budget elapses. The abandoned goroutine finishes its
// in-flight search and exits; its result is discarded.
func (s *ScheduleService) runWithBudget(
	ctx context.Context,
	catalog []models.Section,
	cfg engine.Config,
	topN int,
	prevKeys map[string]struct{},
) (*engine.Result, error) {
	eng := engine.New(s.weights, topN, s.logger)
	start := time.Now()

	type outcome struct {
		result *engine.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := eng.Generate(catalog, cfg, prevKeys)
		done <- outcome{result: result, err: err}
	}()

	budget := s.settings.SearchBudget
	var timeout <-chan time.Time
	if budget > 0 {
		timer := time.NewTimer(budget)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-ctx.Done():
		return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrBudgetExceeded.Code, appErrors.ErrBudgetExceeded.Status, "generation cancelled")
	case <-timeout:
		return nil, appErrors.Clone(appErrors.ErrBudgetExceeded, fmt.Sprintf("generation did not finish within %s", budget))
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		if s.metrics != nil {
			s.metrics.ObserveGeneration(time.Since(start), out.result.Stats.TotalFound, out.result.Stats.Partial)
		}
		return out.result, nil
	}
}

// previousKeys loads the stored run's schedule keys. No stored run means no
// baseline, so nothing gets flagged new.
func (s *ScheduleService) previousKeys(ctx context.Context) map[string]struct{} {
	run, err := s.runs.GetLatest(ctx)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to load previous run, skipping new-schedule detection", zap.Error(err))
		}
		return nil
	}
	return run.KeySet()
}

func (s *ScheduleService) cacheResult(ctx context.Context, resp *dto.GenerationResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		s.logger.Warn("failed to encode result for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, resultCacheKey, payload, s.settings.ResultCacheTTL).Err(); err != nil {
		s.logger.Warn("failed to cache generation result", zap.Error(err))
	}
}

func buildGenerationResponse(runID string, at time.Time, result *engine.Result) *dto.GenerationResponse {
	schedules := make([]dto.ScheduleResponse, 0, len(result.Schedules))
	for _, sched := range result.Schedules {
		schedules = append(schedules, dto.ScheduleResponse{
			Key:       sched.CanonicalKey(),
			Score:     sched.Score,
			IsPartial: sched.IsPartial,
			IsNew:     sched.IsNew,
			Days:      sched.DaySet().String(),
			Sections:  sched.Sections,
		})
	}
	return &dto.GenerationResponse{
		RunID:       runID,
		GeneratedAt: at,
		Partial:     result.Stats.Partial,
		TotalFound:  result.Stats.TotalFound,
		Schedules:   schedules,
		Stats:       result.Stats,
	}
}

// ruleInput is the string form of a rule set, either from configuration or
// a request body, before parsing into an engine configuration.
type ruleInput struct {
	RequiredCourses   []string
	MinLectureStart   string
	DayPatterns       []string
	PairedCourses     []string
	InstructorRules   []string
	MaxDistinctDays   int
	LabForbiddenStart string
	LabForbiddenDay   string
	ExcludeEvening    bool
	EveningStart      string
}

// buildEngineConfig parses the textual rule set. Parse failures surface as
// InvalidConfiguration so callers see a 400, not a 500.
func buildEngineConfig(in ruleInput) (engine.Config, error) {
	cfg := engine.Config{
		MinLectureStart:   models.ClockNone,
		LabForbiddenStart: models.ClockNone,
		EveningStart:      models.ClockNone,
		MaxDistinctDays:   in.MaxDistinctDays,
		ExcludeEvening:    in.ExcludeEvening,
	}

	for _, course := range in.RequiredCourses {
		cfg.RequiredCourses = append(cfg.RequiredCourses, strings.ToUpper(strings.TrimSpace(course)))
	}

	var err error
	if cfg.MinLectureStart, err = parseOptionalClock(in.MinLectureStart, "minLectureStart"); err != nil {
		return engine.Config{}, err
	}
	if cfg.LabForbiddenStart, err = parseOptionalClock(in.LabForbiddenStart, "labForbiddenStart"); err != nil {
		return engine.Config{}, err
	}
	if cfg.EveningStart, err = parseOptionalClock(in.EveningStart, "eveningStart"); err != nil {
		return engine.Config{}, err
	}

	for _, pattern := range in.DayPatterns {
		set, err := models.ParseDaySet(pattern)
		if err != nil {
			return engine.Config{}, appErrors.Clone(appErrors.ErrInvalidConfiguration, fmt.Sprintf("dayPatterns: %v", err))
		}
		cfg.AllowedDayPatterns = append(cfg.AllowedDayPatterns, set)
	}

	if in.LabForbiddenDay != "" {
		set, err := models.ParseDaySet(in.LabForbiddenDay)
		if err != nil || set.Count() != 1 {
			return engine.Config{}, appErrors.Clone(appErrors.ErrInvalidConfiguration, fmt.Sprintf("labForbiddenDay must be a single day symbol, got %q", in.LabForbiddenDay))
		}
		cfg.LabForbiddenDay = set.Days()[0]
	}

	for _, entry := range in.PairedCourses {
		lecture, lab, found := strings.Cut(entry, "=")
		if !found {
			return engine.Config{}, appErrors.Clone(appErrors.ErrInvalidConfiguration, fmt.Sprintf("malformed paired course rule %q, want LECTURE=LAB", entry))
		}
		cfg.PairedCourses = append(cfg.PairedCourses, engine.CoursePair{
			Lecture: strings.ToUpper(strings.TrimSpace(lecture)),
			Lab:     strings.ToUpper(strings.TrimSpace(lab)),
		})
	}

	for _, entry := range in.InstructorRules {
		course, rule, err := parseInstructorRule(entry)
		if err != nil {
			return engine.Config{}, err
		}
		if cfg.InstructorRules == nil {
			cfg.InstructorRules = make(map[string]engine.InstructorRule)
		}
		cfg.InstructorRules[course] = rule
	}

	return cfg, nil
}

func parseOptionalClock(raw, field string) (models.ClockTime, error) {
	if strings.TrimSpace(raw) == "" {
		return models.ClockNone, nil
	}
	t, err := models.ParseClock(raw)
	if err != nil {
		return models.ClockNone, appErrors.Clone(appErrors.ErrInvalidConfiguration, fmt.Sprintf("%s: %v", field, err))
	}
	return t, nil
}

// parseInstructorRule decodes "COURSE=Name/Other:1|7" entries: instructors
// separated by "/", an optional ":"-prefixed section list separated by "|".
func parseInstructorRule(entry string) (string, engine.InstructorRule, error) {
	course, rest, found := strings.Cut(entry, "=")
	if !found {
		return "", engine.InstructorRule{}, appErrors.Clone(appErrors.ErrInvalidConfiguration, fmt.Sprintf("malformed instructor rule %q, want COURSE=INSTRUCTOR[:SECTIONS]", entry))
	}

	names, sections, _ := strings.Cut(rest, ":")
	rule := engine.InstructorRule{}
	for _, name := range strings.Split(names, "/") {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			rule.Instructors = append(rule.Instructors, trimmed)
		}
	}
	if len(rule.Instructors) == 0 {
		return "", engine.InstructorRule{}, appErrors.Clone(appErrors.ErrInvalidConfiguration, fmt.Sprintf("instructor rule %q names no instructors", entry))
	}
	if sections != "" {
		for _, num := range strings.Split(sections, "|") {
			if trimmed := strings.TrimSpace(num); trimmed != "" {
				rule.Sections = append(rule.Sections, trimmed)
			}
		}
	}

	return strings.ToUpper(strings.TrimSpace(course)), rule, nil
}
