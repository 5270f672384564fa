package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Scraper   ScraperConfig
	Scheduler SchedulerConfig
	Scoring   ScoringConfig
	Export    ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ScraperConfig points at the university's offered-courses page and sets
// the polite-fetch behaviour the portal expects.
type ScraperConfig struct {
	URL        string
	UserAgent  string
	Timeout    time.Duration
	DelayMin   time.Duration
	DelayMax   time.Duration
	CrossLists map[string]string
}

// SchedulerConfig carries the default hard-constraint rule set and the
// run-level controls. Every rule value is overridable per deployment; a
// request payload overrides all of them for a single run.
type SchedulerConfig struct {
	RefreshInterval time.Duration
	SearchBudget    time.Duration
	ResultCacheTTL  time.Duration
	TopN            int

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

// ScoringConfig tunes the soft preferences applied during ranking.
type ScoringConfig struct {
	IdealDays           int
	IdealDayBonus       float64
	AcceptableDays      int
	AcceptableDayBonus  float64
	LabMorningThreshold string
}

// ExportConfig gates the CSV/PDF download endpoints and the on-disk archive
// of rendered files.
type ExportConfig struct {
	Enabled   bool
	Dir       string
	Retention time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scraper = ScraperConfig{
		URL:        v.GetString("SCRAPER_URL"),
		UserAgent:  v.GetString("SCRAPER_USER_AGENT"),
		Timeout:    parseDuration(v.GetString("SCRAPER_TIMEOUT"), 60*time.Second),
		DelayMin:   parseDuration(v.GetString("SCRAPER_DELAY_MIN"), time.Second),
		DelayMax:   parseDuration(v.GetString("SCRAPER_DELAY_MAX"), 3*time.Second),
		CrossLists: parsePairs(v.GetString("SCRAPER_CROSSLISTED_COURSES")),
	}

	cfg.Scheduler = SchedulerConfig{
		RefreshInterval:   parseDuration(v.GetString("SCHEDULER_REFRESH_INTERVAL"), 30*time.Second),
		SearchBudget:      parseDuration(v.GetString("SCHEDULER_SEARCH_BUDGET"), 20*time.Second),
		ResultCacheTTL:    parseDuration(v.GetString("SCHEDULER_RESULT_CACHE_TTL"), 30*time.Second),
		TopN:              v.GetInt("SCHEDULER_TOP_N"),
		RequiredCourses:   splitAndTrim(v.GetString("SCHEDULER_REQUIRED_COURSES")),
		MinLectureStart:   v.GetString("SCHEDULER_MIN_LECTURE_START"),
		DayPatterns:       splitAndTrim(v.GetString("SCHEDULER_DAY_PATTERNS")),
		PairedCourses:     splitAndTrim(v.GetString("SCHEDULER_PAIRED_COURSES")),
		InstructorRules:   splitOn(v.GetString("SCHEDULER_INSTRUCTOR_RULES"), ";"),
		MaxDistinctDays:   v.GetInt("SCHEDULER_MAX_DISTINCT_DAYS"),
		LabForbiddenStart: v.GetString("SCHEDULER_LAB_FORBIDDEN_START"),
		LabForbiddenDay:   v.GetString("SCHEDULER_LAB_FORBIDDEN_DAY"),
		ExcludeEvening:    v.GetBool("SCHEDULER_EXCLUDE_EVENING"),
		EveningStart:      v.GetString("SCHEDULER_EVENING_START"),
	}

	cfg.Scoring = ScoringConfig{
		IdealDays:           v.GetInt("SCORING_IDEAL_DAYS"),
		IdealDayBonus:       v.GetFloat64("SCORING_IDEAL_DAY_BONUS"),
		AcceptableDays:      v.GetInt("SCORING_ACCEPTABLE_DAYS"),
		AcceptableDayBonus:  v.GetFloat64("SCORING_ACCEPTABLE_DAY_BONUS"),
		LabMorningThreshold: v.GetString("SCORING_LAB_MORNING_THRESHOLD"),
	}

	cfg.Export = ExportConfig{
		Enabled:   v.GetBool("ENABLE_EXPORT"),
		Dir:       v.GetString("EXPORT_DIR"),
		Retention: parseDuration(v.GetString("EXPORT_RETENTION"), 7*24*time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "course_scheduler")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCRAPER_URL", "https://rds2.northsouth.edu/index.php/common/showofferedcourses")
	v.SetDefault("SCRAPER_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("SCRAPER_TIMEOUT", "60s")
	v.SetDefault("SCRAPER_DELAY_MIN", "1s")
	v.SetDefault("SCRAPER_DELAY_MAX", "3s")
	v.SetDefault("SCRAPER_CROSSLISTED_COURSES", "CSE332/EEE336=CSE332,CSE332L/EEE336L=CSE332L")

	v.SetDefault("SCHEDULER_REFRESH_INTERVAL", "30s")
	v.SetDefault("SCHEDULER_SEARCH_BUDGET", "20s")
	v.SetDefault("SCHEDULER_RESULT_CACHE_TTL", "30s")
	v.SetDefault("SCHEDULER_TOP_N", 10)
	v.SetDefault("SCHEDULER_REQUIRED_COURSES", "BIO103,CHE101L,CSE327,CSE332,CSE332L,EEE452,ENG115,PHY108L")
	v.SetDefault("SCHEDULER_MIN_LECTURE_START", "11:00")
	v.SetDefault("SCHEDULER_DAY_PATTERNS", "ST,MW,S,M,T,W")
	v.SetDefault("SCHEDULER_PAIRED_COURSES", "CSE332=CSE332L")
	v.SetDefault("SCHEDULER_INSTRUCTOR_RULES", "CSE327=NbM:1|7")
	v.SetDefault("SCHEDULER_MAX_DISTINCT_DAYS", 5)
	v.SetDefault("SCHEDULER_LAB_FORBIDDEN_START", "08:00")
	v.SetDefault("SCHEDULER_LAB_FORBIDDEN_DAY", "")
	v.SetDefault("SCHEDULER_EXCLUDE_EVENING", false)
	v.SetDefault("SCHEDULER_EVENING_START", "18:00")

	v.SetDefault("SCORING_IDEAL_DAYS", 4)
	v.SetDefault("SCORING_IDEAL_DAY_BONUS", 100.0)
	v.SetDefault("SCORING_ACCEPTABLE_DAYS", 5)
	v.SetDefault("SCORING_ACCEPTABLE_DAY_BONUS", 50.0)
	v.SetDefault("SCORING_LAB_MORNING_THRESHOLD", "11:00")

	v.SetDefault("ENABLE_EXPORT", true)
	v.SetDefault("EXPORT_DIR", "./exports")
	v.SetDefault("EXPORT_RETENTION", "168h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	return splitOn(raw, ",")
}

func splitOn(raw, sep string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, sep)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// parsePairs decodes "a=b,c=d" mappings such as cross-listed course codes.
func parsePairs(raw string) map[string]string {
	entries := splitAndTrim(raw)
	if len(entries) == 0 {
		return nil
	}
	result := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, found := strings.Cut(entry, "=")
		if !found {
			continue
		}
		result[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return result
}
