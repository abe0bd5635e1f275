package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	DatabaseURL string
	LogLevel    string

	// S3
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3UseSSL          bool

	// Remote generation service
	AssistantAPIKey  string
	AssistantID      string
	AssistantBaseURL string

	// Chunking
	MaxChunkLength int

	// Job polling
	PollBaseDelay   time.Duration
	PollGrowth      float64
	PollMaxDelay    time.Duration
	MaxPollRetries  int
	AnalysisTimeout time.Duration

	// Pre-screening (both paths independently switchable)
	PrescreenScanEnabled      bool
	PrescreenChecklistEnabled bool

	// Severity rules
	CriticalTitles        []string
	SummaryTitles         []string
	InformationalKeywords []string
	SeriousKeywords       []string

	// Report geometry (points)
	PageWidth        float64
	PageHeight       float64
	PageMargin       float64
	SafeBottomMargin float64

	// Report cache
	ReportCacheTTL time.Duration

	// Upload limits
	MaxFileSize int64
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       getEnv("DATABASE_URL", "data/leaseguard.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		S3Endpoint:        getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
		S3BucketName:      getEnv("S3_BUCKET_NAME", "leases"),
		S3UseSSL:          getEnv("S3_USE_SSL", "false") == "true",
		AssistantAPIKey:   getEnv("ASSISTANT_API_KEY", ""),
		AssistantID:       getEnv("ASSISTANT_ID", ""),
		AssistantBaseURL:  getEnv("ASSISTANT_BASE_URL", "https://api.openai.com/v1"),

		MaxChunkLength: getEnvInt("MAX_CHUNK_LENGTH", 12000),

		PollBaseDelay:   getEnvDuration("POLL_BASE_DELAY", time.Second),
		PollGrowth:      getEnvFloat("POLL_GROWTH", 1.5),
		PollMaxDelay:    getEnvDuration("POLL_MAX_DELAY", 15*time.Second),
		MaxPollRetries:  getEnvInt("MAX_POLL_RETRIES", 30),
		AnalysisTimeout: getEnvDuration("ANALYSIS_TIMEOUT", 15*time.Minute),

		PrescreenScanEnabled:      getEnv("PRESCREEN_SCAN_ENABLED", "false") == "true",
		PrescreenChecklistEnabled: getEnv("PRESCREEN_CHECKLIST_ENABLED", "true") == "true",

		CriticalTitles:        getEnvList("CRITICAL_TITLES", defaultCriticalTitles),
		SummaryTitles:         getEnvList("SUMMARY_TITLES", defaultSummaryTitles),
		InformationalKeywords: getEnvList("INFORMATIONAL_KEYWORDS", defaultInformationalKeywords),
		SeriousKeywords:       getEnvList("SERIOUS_KEYWORDS", defaultSeriousKeywords),

		PageWidth:        getEnvFloat("PAGE_WIDTH", 595.28),
		PageHeight:       getEnvFloat("PAGE_HEIGHT", 841.89),
		PageMargin:       getEnvFloat("PAGE_MARGIN", 50),
		SafeBottomMargin: getEnvFloat("SAFE_BOTTOM_MARGIN", 70),

		ReportCacheTTL: getEnvDuration("REPORT_CACHE_TTL", 30*time.Minute),

		MaxFileSize: 5 * 1024 * 1024,
	}

	if cfg.AssistantAPIKey == "" {
		return nil, fmt.Errorf("ASSISTANT_API_KEY is required")
	}
	if cfg.AssistantID == "" {
		return nil, fmt.Errorf("ASSISTANT_ID is required")
	}
	if cfg.MaxChunkLength <= 0 {
		return nil, fmt.Errorf("MAX_CHUNK_LENGTH must be positive")
	}

	return cfg, nil
}

var defaultCriticalTitles = []string{
	"unlawful penalty clause",
	"waiver of tenant rights",
	"unilateral rent modification",
	"immediate eviction clause",
}

var defaultSummaryTitles = []string{
	"summary",
	"overview",
	"general assessment",
}

var defaultInformationalKeywords = []string{
	"standard practice",
	"commonly used",
	"for information",
	"typical clause",
}

var defaultSeriousKeywords = []string{
	"void",
	"unenforceable",
	"unlawful",
	"illegal",
	"severely disadvantage",
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var list []string
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				list = append(list, p)
			}
		}
		if len(list) > 0 {
			return list
		}
	}
	return defaultValue
}
