package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Scanner
	Scanner ScannerConfig

	// Database (run history, optional)
	Database DatabaseConfig

	// Redis (snapshot cache, optional)
	Redis RedisConfig

	// External APIs
	FMP FMPConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// ScannerConfig holds file locations and timing of the screening engine
type ScannerConfig struct {
	InputWorkbook    string // 채널 설정 워크북
	OutputDir        string // 일별 결과 파일 위치
	ReportDir        string // 채널별 제외 리포트 위치
	ExclusionList1   string
	ExclusionList2   string
	FragmentWorkbook string // 종목명 제외 단어 목록
	QualityConfig    string // 스냅샷 커버리지 임계값 YAML (선택)

	PollInterval   time.Duration
	ReloadCooldown time.Duration
	ReleaseGrace   time.Duration
	ReleaseCommand []string // 파일 점유 프로세스 강제 종료 명령 (예: taskkill /f /im excel.exe)

	NotifySound bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host        string
	Port        string
	Password    string
	DB          int
	Enabled     bool
	SnapshotTTL time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL     string
	Enabled bool

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// FMPConfig holds Financial Modeling Prep API configuration
type FMPConfig struct {
	APIKey    string
	BaseURL   string
	Exchange  string
	RateLimit int // requests per second
	Timeout   time.Duration

	// Circuit breaker
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	dbURL := getEnv("DATABASE_URL", "")

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Scanner: ScannerConfig{
			InputWorkbook:    getEnv("SCAN_INPUT_WORKBOOK", "Input File.xlsx"),
			OutputDir:        getEnv("SCAN_OUTPUT_DIR", "."),
			ReportDir:        getEnv("SCAN_REPORT_DIR", "Logs"),
			ExclusionList1:   getEnv("SCAN_EXCLUSION_LIST_1", "list1.txt"),
			ExclusionList2:   getEnv("SCAN_EXCLUSION_LIST_2", "list2.txt"),
			FragmentWorkbook: getEnv("SCAN_FRAGMENT_WORKBOOK", "excluded_strings.xlsx"),
			QualityConfig:    getEnv("SCAN_QUALITY_CONFIG", ""),
			PollInterval:     getEnvAsDuration("SCAN_POLL_INTERVAL", "1s"),
			ReloadCooldown:   getEnvAsDuration("SCAN_RELOAD_COOLDOWN", "2s"),
			ReleaseGrace:     getEnvAsDuration("SCAN_RELEASE_GRACE", "2s"),
			ReleaseCommand:   strings.Fields(getEnv("SCAN_RELEASE_COMMAND", "")),
			NotifySound:      getEnvAsBool("SCAN_NOTIFY_SOUND", true),
		},

		Database: DatabaseConfig{
			URL:             dbURL,
			Enabled:         getEnvAsBool("DB_ENABLED", dbURL != ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnv("REDIS_PORT", "6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			Enabled:     getEnvAsBool("REDIS_ENABLED", false),
			SnapshotTTL: getEnvAsDuration("REDIS_SNAPSHOT_TTL", "30s"),
		},

		FMP: FMPConfig{
			APIKey:          getEnv("FMP_API_KEY", ""),
			BaseURL:         getEnv("FMP_BASE_URL", "https://financialmodelingprep.com/api/v3"),
			Exchange:        getEnv("FMP_EXCHANGE", "NASDAQ"),
			RateLimit:       getEnvAsInt("FMP_RATE_LIMIT", 5),
			Timeout:         getEnvAsDuration("FMP_TIMEOUT", "30s"),
			BreakerFailures: uint32(getEnvAsInt("FMP_BREAKER_FAILURES", 5)),
			BreakerTimeout:  getEnvAsDuration("FMP_BREAKER_TIMEOUT", "1m"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// ArtifactPath returns today's output workbook path
func (c *Config) ArtifactPath(now time.Time) string {
	return filepath.Join(c.Scanner.OutputDir, now.Format("20060102")+"_VOLvsAVGVOL.xlsx")
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Scanner.InputWorkbook == "" {
		return fmt.Errorf("SCAN_INPUT_WORKBOOK is required")
	}

	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when DB_ENABLED is set")
	}

	if c.Scanner.PollInterval <= 0 {
		return fmt.Errorf("SCAN_POLL_INTERVAL must be positive")
	}

	if c.FMP.RateLimit <= 0 {
		return fmt.Errorf("FMP_RATE_LIMIT must be positive")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
