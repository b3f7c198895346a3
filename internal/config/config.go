// Package config provides configuration management for the talent assessment backend.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

const (
	// DefaultHTTPPort is the port the API server listens on.
	DefaultHTTPPort = 8000
	// DefaultInterviewMaxTurns is the fixed number of interview turns before closure.
	DefaultInterviewMaxTurns = 5
	// DefaultPassThreshold is the minimum assessment score counted as a pass.
	DefaultPassThreshold = 70
	// DefaultAITimeout bounds a single round trip to the AI service.
	DefaultAITimeout = 5 * time.Minute
	// DefaultBucket is the object storage bucket for uploads.
	DefaultBucket = "dtp-upload"

	dataDirName      = ".dtp"
	settingsFileName = "settings.json"
	dbFileName       = "dtp.db"
	uploadsDirName   = "uploads"
)

// DefaultCORSOrigins are the frontend origins allowed by default.
var DefaultCORSOrigins = []string{
	"http://localhost:3000", "http://127.0.0.1:3000",
}

// Config holds all runtime settings. JSON keys match the environment variable names.
type Config struct {
	HTTPHost string `json:"DTP_HTTP_HOST"`
	Version  string `json:"-"`

	DBDriver    string `json:"DTP_DB_DRIVER"`
	DatabaseURL string `json:"DTP_DATABASE_URL"`
	DBPath      string `json:"DTP_DB_PATH"`
	DBLogLevel  string `json:"DTP_DB_LOG_LEVEL"`

	JWTSecret    string `json:"DTP_JWT_SECRET"`
	JWTAlgorithm string `json:"DTP_JWT_ALGORITHM"`

	StorageEndpoint  string `json:"DTP_MINIO_ENDPOINT"`
	StorageAccessKey string `json:"DTP_MINIO_ACCESS_KEY"`
	StorageSecretKey string `json:"DTP_MINIO_SECRET_KEY"`
	StorageBucket    string `json:"DTP_MINIO_BUCKET"`
	StorageRegion    string `json:"DTP_MINIO_REGION"`

	AIProvider      string `json:"DTP_AI_PROVIDER"`
	AIBaseURL       string `json:"DTP_AI_BASE_URL"`
	AIInterviewPath string `json:"DTP_AI_INTERVIEW_PATH"`
	AIMappingPath   string `json:"DTP_AI_MAPPING_PATH"`
	AIQuestionsPath string `json:"DTP_AI_QUESTIONS_PATH"`
	AIModel         string `json:"DTP_AI_MODEL"`
	AIAPIKey        string `json:"DTP_AI_API_KEY"`

	RabbitMQURL string `json:"DTP_RABBITMQ_URL"`
	UploadsDir  string `json:"DTP_UPLOADS_DIR"`

	LogLevel  string `json:"DTP_LOG_LEVEL"`
	LogFormat string `json:"DTP_LOG_FORMAT"`

	CORSOriginsRaw string   `json:"DTP_CORS_ORIGINS"`
	CORSOrigins    []string `json:"-"`

	HTTPPort                 int `json:"DTP_HTTP_PORT"`
	MaxConns                 int `json:"DTP_DB_MAX_CONNS"`
	AccessTokenExpireMinutes int `json:"DTP_ACCESS_TOKEN_EXPIRE_MINUTES"`
	AITimeoutSeconds         int `json:"DTP_AI_TIMEOUT_SECONDS"`
	InterviewMaxTurns        int `json:"DTP_INTERVIEW_MAX_TURNS"`
	PassThreshold            int `json:"DTP_ASSESSMENT_PASS_THRESHOLD"`

	StorageSecure bool `json:"DTP_MINIO_SECURE"`
}

var (
	global     *Config
	globalOnce sync.Once
)

// DataDir returns the data directory path.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, dataDirName)
}

// DBPath returns the default SQLite database path.
func DBPath() string {
	return filepath.Join(DataDir(), dbFileName)
}

// UploadsDir returns the default directory served under /static.
func UploadsDir() string {
	return filepath.Join(DataDir(), uploadsDirName)
}

// SettingsPath returns the settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), settingsFileName)
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		HTTPHost:                 "0.0.0.0",
		HTTPPort:                 DefaultHTTPPort,
		DBDriver:                 "sqlite",
		DBPath:                   DBPath(),
		UploadsDir:               UploadsDir(),
		DBLogLevel:               "warn",
		MaxConns:                 4,
		JWTSecret:                "change-me",
		JWTAlgorithm:             "HS256",
		AccessTokenExpireMinutes: 60,
		StorageEndpoint:          "localhost:9000",
		StorageBucket:            DefaultBucket,
		StorageRegion:            "us-east-1",
		AIProvider:               "proxy",
		AIBaseURL:                "http://localhost:8001",
		AIInterviewPath:          "/interview",
		AIMappingPath:            "/mapping",
		AIQuestionsPath:          "/questions",
		AIModel:                  "gpt-4o-mini",
		AITimeoutSeconds:         int(DefaultAITimeout / time.Second),
		InterviewMaxTurns:        DefaultInterviewMaxTurns,
		PassThreshold:            DefaultPassThreshold,
		LogLevel:                 "info",
		LogFormat:                "console",
		CORSOrigins:              append([]string(nil), DefaultCORSOrigins...),
	}
}

// Load reads the settings file, then applies environment overrides.
// A missing or unparsable settings file yields the defaults.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	if err == nil {
		fileCfg := Default()
		if jsonErr := json.Unmarshal(data, fileCfg); jsonErr == nil {
			cfg = fileCfg
		}
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// Get returns the process-wide configuration, loading it on first use.
func Get() *Config {
	globalOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
		}
		global = cfg
	})
	return global
}

// AITimeout returns the AI round-trip timeout.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the lifetime of issued access tokens.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.HTTPHost + ":" + strconv.Itoa(c.HTTPPort)
}

func (c *Config) applyEnv() {
	envString("DTP_HTTP_HOST", &c.HTTPHost)
	envInt("DTP_HTTP_PORT", &c.HTTPPort)
	envString("DTP_DB_DRIVER", &c.DBDriver)
	envString("DTP_DATABASE_URL", &c.DatabaseURL)
	envString("DTP_DB_PATH", &c.DBPath)
	envString("DTP_DB_LOG_LEVEL", &c.DBLogLevel)
	envInt("DTP_DB_MAX_CONNS", &c.MaxConns)
	envString("DTP_JWT_SECRET", &c.JWTSecret)
	envString("DTP_JWT_ALGORITHM", &c.JWTAlgorithm)
	envInt("DTP_ACCESS_TOKEN_EXPIRE_MINUTES", &c.AccessTokenExpireMinutes)
	envString("DTP_MINIO_ENDPOINT", &c.StorageEndpoint)
	envString("DTP_MINIO_ACCESS_KEY", &c.StorageAccessKey)
	envString("DTP_MINIO_SECRET_KEY", &c.StorageSecretKey)
	envString("DTP_MINIO_BUCKET", &c.StorageBucket)
	envString("DTP_MINIO_REGION", &c.StorageRegion)
	envBool("DTP_MINIO_SECURE", &c.StorageSecure)
	envString("DTP_AI_PROVIDER", &c.AIProvider)
	envString("DTP_AI_BASE_URL", &c.AIBaseURL)
	envString("DTP_AI_INTERVIEW_PATH", &c.AIInterviewPath)
	envString("DTP_AI_MAPPING_PATH", &c.AIMappingPath)
	envString("DTP_AI_QUESTIONS_PATH", &c.AIQuestionsPath)
	envString("DTP_AI_MODEL", &c.AIModel)
	envString("DTP_AI_API_KEY", &c.AIAPIKey)
	envInt("DTP_AI_TIMEOUT_SECONDS", &c.AITimeoutSeconds)
	envInt("DTP_INTERVIEW_MAX_TURNS", &c.InterviewMaxTurns)
	envInt("DTP_ASSESSMENT_PASS_THRESHOLD", &c.PassThreshold)
	envString("DTP_RABBITMQ_URL", &c.RabbitMQURL)
	envString("DTP_UPLOADS_DIR", &c.UploadsDir)
	envString("DTP_LOG_LEVEL", &c.LogLevel)
	envString("DTP_LOG_FORMAT", &c.LogFormat)
	envString("DTP_CORS_ORIGINS", &c.CORSOriginsRaw)
}

func (c *Config) normalize() {
	if c.HTTPPort <= 0 {
		c.HTTPPort = DefaultHTTPPort
	}
	if c.MaxConns <= 0 {
		c.MaxConns = 4
	}
	if c.InterviewMaxTurns <= 0 {
		c.InterviewMaxTurns = DefaultInterviewMaxTurns
	}
	if c.PassThreshold <= 0 || c.PassThreshold > 100 {
		c.PassThreshold = DefaultPassThreshold
	}
	if c.AITimeoutSeconds <= 0 {
		c.AITimeoutSeconds = int(DefaultAITimeout / time.Second)
	}
	if c.AccessTokenExpireMinutes <= 0 {
		c.AccessTokenExpireMinutes = 60
	}
	if c.DBPath == "" {
		c.DBPath = DBPath()
	}
	if c.UploadsDir == "" {
		c.UploadsDir = UploadsDir()
	}
	if origins := splitTrim(c.CORSOriginsRaw); len(origins) > 0 {
		c.CORSOrigins = origins
	}
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// splitTrim splits a comma-separated list, dropping empty values.
func splitTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

// EnsureDataDir creates the data directory if it does not exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0750)
}

// EnsureSettings writes a default settings file if none exists.
func EnsureSettings() error {
	path := SettingsPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	defaults := map[string]any{
		"DTP_HTTP_PORT":           DefaultHTTPPort,
		"DTP_DB_DRIVER":           "sqlite",
		"DTP_AI_PROVIDER":         "proxy",
		"DTP_INTERVIEW_MAX_TURNS": DefaultInterviewMaxTurns,
		"DTP_LOG_LEVEL":           "info",
	}
	data, err := json.MarshalIndent(defaults, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// EnsureAll creates the data directory and default settings.
func EnsureAll() error {
	if err := EnsureDataDir(); err != nil {
		return err
	}
	return EnsureSettings()
}
