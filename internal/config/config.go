package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Database      DatabaseConfig
	Vector        VectorConfig
	Embedding     EmbeddingConfig
	LLM           LLMConfig
	Repair        RepairConfig
	Counters      CountersConfig
	Prompt        PromptConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig points at the relational store that generated SQL runs
// against. Driver is one of sqlite3, duckdb, pgx.
type DatabaseConfig struct {
	Driver string
	DSN    string
}

type VectorConfig struct {
	Backend    string
	IndexName  string
	SQLitePath string
	RedisAddr  string
	RedisDB    int
	TopK       int
}

type EmbeddingConfig struct {
	Model     string
	BatchSize int
}

type LLMConfig struct {
	Model            string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	AnthropicAPIKey  string
	AnthropicBaseURL string
	MaxTokens        int
	Timeout          time.Duration
}

type RepairConfig struct {
	MaxRetries int
}

// CountersConfig selects where the running cost/visitor totals live.
// Backend is "file" or "redis".
type CountersConfig struct {
	Backend   string
	FilePath  string
	RedisAddr string
	RedisDB   int
}

type PromptConfig struct {
	ContextFilePath string
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("QUERYLOOM_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid QUERYLOOM_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	if err := applyString(lookup, "QUERYLOOM_SERVICE_NAME", &cfg.Service.Name); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYLOOM_HTTP_ADDR", &cfg.HTTP.Address); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "QUERYLOOM_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "QUERYLOOM_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "QUERYLOOM_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYLOOM_DB_DRIVER", &cfg.Database.Driver); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYLOOM_DB_DSN", &cfg.Database.DSN); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYLOOM_VECTOR_BACKEND", &cfg.Vector.Backend); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYLOOM_VECTOR_INDEX_NAME", &cfg.Vector.IndexName); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYLOOM_VECTOR_SQLITE_PATH", &cfg.Vector.SQLitePath); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYLOOM_VECTOR_REDIS_ADDR", &cfg.Vector.RedisAddr); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "QUERYLOOM_VECTOR_REDIS_DB", &cfg.Vector.RedisDB); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "QUERYLOOM_VECTOR_TOP_K", &cfg.Vector.TopK); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYLOOM_EMBED_MODEL", &cfg.Embedding.Model); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "QUERYLOOM_EMBED_BATCH_SIZE", &cfg.Embedding.BatchSize); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYLOOM_LLM_MODEL", &cfg.LLM.Model); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "OPENAI_API_KEY", &cfg.LLM.OpenAIAPIKey); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYLOOM_OPENAI_BASE_URL", &cfg.LLM.OpenAIBaseURL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "CLAUDE_API_KEY", &cfg.LLM.AnthropicAPIKey); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYLOOM_ANTHROPIC_BASE_URL", &cfg.LLM.AnthropicBaseURL); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "QUERYLOOM_LLM_MAX_TOKENS", &cfg.LLM.MaxTokens); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "QUERYLOOM_LLM_TIMEOUT", &cfg.LLM.Timeout); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "QUERYLOOM_REPAIR_MAX_RETRIES", &cfg.Repair.MaxRetries); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYLOOM_COUNTERS_BACKEND", &cfg.Counters.Backend); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYLOOM_COUNTERS_FILE", &cfg.Counters.FilePath); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYLOOM_COUNTERS_REDIS_ADDR", &cfg.Counters.RedisAddr); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "QUERYLOOM_COUNTERS_REDIS_DB", &cfg.Counters.RedisDB); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYLOOM_CONTEXT_PROMPT_FILE", &cfg.Prompt.ContextFilePath); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "QUERYLOOM_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "QUERYLOOM_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "QUERYLOOM_AUTH_REQUIRED", &cfg.Auth.Required); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYLOOM_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys); err != nil {
		return Config{}, err
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if !isValidDriver(cfg.Database.Driver) {
		return Config{}, fmt.Errorf("invalid QUERYLOOM_DB_DRIVER: %q (supported: sqlite3, duckdb, pgx)", cfg.Database.Driver)
	}
	if !isValidVectorBackend(cfg.Vector.Backend) {
		return Config{}, fmt.Errorf("invalid QUERYLOOM_VECTOR_BACKEND: %q (supported: sqlite, redis)", cfg.Vector.Backend)
	}
	if !isValidCountersBackend(cfg.Counters.Backend) {
		return Config{}, fmt.Errorf("invalid QUERYLOOM_COUNTERS_BACKEND: %q (supported: file, redis)", cfg.Counters.Backend)
	}
	if cfg.Vector.TopK <= 0 {
		return Config{}, fmt.Errorf("QUERYLOOM_VECTOR_TOP_K must be positive")
	}
	if cfg.Repair.MaxRetries < 0 {
		return Config{}, fmt.Errorf("QUERYLOOM_REPAIR_MAX_RETRIES must not be negative")
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "queryloom-api"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "patient_health_data.db",
		},
		Vector: VectorConfig{
			Backend:    "sqlite",
			IndexName:  "schema-index",
			SQLitePath: "schema_index.db",
			RedisAddr:  "localhost:6379",
			RedisDB:    0,
			TopK:       5,
		},
		Embedding: EmbeddingConfig{
			Model:     "text-embedding-3-small",
			BatchSize: 10,
		},
		LLM: LLMConfig{
			Model:            "gpt-4-0125-preview",
			AnthropicBaseURL: "https://api.anthropic.com",
			MaxTokens:        1000,
			Timeout:          60 * time.Second,
		},
		Repair: RepairConfig{
			MaxRetries: 3,
		},
		Counters: CountersConfig{
			Backend:  "file",
			FilePath: "metrics.json",
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
		Auth: AuthConfig{
			Required:   false,
			StaticKeys: "",
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Auth.Required = true
		cfg.Counters.Backend = "redis"
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func isValidDriver(driver string) bool {
	switch driver {
	case "sqlite3", "duckdb", "pgx":
		return true
	default:
		return false
	}
}

func isValidVectorBackend(backend string) bool {
	switch backend {
	case "sqlite", "redis":
		return true
	default:
		return false
	}
}

func isValidCountersBackend(backend string) bool {
	switch backend {
	case "file", "redis":
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
