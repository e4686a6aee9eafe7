// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<env>.yaml on top and
// applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideFromEnv(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env", // test/e2e
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideFromEnv applies the well-known variable names operators already
// export for the provider keys and heuristic rates. They win over the file.
func overrideFromEnv(cfg *Config) {
	setString(&cfg.LLM.Order, "LLM_ORDER")
	setString(&cfg.LLM.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.LLM.Gemini.Model, "GEMINI_MODEL")
	setString(&cfg.LLM.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&cfg.LLM.OpenAI.Model, "OPENAI_MODEL")
	setString(&cfg.LLM.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	setString(&cfg.LLM.Anthropic.Model, "ANTHROPIC_MODEL")

	setString(&cfg.Maps.APIKey, "GOOGLE_MAPS_API_KEY")

	setString(&cfg.Hotels.APIKey, "HOTEL_API_KEY")
	setString(&cfg.Hotels.APIHost, "HOTEL_API_HOST")
	setString(&cfg.Hotels.Endpoint, "HOTEL_API_ENDPOINT")
	setString(&cfg.Hotels.BookingEndpoint, "HOTEL_BOOKING_ENDPOINT")

	setFloat(&cfg.Planner.MinRating, "MIN_RATING")
	setFloat(&cfg.Planner.FoodPerDay, "DEFAULT_FOOD_PER_DAY")
	setFloat(&cfg.Planner.TransportPerDay, "DEFAULT_TRANSPORT_PER_DAY")
	setFloat(&cfg.Planner.TicketsPerDay, "DEFAULT_TICKETS_PER_DAY")
	setFloat(&cfg.Planner.MiscPerDay, "DEFAULT_MISC_PER_DAY")

	if val := os.Getenv("RAG_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Context.Enabled = b
		}
	}

	setString(&cfg.Database.Postgres.User, "DB_USER")
	setString(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	setString(&cfg.Database.Redis.Address, "REDIS_ADDRESS")
}

func setString(dst *string, env string) {
	if val := os.Getenv(env); val != "" {
		*dst = val
	}
}

func setFloat(dst *float64, env string) {
	if val := os.Getenv(env); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "travel-planner"
	}
	if cfg.App.HTTPAddress == "" {
		cfg.App.HTTPAddress = ":8080"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.DefaultTTL == 0 {
		cfg.Cache.DefaultTTL = 300
	}
	if cfg.Cache.PricingTTL == 0 {
		cfg.Cache.PricingTTL = 900
	}
	if cfg.Cache.BookingTTL == 0 {
		cfg.Cache.BookingTTL = 900
	}

	if cfg.LLM.Order == "" {
		cfg.LLM.Order = "gemini,openai,anthropic"
	}
	if cfg.LLM.MaxAttempts == 0 {
		cfg.LLM.MaxAttempts = 2
	}
	if cfg.LLM.BackoffBaseMs == 0 {
		cfg.LLM.BackoffBaseMs = 500
	}
	if cfg.LLM.BackoffCapMs == 0 {
		cfg.LLM.BackoffCapMs = 4000
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60000
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.2
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.LLM.Gemini.Model == "" {
		cfg.LLM.Gemini.Model = "gemini-1.5-flash"
	}
	if cfg.LLM.OpenAI.Model == "" {
		cfg.LLM.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.LLM.Anthropic.Model == "" {
		cfg.LLM.Anthropic.Model = "claude-3-haiku-20240307"
	}

	if cfg.Maps.BaseURL == "" {
		cfg.Maps.BaseURL = "https://maps.googleapis.com/maps/api"
	}
	if cfg.Maps.Timeout == 0 {
		cfg.Maps.Timeout = 15000
	}
	if cfg.Hotels.Timeout == 0 {
		cfg.Hotels.Timeout = 20000
	}

	if cfg.Planner.MinRating == 0 {
		cfg.Planner.MinRating = 3.9
	}
	if cfg.Planner.FoodPerDay == 0 {
		cfg.Planner.FoodPerDay = 35
	}
	if cfg.Planner.TransportPerDay == 0 {
		cfg.Planner.TransportPerDay = 20
	}
	if cfg.Planner.TicketsPerDay == 0 {
		cfg.Planner.TicketsPerDay = 25
	}
	if cfg.Planner.MiscPerDay == 0 {
		cfg.Planner.MiscPerDay = 15
	}
	if cfg.Planner.DefaultCurrency == "" {
		cfg.Planner.DefaultCurrency = "USD"
	}
	if cfg.Planner.DefaultSlot == "" {
		cfg.Planner.DefaultSlot = "09:00"
	}

	if cfg.Context.Backend == "" {
		cfg.Context.Backend = "none"
	}
	if cfg.Context.Index == "" {
		cfg.Context.Index = "travel-guides"
	}
	if cfg.Context.Table == "" {
		cfg.Context.Table = "rag_docs"
	}
	if cfg.Context.Limit == 0 {
		cfg.Context.Limit = 5
	}
	if cfg.Context.SnippetChars == 0 {
		cfg.Context.SnippetChars = 500
	}

	if cfg.Cost.Table == nil {
		cfg.Cost.Table = DefaultCostTable()
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 120000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// DefaultCostTable lists published per-1K-token prices for the default models.
func DefaultCostTable() map[string]ModelPrice {
	return map[string]ModelPrice{
		"openai:gpt-4o-mini":                {Input: 0.15, Output: 0.6},
		"anthropic:claude-3-haiku-20240307": {Input: 0.25, Output: 1.25},
		"gemini:gemini-1.5-flash":           {Input: 0.075, Output: 0.30},
	}
}

func validateConfig(cfg *Config) error {
	anyEnabled := false
	for _, w := range cfg.Workers {
		if w.Enabled {
			anyEnabled = true
			break
		}
	}
	if anyEnabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when a worker is enabled")
	}

	switch cfg.Cache.Backend {
	case "memory":
	case "redis":
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("unknown cache.backend %q", cfg.Cache.Backend)
	}

	if cfg.Context.Enabled {
		switch cfg.Context.Backend {
		case "none":
		case "elasticsearch":
			if cfg.Database.Elasticsearch.GetURL() == "" {
				return fmt.Errorf("database.elasticsearch.addresses or url is required for the elasticsearch context backend")
			}
		case "postgres":
			if cfg.Database.Postgres.Host == "" || cfg.Database.Postgres.Database == "" {
				return fmt.Errorf("database.postgres.host and database are required for the postgres context backend")
			}
		default:
			return fmt.Errorf("unknown context.backend %q", cfg.Context.Backend)
		}
	}

	if cfg.LLM.MaxAttempts < 1 {
		return fmt.Errorf("llm.max_attempts must be at least 1")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetSeconds converts seconds from config to time.Duration
func GetSeconds(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       120000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
