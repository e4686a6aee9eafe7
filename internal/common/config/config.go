// internal/common/config/config.go
package config

import (
	"fmt"
	"strings"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Database DatabaseConfig          `mapstructure:"database"`
	Cache    CacheConfig             `mapstructure:"cache"`
	LLM      LLMConfig               `mapstructure:"llm"`
	Maps     MapsConfig              `mapstructure:"maps"`
	Hotels   HotelsConfig            `mapstructure:"hotels"`
	Planner  PlannerConfig           `mapstructure:"planner"`
	Context  ContextConfig           `mapstructure:"context"`
	Tracing  TracingConfig           `mapstructure:"tracing"`
	Cost     CostConfig              `mapstructure:"cost"`
	Logging  LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	HTTPAddress string `mapstructure:"http_address"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// --- Planner Sections ---

// CacheConfig selects the lookup cache backend. TTLs are in seconds.
type CacheConfig struct {
	Backend    string `mapstructure:"backend"` // memory | redis
	DefaultTTL int    `mapstructure:"default_ttl"`
	PricingTTL int    `mapstructure:"pricing_ttl"`
	BookingTTL int    `mapstructure:"booking_ttl"`
	KeyPrefix  string `mapstructure:"key_prefix"`
	// PurgeOnStart drops prefixed Redis keys at startup, e.g. after a tariff change.
	PurgeOnStart bool `mapstructure:"purge_on_start"`
}

type ProviderCredentials struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// LLMConfig configures the generative candidate providers.
type LLMConfig struct {
	Order         string              `mapstructure:"order"` // comma separated priority list
	MaxAttempts   int                 `mapstructure:"max_attempts"`
	BackoffBaseMs int                 `mapstructure:"backoff_base_ms"`
	BackoffCapMs  int                 `mapstructure:"backoff_cap_ms"`
	Timeout       int                 `mapstructure:"timeout"` // milliseconds
	Temperature   float64             `mapstructure:"temperature"`
	MaxTokens     int                 `mapstructure:"max_tokens"`
	Gemini        ProviderCredentials `mapstructure:"gemini"`
	OpenAI        ProviderCredentials `mapstructure:"openai"`
	Anthropic     ProviderCredentials `mapstructure:"anthropic"`
}

// ProviderOrder returns the priority list normalised to lower case.
func (l LLMConfig) ProviderOrder() []string {
	var out []string
	for _, p := range strings.Split(l.Order, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type MapsConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type HotelsConfig struct {
	APIKey          string `mapstructure:"api_key"`
	APIHost         string `mapstructure:"api_host"`
	Endpoint        string `mapstructure:"endpoint"`
	BookingEndpoint string `mapstructure:"booking_endpoint"`
	Timeout         int    `mapstructure:"timeout"` // milliseconds
}

// PlannerConfig holds thresholds and heuristic rates for the pipeline.
type PlannerConfig struct {
	MinRating       float64 `mapstructure:"min_rating"`
	FoodPerDay      float64 `mapstructure:"food_per_day"`
	TransportPerDay float64 `mapstructure:"transport_per_day"`
	TicketsPerDay   float64 `mapstructure:"tickets_per_day"`
	MiscPerDay      float64 `mapstructure:"misc_per_day"`
	DefaultCurrency string  `mapstructure:"default_currency"`
	DefaultSlot     string  `mapstructure:"default_slot"`
	ParallelRouting bool    `mapstructure:"parallel_routing"`
}

type ContextConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Backend      string `mapstructure:"backend"` // elasticsearch | postgres | none
	Index        string `mapstructure:"index"`
	Table        string `mapstructure:"table"`
	Limit        int    `mapstructure:"limit"`
	SnippetChars int    `mapstructure:"snippet_chars"`
	// Bootstrap creates the index or table when it is missing.
	Bootstrap bool `mapstructure:"bootstrap"`
}

type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// ModelPrice is USD per 1K tokens.
type ModelPrice struct {
	Input  float64 `mapstructure:"input"`
	Output float64 `mapstructure:"output"`
}

type CostConfig struct {
	Table map[string]ModelPrice `mapstructure:"table"` // keyed by provider:model
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
