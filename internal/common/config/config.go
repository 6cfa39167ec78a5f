// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Search    SearchConfig    `mapstructure:"search"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int `mapstructure:"write_timeout"` // milliseconds
	IdleTimeout  int `mapstructure:"idle_timeout"`  // milliseconds
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Provider Configuration ---

// ProvidersConfig holds settings for every external search/answer API.
type ProvidersConfig struct {
	Brave      BraveConfig      `mapstructure:"brave"`
	Apify      ApifyConfig      `mapstructure:"apify"`
	Tavily     TavilyConfig     `mapstructure:"tavily"`
	BingVision BingVisionConfig `mapstructure:"bing_vision"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
}

type BraveConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type ApifyConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Token   string `mapstructure:"token"`
	ActorID string `mapstructure:"actor_id"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type TavilyConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type BingVisionConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type OpenAIConfig struct {
	BaseURL      string  `mapstructure:"base_url"`
	APIKey       string  `mapstructure:"api_key"`
	Organization string  `mapstructure:"organization"`
	ProjectID    string  `mapstructure:"project_id"`
	TextModel    string  `mapstructure:"text_model"`
	VisionModel  string  `mapstructure:"vision_model"`
	Temperature  float64 `mapstructure:"temperature"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	MaxRetries   int     `mapstructure:"max_retries"`
	Timeout      int     `mapstructure:"timeout"` // milliseconds
}

// --- Orchestration Configuration ---

// SearchConfig holds tuning knobs for the retrieval orchestrator.
type SearchConfig struct {
	MaxResults       int `mapstructure:"max_results"`
	FallbackDelay    int `mapstructure:"fallback_delay"`    // milliseconds before trying the fallback provider
	HistoryCapacity  int `mapstructure:"history_capacity"`  // ring buffer size for introspection
	UploadTTLSeconds int `mapstructure:"upload_ttl"`        // transient upload retention
	BatchStagger     int `mapstructure:"batch_stagger"`     // milliseconds between staggered batch starts
	BatchMaxQueries  int `mapstructure:"batch_max_queries"` // concurrent queries in a batch search
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TracingConfig holds trace export settings.
type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}
