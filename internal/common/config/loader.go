// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like PROVIDERS_BRAVE_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Overlay the environment-specific file when present.
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env from a few locations so the service starts the same
// way from the repo root, cmd/ or test directories.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
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

// expandEnvVars resolves ${VAR} placeholders left in yaml values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig fills provider secrets straight from the environment
// when the yaml left them empty.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Providers.Brave.APIKey == "" {
		if val := os.Getenv("BRAVE_API_KEY"); val != "" {
			cfg.Providers.Brave.APIKey = val
		}
	}
	if cfg.Providers.Apify.Token == "" {
		if val := os.Getenv("APIFY_API_TOKEN"); val != "" {
			cfg.Providers.Apify.Token = val
		}
	}
	if cfg.Providers.Tavily.APIKey == "" {
		if val := os.Getenv("TAVILY_API_KEY"); val != "" {
			cfg.Providers.Tavily.APIKey = val
		}
	}
	if cfg.Providers.BingVision.APIKey == "" {
		if val := os.Getenv("BING_API_KEY"); val != "" {
			cfg.Providers.BingVision.APIKey = val
		}
	}
	if cfg.Providers.OpenAI.APIKey == "" {
		if val := os.Getenv("OPENAI_API_KEY"); val != "" {
			cfg.Providers.OpenAI.APIKey = val
		}
	}
	if cfg.Providers.OpenAI.Organization == "" {
		if val := os.Getenv("OPENAI_ORGANIZATION"); val != "" {
			cfg.Providers.OpenAI.Organization = val
		}
	}
	if cfg.Providers.OpenAI.ProjectID == "" {
		if val := os.Getenv("OPENAI_PROJECT_ID"); val != "" {
			cfg.Providers.OpenAI.ProjectID = val
		}
	}
	if cfg.Database.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Database.Redis.Address = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60000
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120000
	}

	// Provider endpoints and timeouts
	if cfg.Providers.Brave.BaseURL == "" {
		cfg.Providers.Brave.BaseURL = "https://api.search.brave.com/res/v1"
	}
	if cfg.Providers.Brave.Timeout == 0 {
		cfg.Providers.Brave.Timeout = 10000
	}
	if cfg.Providers.Apify.BaseURL == "" {
		cfg.Providers.Apify.BaseURL = "https://api.apify.com/v2"
	}
	if cfg.Providers.Apify.ActorID == "" {
		cfg.Providers.Apify.ActorID = "apify~google-search-scraper"
	}
	if cfg.Providers.Apify.Timeout == 0 {
		cfg.Providers.Apify.Timeout = 30000
	}
	if cfg.Providers.Tavily.BaseURL == "" {
		cfg.Providers.Tavily.BaseURL = "https://api.tavily.com"
	}
	if cfg.Providers.Tavily.Timeout == 0 {
		cfg.Providers.Tavily.Timeout = 10000
	}
	if cfg.Providers.BingVision.BaseURL == "" {
		cfg.Providers.BingVision.BaseURL = "https://api.bing.microsoft.com/v7.0/images"
	}
	if cfg.Providers.BingVision.Timeout == 0 {
		cfg.Providers.BingVision.Timeout = 15000
	}
	if cfg.Providers.OpenAI.BaseURL == "" {
		cfg.Providers.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Providers.OpenAI.TextModel == "" {
		cfg.Providers.OpenAI.TextModel = "gpt-4o"
	}
	if cfg.Providers.OpenAI.VisionModel == "" {
		cfg.Providers.OpenAI.VisionModel = "gpt-4o-mini"
	}
	if cfg.Providers.OpenAI.Temperature == 0 {
		cfg.Providers.OpenAI.Temperature = 0.3
	}
	if cfg.Providers.OpenAI.MaxTokens == 0 {
		cfg.Providers.OpenAI.MaxTokens = 2048
	}
	if cfg.Providers.OpenAI.MaxRetries == 0 {
		cfg.Providers.OpenAI.MaxRetries = 3
	}
	if cfg.Providers.OpenAI.Timeout == 0 {
		cfg.Providers.OpenAI.Timeout = 60000
	}

	// Orchestrator defaults
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 10
	}
	if cfg.Search.FallbackDelay == 0 {
		cfg.Search.FallbackDelay = 1000
	}
	if cfg.Search.HistoryCapacity == 0 {
		cfg.Search.HistoryCapacity = 50
	}
	if cfg.Search.UploadTTLSeconds == 0 {
		cfg.Search.UploadTTLSeconds = 900
	}
	if cfg.Search.BatchStagger == 0 {
		cfg.Search.BatchStagger = 500
	}
	if cfg.Search.BatchMaxQueries == 0 {
		cfg.Search.BatchMaxQueries = 3
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Tracing.JaegerEndpoint == "" {
		cfg.Tracing.JaegerEndpoint = "http://localhost:14268/api/traces"
	}
}

// validateConfig validates critical configuration fields. Provider API keys
// are deliberately not required here: a missing key fails that provider fast
// at call time, which triggers the fallback path instead of refusing to boot.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if cfg.Search.MaxResults < 1 {
		return fmt.Errorf("search.max_results must be positive")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
