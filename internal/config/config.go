package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	S3         S3Config
	Extractor  ExtractorConfig
	Translator TranslatorConfig
	Validation ValidationConfig
	Query      QueryConfig
	Ingest     IngestConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings for source image retention.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// ProviderConfig holds settings for a single LLM provider slot.
type ProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ExtractorConfig holds vision extraction settings with fallback support.
type ExtractorConfig struct {
	Primary    ProviderConfig `mapstructure:"primary"`
	Secondary  ProviderConfig `mapstructure:"secondary"`
	MaxRetries int            `mapstructure:"max_retries"`
}

// SecondaryConfig returns the secondary extractor config, or nil if not configured.
func (e *ExtractorConfig) SecondaryConfig() *ProviderConfig {
	if e.Secondary.Provider != "" {
		return &e.Secondary
	}
	return nil
}

// TranslatorConfig holds natural-language-to-SQL translation settings.
type TranslatorConfig struct {
	Provider      ProviderConfig `mapstructure:"provider"`
	MinConfidence float64        `mapstructure:"min_confidence"`
}

// ValidationConfig holds extraction validation settings.
type ValidationConfig struct {
	RequiredFields      []string `mapstructure:"required_fields"`
	ConfidenceThreshold float64  `mapstructure:"confidence_threshold"`
	ToleranceMinor      int64    `mapstructure:"tolerance_minor"`
}

// QueryConfig holds query execution settings.
type QueryConfig struct {
	MaxRows     int           `mapstructure:"max_rows"`
	ExecTimeout time.Duration `mapstructure:"exec_timeout"`
}

// IngestConfig holds ingestion settings.
type IngestConfig struct {
	MaxImageSizeMB int64 `mapstructure:"max_image_size_mb"`
}

// Load reads configuration from environment variables with the INVOSIGHT_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INVOSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "invosight")
	v.SetDefault("db.password", "invosight_secret")
	v.SetDefault("db.name", "invosight_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults (empty bucket disables image retention)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")

	// Extractor defaults
	v.SetDefault("extractor.primary.provider", "nvidia")
	v.SetDefault("extractor.primary.api_key", "")
	v.SetDefault("extractor.primary.default_model", "meta/llama-3.2-90b-vision-instruct")
	v.SetDefault("extractor.primary.timeout_secs", 120)
	v.SetDefault("extractor.secondary.provider", "")
	v.SetDefault("extractor.secondary.api_key", "")
	v.SetDefault("extractor.secondary.default_model", "")
	v.SetDefault("extractor.secondary.timeout_secs", 120)
	v.SetDefault("extractor.max_retries", 2)

	// Translator defaults
	v.SetDefault("translator.provider.provider", "nvidia")
	v.SetDefault("translator.provider.api_key", "")
	v.SetDefault("translator.provider.default_model", "meta/llama-3.1-70b-instruct")
	v.SetDefault("translator.provider.timeout_secs", 30)
	v.SetDefault("translator.min_confidence", 0.4)

	// Validation defaults
	v.SetDefault("validation.required_fields", "")
	v.SetDefault("validation.confidence_threshold", 0.6)
	v.SetDefault("validation.tolerance_minor", 100)

	// Query defaults
	v.SetDefault("query.max_rows", 500)
	v.SetDefault("query.exec_timeout", "10s")

	// Ingest defaults
	v.SetDefault("ingest.max_image_size_mb", 10)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":          "INVOSIGHT_SERVER_PORT",
		"server.read_timeout":  "INVOSIGHT_SERVER_READ_TIMEOUT",
		"server.write_timeout": "INVOSIGHT_SERVER_WRITE_TIMEOUT",
		"server.environment":   "INVOSIGHT_SERVER_ENVIRONMENT",
		"db.host":              "INVOSIGHT_DB_HOST",
		"db.port":              "INVOSIGHT_DB_PORT",
		"db.user":              "INVOSIGHT_DB_USER",
		"db.password":          "INVOSIGHT_DB_PASSWORD",
		"db.name":              "INVOSIGHT_DB_NAME",
		"db.sslmode":           "INVOSIGHT_DB_SSLMODE",
		"db.max_open":          "INVOSIGHT_DB_MAX_OPEN",
		"db.max_idle":          "INVOSIGHT_DB_MAX_IDLE",
		"s3.region":            "INVOSIGHT_S3_REGION",
		"s3.bucket":            "INVOSIGHT_S3_BUCKET",
		"s3.endpoint":          "INVOSIGHT_S3_ENDPOINT",
		"s3.access_key":        "INVOSIGHT_S3_ACCESS_KEY",
		"s3.secret_key":        "INVOSIGHT_S3_SECRET_KEY",
		"extractor.primary.provider":        "INVOSIGHT_EXTRACTOR_PRIMARY_PROVIDER",
		"extractor.primary.api_key":         "INVOSIGHT_EXTRACTOR_PRIMARY_API_KEY",
		"extractor.primary.default_model":   "INVOSIGHT_EXTRACTOR_PRIMARY_DEFAULT_MODEL",
		"extractor.primary.timeout_secs":    "INVOSIGHT_EXTRACTOR_PRIMARY_TIMEOUT_SECS",
		"extractor.secondary.provider":      "INVOSIGHT_EXTRACTOR_SECONDARY_PROVIDER",
		"extractor.secondary.api_key":       "INVOSIGHT_EXTRACTOR_SECONDARY_API_KEY",
		"extractor.secondary.default_model": "INVOSIGHT_EXTRACTOR_SECONDARY_DEFAULT_MODEL",
		"extractor.secondary.timeout_secs":  "INVOSIGHT_EXTRACTOR_SECONDARY_TIMEOUT_SECS",
		"extractor.max_retries":             "INVOSIGHT_EXTRACTOR_MAX_RETRIES",
		"translator.provider.provider":      "INVOSIGHT_TRANSLATOR_PROVIDER_PROVIDER",
		"translator.provider.api_key":       "INVOSIGHT_TRANSLATOR_PROVIDER_API_KEY",
		"translator.provider.default_model": "INVOSIGHT_TRANSLATOR_PROVIDER_DEFAULT_MODEL",
		"translator.provider.timeout_secs":  "INVOSIGHT_TRANSLATOR_PROVIDER_TIMEOUT_SECS",
		"translator.min_confidence":         "INVOSIGHT_TRANSLATOR_MIN_CONFIDENCE",
		"validation.required_fields":        "INVOSIGHT_VALIDATION_REQUIRED_FIELDS",
		"validation.confidence_threshold":   "INVOSIGHT_VALIDATION_CONFIDENCE_THRESHOLD",
		"validation.tolerance_minor":        "INVOSIGHT_VALIDATION_TOLERANCE_MINOR",
		"query.max_rows":                    "INVOSIGHT_QUERY_MAX_ROWS",
		"query.exec_timeout":                "INVOSIGHT_QUERY_EXEC_TIMEOUT",
		"ingest.max_image_size_mb":          "INVOSIGHT_INGEST_MAX_IMAGE_SIZE_MB",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if INVOSIGHT_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("INVOSIGHT_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Extractor = ExtractorConfig{
		Primary: ProviderConfig{
			Provider:     v.GetString("extractor.primary.provider"),
			APIKey:       v.GetString("extractor.primary.api_key"),
			DefaultModel: v.GetString("extractor.primary.default_model"),
			TimeoutSecs:  v.GetInt("extractor.primary.timeout_secs"),
		},
		Secondary: ProviderConfig{
			Provider:     v.GetString("extractor.secondary.provider"),
			APIKey:       v.GetString("extractor.secondary.api_key"),
			DefaultModel: v.GetString("extractor.secondary.default_model"),
			TimeoutSecs:  v.GetInt("extractor.secondary.timeout_secs"),
		},
		MaxRetries: v.GetInt("extractor.max_retries"),
	}
	cfg.Translator = TranslatorConfig{
		Provider: ProviderConfig{
			Provider:     v.GetString("translator.provider.provider"),
			APIKey:       v.GetString("translator.provider.api_key"),
			DefaultModel: v.GetString("translator.provider.default_model"),
			TimeoutSecs:  v.GetInt("translator.provider.timeout_secs"),
		},
		MinConfidence: v.GetFloat64("translator.min_confidence"),
	}

	// Parse required fields from comma-separated string
	var requiredFields []string
	for _, f := range strings.Split(v.GetString("validation.required_fields"), ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			requiredFields = append(requiredFields, f)
		}
	}
	cfg.Validation = ValidationConfig{
		RequiredFields:      requiredFields,
		ConfidenceThreshold: v.GetFloat64("validation.confidence_threshold"),
		ToleranceMinor:      v.GetInt64("validation.tolerance_minor"),
	}

	cfg.Query = QueryConfig{
		MaxRows:     v.GetInt("query.max_rows"),
		ExecTimeout: v.GetDuration("query.exec_timeout"),
	}
	cfg.Ingest = IngestConfig{
		MaxImageSizeMB: v.GetInt64("ingest.max_image_size_mb"),
	}

	return cfg, nil
}
