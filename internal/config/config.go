package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"go-fits-inspector/internal/resolver"
	"go-fits-inspector/pkg/validation"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64

	LogLevel  string
	LogFormat string

	ResolverURL       string
	ResolverTimeout   time.Duration
	ResolverRateLimit float64

	MOCMaxDepth  int
	BatchWorkers int

	Azure AzureConfig
	S3    S3Config
}

type AzureConfig struct {
	AccountName string
	AccountKey  string
	Container   string
	ServiceURL  string
}

type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	UseSSL          bool
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", 30*time.Second)
	v.SetDefault("MAX_REQUEST_BODY_SIZE", 64*1024*1024) // 64MB
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("RESOLVER_URL", resolver.DefaultEndpoint)
	v.SetDefault("RESOLVER_TIMEOUT", resolver.DefaultTimeout)
	v.SetDefault("RESOLVER_RATE_LIMIT", 0.0)
	v.SetDefault("MOC_MAX_DEPTH", 10)
	v.SetDefault("BATCH_WORKERS", 1)
	v.SetDefault("AZURE_ACCOUNT_NAME", "")
	v.SetDefault("AZURE_ACCOUNT_KEY", "")
	v.SetDefault("AZURE_CONTAINER", "")
	v.SetDefault("AZURE_SERVICE_URL", "")
	v.SetDefault("S3_ENDPOINT", "localhost:9000")
	v.SetDefault("S3_ACCESS_KEY_ID", "")
	v.SetDefault("S3_SECRET_ACCESS_KEY", "")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_USE_SSL", false)
}

// LoadFromEnv reads configuration from the environment only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

// Load reads configuration from defaults, the optional config file and the
// environment, in increasing order of precedence.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		Host:               v.GetString("HOST"),
		Port:               v.GetString("PORT"),
		RequestTimeout:     v.GetDuration("REQUEST_TIMEOUT"),
		MaxRequestBodySize: v.GetInt64("MAX_REQUEST_BODY_SIZE"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogFormat:          v.GetString("LOG_FORMAT"),
		ResolverURL:        strings.TrimSpace(v.GetString("RESOLVER_URL")),
		ResolverTimeout:    v.GetDuration("RESOLVER_TIMEOUT"),
		ResolverRateLimit:  v.GetFloat64("RESOLVER_RATE_LIMIT"),
		MOCMaxDepth:        v.GetInt("MOC_MAX_DEPTH"),
		BatchWorkers:       v.GetInt("BATCH_WORKERS"),
		Azure: AzureConfig{
			AccountName: v.GetString("AZURE_ACCOUNT_NAME"),
			AccountKey:  v.GetString("AZURE_ACCOUNT_KEY"),
			Container:   v.GetString("AZURE_CONTAINER"),
			ServiceURL:  v.GetString("AZURE_SERVICE_URL"),
		},
		S3: S3Config{
			Endpoint:        v.GetString("S3_ENDPOINT"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			Bucket:          v.GetString("S3_BUCKET"),
			Region:          v.GetString("S3_REGION"),
			UseSSL:          v.GetBool("S3_USE_SSL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and formats of the loaded values.
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.ResolverTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, resolver=%s)",
			c.RequestTimeout, c.ResolverTimeout)
	}
	if err := validation.NewURLValidator().ValidateURL(c.ResolverURL); err != nil {
		return fmt.Errorf("invalid RESOLVER_URL: %w", err)
	}
	if c.ResolverRateLimit < 0 {
		return fmt.Errorf("RESOLVER_RATE_LIMIT must be >= 0 (got %g)", c.ResolverRateLimit)
	}
	if c.MOCMaxDepth < 1 || c.MOCMaxDepth > 29 {
		return fmt.Errorf("MOC_MAX_DEPTH must be in [1, 29] (got %d)", c.MOCMaxDepth)
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("BATCH_WORKERS must be >= 1 (got %d)", c.BatchWorkers)
	}
	return nil
}
