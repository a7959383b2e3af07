package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for a pyqs worker process.
type Config struct {
	Reader    ReaderConfig
	Processor ProcessorConfig
	Queue     QueueConfig
	SQS       SQSConfig
	Registry  RegistryConfig
	Admin     AdminConfig
	Metrics   MetricsConfig
	LogLevel  string
}

// ReaderConfig controls the pool of ReadWorkers.
type ReaderConfig struct {
	Count      int
	BatchSize  int32
	QueueNames []string
}

// ProcessorConfig controls the pool of ProcessWorkers.
type ProcessorConfig struct {
	Count             int
	ShortPollInterval time.Duration
}

// QueueConfig controls the InternalQueue shared between readers and processors.
type QueueConfig struct {
	Capacity int // 0 means "default to 2 * Processor.Count"
}

// SQSConfig controls the remote-queue capability.
type SQSConfig struct {
	Region                   string
	EndpointOverride         string // non-empty to target a local SQS-compatible server (ElasticMQ, LocalStack)
	DefaultVisibilityTimeout time.Duration
}

// RegistryConfig controls the optional Redis-backed worker registry/heartbeat.
// Addr == "" disables the registry entirely; the core pipeline is unaffected.
type RegistryConfig struct {
	Addr              string
	Password          string
	DB                int
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
}

// AdminConfig controls the admin HTTP/WS surface.
type AdminConfig struct {
	Enabled      bool
	Addr         string
	AuthEnabled  bool
	JWTSecret    string
	APIKeys      []string
	RateLimitRPS int
}

// MetricsConfig controls the Prometheus metrics endpoint served
// alongside the admin API.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from (in order of increasing precedence) built-in
// defaults, an optional config.yaml, and PYQS_-prefixed environment
// variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/pyqs")

	setDefaults()

	viper.SetEnvPrefix("PYQS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("reader.count", 2)
	viper.SetDefault("reader.batchsize", int32(10))
	viper.SetDefault("reader.queuenames", []string{"tasks"})

	viper.SetDefault("processor.count", 4)
	viper.SetDefault("processor.shortpollinterval", 1*time.Second)

	viper.SetDefault("queue.capacity", 0)

	viper.SetDefault("sqs.region", "us-east-1")
	viper.SetDefault("sqs.endpointoverride", "")
	viper.SetDefault("sqs.defaultvisibilitytimeout", 30*time.Second)

	viper.SetDefault("registry.addr", "")
	viper.SetDefault("registry.password", "")
	viper.SetDefault("registry.db", 0)
	viper.SetDefault("registry.heartbeatinterval", 5*time.Second)
	viper.SetDefault("registry.heartbeattimeout", 15*time.Second)

	viper.SetDefault("admin.enabled", true)
	viper.SetDefault("admin.addr", ":8081")
	viper.SetDefault("admin.authenabled", false)
	viper.SetDefault("admin.jwtsecret", "")
	viper.SetDefault("admin.apikeys", []string{})
	viper.SetDefault("admin.ratelimitrps", 100)

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")

	viper.SetDefault("loglevel", "info")
}

// EffectiveCapacity returns the InternalQueue capacity, applying the
// "2 * processor count" default from spec.md §3 when unset.
func (c *Config) EffectiveCapacity() int {
	if c.Queue.Capacity > 0 {
		return c.Queue.Capacity
	}
	if c.Processor.Count > 0 {
		return 2 * c.Processor.Count
	}
	return 2
}
