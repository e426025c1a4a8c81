package conf

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Store         StoreConfig         `mapstructure:"store"`
	Analytics     AnalyticsConfig     `mapstructure:"analytics"`
	Presence      PresenceConfig      `mapstructure:"presence"`
	PostHog       PostHogConfig       `mapstructure:"posthog"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	MetricsPort     int           `mapstructure:"metrics_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RateLimit       RateLimit     `mapstructure:"rate_limit"`
}

// RateLimit 上报接口按 IP 限流
type RateLimit struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

// StoreConfig 存储配置
type StoreConfig struct {
	Driver string       `mapstructure:"driver"` // memory | sqlite | redis
	SQLite SQLiteConfig `mapstructure:"sqlite"`
	Redis  RedisConfig  `mapstructure:"redis"`
}

// SQLiteConfig SQLite 配置
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// AnalyticsConfig 事件日志配置
type AnalyticsConfig struct {
	MaxEvents    int `mapstructure:"max_events"`
	RecentLimit  int `mapstructure:"recent_limit"`
	MaxDataBytes int `mapstructure:"max_data_bytes"`
}

// PresenceConfig 在线访客配置
type PresenceConfig struct {
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	Grace             time.Duration `mapstructure:"grace"`
	SessionIdleTTL    time.Duration `mapstructure:"session_idle_ttl"`
}

// PostHogConfig PostHog 转发配置
type PostHogConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	APIKey    string        `mapstructure:"api_key"`
	Host      string        `mapstructure:"host"`
	BatchSize int           `mapstructure:"batch_size"`
	Interval  time.Duration `mapstructure:"interval"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	OTELEndpoint   string  `mapstructure:"otel_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	ServiceVersion string  `mapstructure:"service_version"`
	Environment    string  `mapstructure:"environment"`
	EnableTrace    bool    `mapstructure:"enable_trace"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
	LogLevel       string  `mapstructure:"log_level"`
	LogFormat      string  `mapstructure:"log_format"`
}

// setDefaults 默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", 8006)
	v.SetDefault("server.metrics_port", 9006)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.max_requests", 120)
	v.SetDefault("server.rate_limit.window", time.Minute)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.sqlite.path", "data/analytics.db")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.key_prefix", "velora")
	v.SetDefault("store.redis.pool_size", 10)
	v.SetDefault("store.redis.dial_timeout", 5*time.Second)
	v.SetDefault("store.redis.read_timeout", 3*time.Second)
	v.SetDefault("store.redis.write_timeout", 3*time.Second)

	v.SetDefault("analytics.max_events", 1000)
	v.SetDefault("analytics.recent_limit", 20)
	v.SetDefault("analytics.max_data_bytes", 64*1024)

	v.SetDefault("presence.heartbeat_interval", 30*time.Second)
	v.SetDefault("presence.grace", 5*time.Minute)
	v.SetDefault("presence.session_idle_ttl", 30*time.Minute)

	v.SetDefault("posthog.enabled", false)
	v.SetDefault("posthog.host", "https://app.posthog.com")
	v.SetDefault("posthog.batch_size", 100)
	v.SetDefault("posthog.interval", 30*time.Second)

	v.SetDefault("observability.service_name", "analytics-service")
	v.SetDefault("observability.service_version", "1.0.0")
	v.SetDefault("observability.environment", "development")
	v.SetDefault("observability.otel_endpoint", "localhost:4317")
	v.SetDefault("observability.sampling_rate", 1.0)
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.log_format", "json")
}

// Load 加载配置
// configPath 为空时在 configs 目录中查找，找不到文件则使用默认值
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("analytics-service")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	// 自动从环境变量读取
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// 从环境变量覆盖敏感配置
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		config.Store.Redis.Password = password
	}
	if key := os.Getenv("POSTHOG_API_KEY"); key != "" {
		config.PostHog.APIKey = key
	}
	if endpoint := os.Getenv("OTEL_ENDPOINT"); endpoint != "" {
		config.Observability.OTELEndpoint = endpoint
	}

	return &config, nil
}
