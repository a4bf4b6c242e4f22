package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ProfileFinder/internal/auth"
	"ProfileFinder/internal/search"
	"ProfileFinder/pkg/logger"
)

// EnvConfigPath 指定配置文件路径的环境变量。
const EnvConfigPath = "FINDER_CONFIG"

// Config 描述 ProfileFinder 在启动阶段需要加载的核心配置。
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	HTTP     HTTPConfig     `yaml:"http"`
	Probe    ProbeConfig    `yaml:"probe"`
	Search   SearchConfig   `yaml:"search"`
	Lookup   LookupConfig   `yaml:"lookup"`
	Logging  logger.Config  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Alerting AlertingConfig `yaml:"alerting"`
	Auth     auth.Config    `yaml:"auth"`
}

// ServerConfig 控制 API 服务的监听地址等参数。
type ServerConfig struct {
	Address             string `yaml:"address"`
	ShutdownSeconds     int    `yaml:"shutdown_seconds"`
	MaxWaitSeconds      int    `yaml:"max_wait_seconds"`
	ReadHeaderTimeoutMS int    `yaml:"read_header_timeout_ms"`
}

// ShutdownTimeout 返回优雅退出的等待时间。
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownSeconds) * time.Second
}

// MaxWait 返回同步等待查询结果的上限。
func (c ServerConfig) MaxWait() time.Duration {
	return time.Duration(c.MaxWaitSeconds) * time.Second
}

// HTTPConfig 控制出站请求的公共参数。
type HTTPConfig struct {
	UserAgent string `yaml:"user_agent"`
}

// ProbeConfig 控制主页探测。
type ProbeConfig struct {
	BaseURL        string      `yaml:"base_url"`
	TimeoutSeconds float64     `yaml:"timeout_seconds"`
	Cache          CacheConfig `yaml:"cache"`
}

// Timeout 返回单次探测超时。
func (c ProbeConfig) Timeout() time.Duration {
	return seconds(c.TimeoutSeconds)
}

// CacheConfig 描述探测结果缓存，driver 可选 none、memory、redis。
type CacheConfig struct {
	Driver     string      `yaml:"driver"`
	Size       int         `yaml:"size"`
	TTLSeconds int         `yaml:"ttl_seconds"`
	Redis      RedisConfig `yaml:"redis"`
}

// TTL 返回缓存有效期。
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// RedisConfig 描述 Redis 连接。
type RedisConfig struct {
	Address          string `yaml:"address"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	DB               int    `yaml:"db"`
	Prefix           string `yaml:"prefix"`
	Queue            string `yaml:"queue"`
	BlockWaitSeconds int    `yaml:"block_wait_seconds"`
}

// SearchConfig 控制搜索引擎抓取。
type SearchConfig struct {
	TimeoutSeconds float64           `yaml:"timeout_seconds"`
	RateLimit      float64           `yaml:"rate_limit"`
	Burst          int               `yaml:"burst"`
	MaxBodyBytes   int64             `yaml:"max_body_bytes"`
	Endpoints      []search.Endpoint `yaml:"endpoints"`
}

// Timeout 返回单个搜索端点的超时。
func (c SearchConfig) Timeout() time.Duration {
	return seconds(c.TimeoutSeconds)
}

// LookupConfig 控制异步查询任务。
type LookupConfig struct {
	Workers                 int         `yaml:"workers"`
	MaxRetries              int         `yaml:"max_retries"`
	ExecutionTimeoutSeconds int         `yaml:"execution_timeout_seconds"`
	Store                   StoreConfig `yaml:"store"`
	Queue                   QueueConfig `yaml:"queue"`
}

// ExecutionTimeout 返回单个任务的执行上限。
func (c LookupConfig) ExecutionTimeout() time.Duration {
	return time.Duration(c.ExecutionTimeoutSeconds) * time.Second
}

// StoreConfig 描述任务存储，driver 可选 memory、mysql。
type StoreConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeSeconds int    `yaml:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int    `yaml:"conn_max_idle_time_seconds"`
}

// QueueConfig 描述任务队列，driver 可选 memory、redis、rabbitmq。
type QueueConfig struct {
	Driver   string         `yaml:"driver"`
	Buffer   int            `yaml:"buffer"`
	Redis    RedisConfig    `yaml:"redis"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
}

// RabbitMQConfig 描述 RabbitMQ 连接。
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Queue      string `yaml:"queue"`
	Prefetch   int    `yaml:"prefetch"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// MetricsConfig 控制独立的指标端口。
type MetricsConfig struct {
	Address string `yaml:"address"`
}

// AlertingConfig 控制告警渠道。
type AlertingConfig struct {
	Log        bool   `yaml:"log"`
	WebhookURL string `yaml:"webhook_url"`
}

// Default 返回内置默认配置。
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:             ":8080",
			ShutdownSeconds:     5,
			MaxWaitSeconds:      60,
			ReadHeaderTimeoutMS: 5000,
		},
		Probe: ProbeConfig{
			BaseURL:        "https://www.linkedin.com/in/",
			TimeoutSeconds: 5,
			Cache: CacheConfig{
				Driver:     "memory",
				Size:       1024,
				TTLSeconds: 3600,
				Redis:      RedisConfig{Prefix: "finder:probe:"},
			},
		},
		Search: SearchConfig{
			TimeoutSeconds: 10,
			RateLimit:      1,
			Burst:          1,
			MaxBodyBytes:   2 << 20,
			Endpoints:      search.DefaultEndpoints(),
		},
		Lookup: LookupConfig{
			Workers:                 2,
			MaxRetries:              3,
			ExecutionTimeoutSeconds: 90,
			Store:                   StoreConfig{Driver: "memory"},
			Queue: QueueConfig{
				Driver:   "memory",
				Buffer:   1024,
				Redis:    RedisConfig{Queue: "finder:lookups", BlockWaitSeconds: 5},
				RabbitMQ: RabbitMQConfig{Queue: "finder.lookups", Prefetch: 1, Durable: true},
			},
		},
		Logging: logger.Config{Level: "info", Format: "json"},
		Alerting: AlertingConfig{
			Log: true,
		},
		Auth: auth.Config{Mode: auth.ModeDisabled},
	}
}

// Load 依次应用默认值、YAML 文件（path 为空时跳过）、.env 与环境变量。
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("解析配置失败: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv 读取 FINDER_CONFIG 指定的配置文件。
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()
	return Load(strings.TrimSpace(os.Getenv(EnvConfigPath)))
}

// applyDefaults 在用户清空部分字段时恢复合理的默认值。
func (c *Config) applyDefaults() {
	def := Default()
	if c.Server.Address == "" {
		c.Server.Address = def.Server.Address
	}
	if c.Server.ShutdownSeconds <= 0 {
		c.Server.ShutdownSeconds = def.Server.ShutdownSeconds
	}
	if c.Server.MaxWaitSeconds <= 0 {
		c.Server.MaxWaitSeconds = def.Server.MaxWaitSeconds
	}
	if c.Probe.BaseURL == "" {
		c.Probe.BaseURL = def.Probe.BaseURL
	}
	if c.Probe.TimeoutSeconds <= 0 {
		c.Probe.TimeoutSeconds = def.Probe.TimeoutSeconds
	}
	if c.Probe.Cache.Driver == "" {
		c.Probe.Cache.Driver = "none"
	}
	if c.Search.TimeoutSeconds <= 0 {
		c.Search.TimeoutSeconds = def.Search.TimeoutSeconds
	}
	if len(c.Search.Endpoints) == 0 {
		c.Search.Endpoints = def.Search.Endpoints
	}
	if c.Lookup.Workers <= 0 {
		c.Lookup.Workers = def.Lookup.Workers
	}
	if c.Lookup.MaxRetries <= 0 {
		c.Lookup.MaxRetries = def.Lookup.MaxRetries
	}
	if c.Lookup.ExecutionTimeoutSeconds <= 0 {
		c.Lookup.ExecutionTimeoutSeconds = def.Lookup.ExecutionTimeoutSeconds
	}
	if c.Lookup.Store.Driver == "" {
		c.Lookup.Store.Driver = "memory"
	}
	if c.Lookup.Queue.Driver == "" {
		c.Lookup.Queue.Driver = "memory"
	}
	if c.Lookup.Queue.Buffer <= 0 {
		c.Lookup.Queue.Buffer = def.Lookup.Queue.Buffer
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
}

// Validate 检查驱动取值与必填字段。
func (c *Config) Validate() error {
	switch c.Probe.Cache.Driver {
	case "none", "memory":
	case "redis":
		if c.Probe.Cache.Redis.Address == "" {
			return fmt.Errorf("probe.cache.redis.address 不能为空")
		}
	default:
		return fmt.Errorf("未知的缓存驱动: %s", c.Probe.Cache.Driver)
	}

	switch c.Lookup.Store.Driver {
	case "memory":
	case "mysql":
		if c.Lookup.Store.DSN == "" {
			return fmt.Errorf("lookup.store.dsn 不能为空")
		}
	default:
		return fmt.Errorf("未知的存储驱动: %s", c.Lookup.Store.Driver)
	}

	switch c.Lookup.Queue.Driver {
	case "memory":
	case "redis":
		if c.Lookup.Queue.Redis.Address == "" {
			return fmt.Errorf("lookup.queue.redis.address 不能为空")
		}
	case "rabbitmq":
		if c.Lookup.Queue.RabbitMQ.URL == "" {
			return fmt.Errorf("lookup.queue.rabbitmq.url 不能为空")
		}
	default:
		return fmt.Errorf("未知的队列驱动: %s", c.Lookup.Queue.Driver)
	}

	switch c.Auth.Mode {
	case "", auth.ModeDisabled:
	case auth.ModeToken:
		if len(c.Auth.Tokens) == 0 {
			return fmt.Errorf("auth.tokens 不能为空")
		}
	default:
		return fmt.Errorf("未知的认证模式: %s", c.Auth.Mode)
	}

	for i, endpoint := range c.Search.Endpoints {
		if endpoint.URL == "" || endpoint.Query == "" {
			return fmt.Errorf("search.endpoints[%d] 需要 url 与 query", i)
		}
	}
	return nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
