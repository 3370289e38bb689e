package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Redis    RedisConfig    `yaml:"redis"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Journal  JournalConfig  `yaml:"journal"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Email    EmailConfig    `yaml:"email"`
	Notifier NotifierConfig `yaml:"notifier"`
	Logging  LoggingConfig  `yaml:"logging"`
	App      AppConfig      `yaml:"app"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RabbitMQConfig holds RabbitMQ connection and exchange/queue configuration
type RabbitMQConfig struct {
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Queue      QueueConfig      `yaml:"queue"`
	RoutingKey string           `yaml:"routing_key"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
	Consumer   ConsumerConfig   `yaml:"consumer"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig holds RabbitMQ queue configuration
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
	Exclusive  bool   `yaml:"exclusive"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// ConsumerConfig holds RabbitMQ consumer settings
type ConsumerConfig struct {
	PrefetchCount int  `yaml:"prefetch_count"`
	AutoAck       bool `yaml:"auto_ack"`
	Exclusive     bool `yaml:"exclusive"`
}

// RedisConfig holds the Redis connection used by the journal store
type RedisConfig struct {
	URL string `yaml:"url"`
}

// ScraperConfig holds the remote scraping service endpoint and per-call
// budgets. The warm-up ping and queue poll are best-effort and kept short;
// scrape delivery tolerates the remote worker cold-starting.
type ScraperConfig struct {
	BaseURL          string        `yaml:"base_url"`
	WarmUpTimeout    time.Duration `yaml:"warmup_timeout"`
	DeliveryTimeout  time.Duration `yaml:"delivery_timeout"`
	QueuePollTimeout time.Duration `yaml:"queue_poll_timeout"`
	QueueBatchSize   int           `yaml:"queue_batch_size"`
}

// DispatchConfig holds batch scheduling settings and the shared secret that
// guards the privileged dispatch and ingest endpoints.
type DispatchConfig struct {
	Secret          string `yaml:"secret"`
	CronSpec        string `yaml:"cron_spec"`
	FreshnessHours  int    `yaml:"freshness_hours"`
	InsertBatchSize int    `yaml:"insert_batch_size"`
	ScanLimit       int    `yaml:"scan_limit"`
}

// JournalConfig holds resumable-operation journal settings
type JournalConfig struct {
	StaleAfter   time.Duration `yaml:"stale_after"`
	CleanupDelay time.Duration `yaml:"cleanup_delay"`
}

// MonitorConfig holds run status polling settings
type MonitorConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// EmailConfig holds the transactional email API settings
type EmailConfig struct {
	APIURL      string        `yaml:"api_url"`
	APIKey      string        `yaml:"api_key"`
	Sender      string        `yaml:"sender"`
	SendTimeout time.Duration `yaml:"send_timeout"`
}

// NotifierConfig holds notification worker settings
type NotifierConfig struct {
	Concurrency     int           `yaml:"concurrency"`
	MaxRetries      int           `yaml:"max_retries"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level            string `yaml:"level"`
	Format           string `yaml:"format"`
	Output           string `yaml:"output"`
	EnableCaller     bool   `yaml:"enable_caller"`
	EnableStackTrace bool   `yaml:"enable_stack_trace"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// Load reads and parses the configuration file. Secrets can be supplied via
// environment variables instead of the file: DISPATCH_SECRET, EMAIL_API_KEY,
// DATABASE_PASSWORD.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if s := os.Getenv("DISPATCH_SECRET"); s != "" {
		config.Dispatch.Secret = s
	}
	if s := os.Getenv("EMAIL_API_KEY"); s != "" {
		config.Email.APIKey = s
	}
	if s := os.Getenv("DATABASE_PASSWORD"); s != "" {
		config.Database.Password = s
	}

	config.applyDefaults()

	return &config, nil
}

// applyDefaults fills in values that are safe to leave out of the YAML file
func (c *Config) applyDefaults() {
	if c.Scraper.WarmUpTimeout <= 0 {
		c.Scraper.WarmUpTimeout = 5 * time.Second
	}
	if c.Scraper.DeliveryTimeout <= 0 {
		c.Scraper.DeliveryTimeout = 8 * time.Second
	}
	if c.Scraper.QueuePollTimeout <= 0 {
		c.Scraper.QueuePollTimeout = 8 * time.Second
	}
	if c.Scraper.QueueBatchSize <= 0 {
		c.Scraper.QueueBatchSize = 10
	}
	if c.Dispatch.FreshnessHours <= 0 {
		c.Dispatch.FreshnessHours = 24
	}
	if c.Dispatch.InsertBatchSize <= 0 {
		c.Dispatch.InsertBatchSize = 500
	}
	if c.Dispatch.ScanLimit <= 0 {
		c.Dispatch.ScanLimit = 1000
	}
	if c.Journal.StaleAfter <= 0 {
		c.Journal.StaleAfter = time.Hour
	}
	if c.Journal.CleanupDelay <= 0 {
		c.Journal.CleanupDelay = 5 * time.Second
	}
	if c.Monitor.PollInterval <= 0 {
		c.Monitor.PollInterval = 3 * time.Second
	}
	if c.Email.SendTimeout <= 0 {
		c.Email.SendTimeout = 10 * time.Second
	}
	if c.Notifier.Concurrency <= 0 {
		c.Notifier.Concurrency = 2
	}
	if c.Notifier.MaxRetries <= 0 {
		c.Notifier.MaxRetries = 3
	}
}

// ValidateAPIConfig checks the configuration required by the API service
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if err := c.validateShared(); err != nil {
		return err
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("redis url is required")
	}

	if c.Dispatch.Secret == "" {
		return fmt.Errorf("dispatch secret is required")
	}

	return nil
}

// ValidateWorkerConfig checks the configuration required by the worker service
func (c *Config) ValidateWorkerConfig() error {
	if err := c.validateShared(); err != nil {
		return err
	}

	if c.Dispatch.CronSpec == "" {
		return fmt.Errorf("dispatch cron_spec is required")
	}

	if c.Notifier.ShutdownTimeout <= 0 {
		return fmt.Errorf("notifier shutdown_timeout must be greater than 0")
	}

	return nil
}

func (c *Config) validateShared() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}

	if c.RabbitMQ.Exchange.Name == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}

	if c.RabbitMQ.Queue.Name == "" {
		return fmt.Errorf("rabbitmq queue name is required")
	}

	if c.Scraper.BaseURL == "" {
		return fmt.Errorf("scraper base_url is required")
	}

	return nil
}
