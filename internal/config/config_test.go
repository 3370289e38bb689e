package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				// Verify some key fields are populated
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "jobsearch_db", cfg.Database.Database)
				assert.Equal(t, "run_events_exchange", cfg.RabbitMQ.Exchange.Name)
				assert.Equal(t, "http://localhost:8000", cfg.Scraper.BaseURL)
				assert.Equal(t, "job-search-api", cfg.App.Name)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)

	// Values absent from the file get their documented defaults
	assert.Equal(t, 5*time.Second, cfg.Scraper.WarmUpTimeout)
	assert.Equal(t, 8*time.Second, cfg.Scraper.QueuePollTimeout)
	assert.Equal(t, 24, cfg.Dispatch.FreshnessHours)
	assert.Equal(t, 500, cfg.Dispatch.InsertBatchSize)
	assert.Equal(t, 1000, cfg.Dispatch.ScanLimit)
	assert.Equal(t, time.Hour, cfg.Journal.StaleAfter)
	assert.Equal(t, 5*time.Second, cfg.Journal.CleanupDelay)
	assert.Equal(t, 3*time.Second, cfg.Monitor.PollInterval)
	assert.Equal(t, 2, cfg.Notifier.Concurrency)

	// Values present in the file are not overridden
	assert.Equal(t, 8*time.Second, cfg.Scraper.DeliveryTimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DISPATCH_SECRET", "env-secret")
	t.Setenv("EMAIL_API_KEY", "env-email-key")
	t.Setenv("DATABASE_PASSWORD", "env-db-pass")

	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.Dispatch.Secret)
	assert.Equal(t, "env-email-key", cfg.Email.APIKey)
	assert.Equal(t, "env-db-pass", cfg.Database.Password)
}

func validBase() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "jobsearch_db",
		},
		RabbitMQ: RabbitMQConfig{
			Host: "localhost",
			Port: 5672,
			Exchange: ExchangeConfig{
				Name: "run_events_exchange",
			},
			Queue: QueueConfig{
				Name: "run_completed_queue",
			},
		},
		Redis: RedisConfig{URL: "redis://localhost:6379/0"},
		Scraper: ScraperConfig{
			BaseURL: "http://localhost:8000",
		},
		Dispatch: DispatchConfig{
			Secret:   "test-secret",
			CronSpec: "0 7 * * *",
		},
		Notifier: NotifierConfig{
			ShutdownTimeout: 30 * time.Second,
		},
	}
}

func TestConfig_ValidateAPIConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errString string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:      "invalid server port - too low",
			mutate:    func(c *Config) { c.Server.Port = 0 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "invalid server port - too high",
			mutate:    func(c *Config) { c.Server.Port = 70000 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "empty database host",
			mutate:    func(c *Config) { c.Database.Host = "" },
			wantErr:   true,
			errString: "database host is required",
		},
		{
			name:      "empty database name",
			mutate:    func(c *Config) { c.Database.Database = "" },
			wantErr:   true,
			errString: "database name is required",
		},
		{
			name:      "empty rabbitmq host",
			mutate:    func(c *Config) { c.RabbitMQ.Host = "" },
			wantErr:   true,
			errString: "rabbitmq host is required",
		},
		{
			name:      "empty exchange name",
			mutate:    func(c *Config) { c.RabbitMQ.Exchange.Name = "" },
			wantErr:   true,
			errString: "rabbitmq exchange name is required",
		},
		{
			name:      "empty queue name",
			mutate:    func(c *Config) { c.RabbitMQ.Queue.Name = "" },
			wantErr:   true,
			errString: "rabbitmq queue name is required",
		},
		{
			name:      "empty scraper base url",
			mutate:    func(c *Config) { c.Scraper.BaseURL = "" },
			wantErr:   true,
			errString: "scraper base_url is required",
		},
		{
			name:      "empty redis url",
			mutate:    func(c *Config) { c.Redis.URL = "" },
			wantErr:   true,
			errString: "redis url is required",
		},
		{
			name:      "empty dispatch secret",
			mutate:    func(c *Config) { c.Dispatch.Secret = "" },
			wantErr:   true,
			errString: "dispatch secret is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBase()
			tt.mutate(cfg)

			err := cfg.ValidateAPIConfig()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateWorkerConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errString string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:      "empty cron spec",
			mutate:    func(c *Config) { c.Dispatch.CronSpec = "" },
			wantErr:   true,
			errString: "dispatch cron_spec is required",
		},
		{
			name:      "zero shutdown timeout",
			mutate:    func(c *Config) { c.Notifier.ShutdownTimeout = 0 },
			wantErr:   true,
			errString: "notifier shutdown_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBase()
			tt.mutate(cfg)

			err := cfg.ValidateWorkerConfig()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoad_ValidateIntegration(t *testing.T) {
	t.Run("load and validate valid config", func(t *testing.T) {
		cfg, err := Load("testdata/valid_config.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		require.NoError(t, cfg.ValidateAPIConfig())
		require.NoError(t, cfg.ValidateWorkerConfig())
	})

	t.Run("load config with invalid port", func(t *testing.T) {
		cfg, err := Load("testdata/invalid_port.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		err = cfg.ValidateAPIConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid server port")
	})

	t.Run("load config with missing database", func(t *testing.T) {
		cfg, err := Load("testdata/missing_database.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		err = cfg.ValidateAPIConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database name is required")
	})
}
