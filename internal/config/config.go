package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"restobar/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App          AppConfig          `yaml:"app"`
	Logging      LoggingConfig      `yaml:"logging"`
	Storage      StorageConfig      `yaml:"storage"`
	Redis        RedisConfig        `yaml:"redis"`
	Locks        LocksConfig        `yaml:"locks"`
	Availability AvailabilityConfig `yaml:"availability"`
	Bookings     BookingsConfig     `yaml:"bookings"`
	Tables       TablesConfig       `yaml:"tables"`
	Exports      ExportConfig       `yaml:"exports"`
	Backup       BackupConfig       `yaml:"backup"`
	SeedPath     string             `yaml:"seed_path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	Timezone    string `yaml:"timezone"`
}

type LoggingConfig struct {
	Level      string            `yaml:"level"`
	Format     string            `yaml:"format"`
	Output     string            `yaml:"output"` // stdout, stderr, file, discard
	FilePath   string            `yaml:"file_path"`
	Components map[string]string `yaml:"components"` // level per component, e.g. bookings: debug
}

type StorageConfig struct {
	Backend    string `yaml:"backend"` // memory, sqlite
	SQLitePath string `yaml:"sqlite_path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type LocksConfig struct {
	Backend       string `yaml:"backend"` // memory, redis, failover
	TTLSeconds    int    `yaml:"ttl_seconds"`
	RetryAttempts int    `yaml:"retry_attempts"`
	RetryDelayMs  int    `yaml:"retry_delay_ms"`
}

type AvailabilityConfig struct {
	PartySizeMode string `yaml:"party_size_mode"` // capacity, legacy
}

type BookingsConfig struct {
	StrictStatusTransitions bool `yaml:"strict_status_transitions"`
	UpcomingLimit           int  `yaml:"upcoming_limit"`
	RecentOrdersLimit       int  `yaml:"recent_orders_limit"`
}

type TablesConfig struct {
	DeletePolicy string `yaml:"delete_policy"` // orphan, restrict
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type BackupConfig struct {
	StoragePath   string `yaml:"storage_path"`
	RetentionDays int    `yaml:"retention_days"`
}

func Load(configPath string) (*Config, error) {
	// .env необязателен
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory":
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Locks.Backend {
	case "memory":
	case "redis", "failover":
		if c.Redis.Address == "" {
			return fmt.Errorf("locks.backend=%s requires redis.address", c.Locks.Backend)
		}
	default:
		return fmt.Errorf("unknown locks backend %q", c.Locks.Backend)
	}

	switch c.Availability.PartySizeMode {
	case models.PartySizeModeCapacity, models.PartySizeModeLegacy:
	default:
		return fmt.Errorf("unknown availability.party_size_mode %q", c.Availability.PartySizeMode)
	}

	switch c.Tables.DeletePolicy {
	case models.DeletePolicyOrphan, models.DeletePolicyRestrict:
	default:
		return fmt.Errorf("unknown tables.delete_policy %q", c.Tables.DeletePolicy)
	}

	if c.Locks.RetryAttempts < 0 || c.Locks.RetryDelayMs < 0 {
		return errors.New("locks retry settings must not be negative")
	}

	if c.Bookings.UpcomingLimit < 0 || c.Bookings.RecentOrdersLimit < 0 {
		return errors.New("dashboard limits must not be negative")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "restobar"
	}
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}
	c.Locks.Backend = strings.ToLower(strings.TrimSpace(c.Locks.Backend))
	if c.Locks.Backend == "" {
		c.Locks.Backend = "memory"
	}
	if c.Locks.TTLSeconds == 0 {
		c.Locks.TTLSeconds = models.DefaultSlotLockTTL
	}
	if c.Availability.PartySizeMode == "" {
		c.Availability.PartySizeMode = models.PartySizeModeCapacity
	}
	if c.Tables.DeletePolicy == "" {
		c.Tables.DeletePolicy = models.DeletePolicyOrphan
	}
	if c.Bookings.UpcomingLimit == 0 {
		c.Bookings.UpcomingLimit = models.DefaultUpcomingLimit
	}
	if c.Bookings.RecentOrdersLimit == 0 {
		c.Bookings.RecentOrdersLimit = models.DefaultRecentOrdersLimit
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
}
