package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Search fallback policies applied when the availability source fails.
const (
	FallbackRandomResource = "random_resource"
	FallbackError          = "error"
)

type Config struct {
	Env        string           `yaml:"env"`
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Log        LogConfig        `yaml:"log"`
	Scheduling SchedulingConfig `yaml:"scheduling"`
	Worker     WorkerConfig     `yaml:"worker"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers         []string `yaml:"brokers"`
	RescheduleTopic string   `yaml:"reschedule_topic"`
	GroupID         string   `yaml:"group_id"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SchedulingConfig struct {
	HorizonDays         int    `yaml:"horizon_days"`
	SlotStepMinutes     int    `yaml:"slot_step_minutes"`
	OwnSlotStepMinutes  int    `yaml:"own_slot_step_minutes"`
	Timezone            string `yaml:"timezone"`
	SearchFallback      string `yaml:"search_fallback"`
	SlotCacheTTLSeconds int    `yaml:"slot_cache_ttl_seconds"`
	DayLockTTLSeconds   int    `yaml:"day_lock_ttl_seconds"`
	DefaultOpensAt      string `yaml:"default_opens_at"`
	DefaultClosesAt     string `yaml:"default_closes_at"`
}

func (s SchedulingConfig) Horizon() time.Duration {
	return time.Duration(s.HorizonDays) * 24 * time.Hour
}

func (s SchedulingConfig) SlotStep() time.Duration {
	return time.Duration(s.SlotStepMinutes) * time.Minute
}

func (s SchedulingConfig) OwnSlotStep() time.Duration {
	return time.Duration(s.OwnSlotStepMinutes) * time.Minute
}

func (s SchedulingConfig) SlotCacheTTL() time.Duration {
	return time.Duration(s.SlotCacheTTLSeconds) * time.Second
}

func (s SchedulingConfig) DayLockTTL() time.Duration {
	return time.Duration(s.DayLockTTLSeconds) * time.Second
}

// Location resolves the shop time zone. Calendar days are cut in it.
func (s SchedulingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}

// DefaultHours returns the default opening and closing times as offsets
// from midnight.
func (s SchedulingConfig) DefaultHours() (opens, closes time.Duration, err error) {
	if opens, err = clockOffset(s.DefaultOpensAt); err != nil {
		return 0, 0, err
	}
	if closes, err = clockOffset(s.DefaultClosesAt); err != nil {
		return 0, 0, err
	}
	return opens, closes, nil
}

func clockOffset(hhmm string) (time.Duration, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

type WorkerConfig struct {
	AuditRetentionDays   int `yaml:"audit_retention_days"`
	PruneIntervalMinutes int `yaml:"prune_interval_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if pw := os.Getenv("DATABASE_PASSWORD"); pw != "" {
		cfg.Database.Password = pw
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Env == "" {
		c.Env = EnvDevelopment
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Kafka.RescheduleTopic == "" {
		c.Kafka.RescheduleTopic = "booking.reschedules"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "reschedule-audit"
	}

	s := &c.Scheduling
	if s.HorizonDays <= 0 {
		s.HorizonDays = 14
	}
	if s.SlotStepMinutes <= 0 {
		s.SlotStepMinutes = 15
	}
	if s.OwnSlotStepMinutes <= 0 {
		s.OwnSlotStepMinutes = 15
	}
	if s.Timezone == "" {
		s.Timezone = "UTC"
	}
	if s.SearchFallback == "" {
		s.SearchFallback = FallbackRandomResource
	}
	if s.SlotCacheTTLSeconds <= 0 {
		s.SlotCacheTTLSeconds = 60
	}
	if s.DayLockTTLSeconds <= 0 {
		s.DayLockTTLSeconds = 10
	}
	if s.DefaultOpensAt == "" {
		s.DefaultOpensAt = "09:00"
	}
	if s.DefaultClosesAt == "" {
		s.DefaultClosesAt = "21:00"
	}

	if c.Worker.AuditRetentionDays <= 0 {
		c.Worker.AuditRetentionDays = 90
	}
	if c.Worker.PruneIntervalMinutes <= 0 {
		c.Worker.PruneIntervalMinutes = 60
	}
}

func (c *Config) validate() error {
	switch c.Scheduling.SearchFallback {
	case FallbackRandomResource, FallbackError:
	default:
		return fmt.Errorf("invalid scheduling.search_fallback %q", c.Scheduling.SearchFallback)
	}
	if _, err := c.Scheduling.Location(); err != nil {
		return fmt.Errorf("invalid scheduling.timezone: %w", err)
	}
	opens, closes, err := c.Scheduling.DefaultHours()
	if err != nil {
		return fmt.Errorf("invalid default working hours: %w", err)
	}
	if closes <= opens {
		return fmt.Errorf("default working hours close at or before they open")
	}
	return nil
}
