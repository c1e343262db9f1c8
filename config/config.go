package config

import (
	"fmt"
	"time"

	"Booster/priority"

	"github.com/caarlos0/env"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	AutoStart          bool   `env:"AUTO_START" envDefault:"false"`
	AutoDetect         bool   `env:"AUTO_DETECT" envDefault:"true"`
	PriorityLevel      string `env:"PRIORITY_LEVEL" envDefault:"high"`
	ClearMemoryCache   bool   `env:"CLEAR_MEMORY_CACHE" envDefault:"true"`
	EnableGpuBoost     bool   `env:"ENABLE_GPU_BOOST" envDefault:"true"`
	CustomInstallPath  string `env:"CUSTOM_INSTALL_PATH" envDefault:""`
	DefaultInstallPath string `env:"DEFAULT_INSTALL_PATH" envDefault:"C:\\Users\\Admin\\AppData\\Local\\Roblox\\Versions"`

	MaxProcessesToBoost int           `env:"MAX_PROCESSES_TO_BOOST" envDefault:"5"`
	MaxNewPerTick       int           `env:"MAX_NEW_PER_TICK" envDefault:"2"`
	MinProcessLifetime  time.Duration `env:"MIN_PROCESS_LIFETIME" envDefault:"3s"`
	DetectInterval      time.Duration `env:"DETECT_INTERVAL" envDefault:"2s"`
	ProcessCacheTTL     time.Duration `env:"PROCESS_CACHE_TTL" envDefault:"2s"`

	PreferencesFile         string        `env:"PREFERENCES_FILE" envDefault:""`
	PreferencesScanInterval time.Duration `env:"PREFERENCES_SCAN_INTERVAL" envDefault:"10s"`

	ApiAddr  string `env:"API_ADDR" envDefault:"127.0.0.1:1323"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DiscordName         string `env:"DISCORD_NAME" envDefault:"Booster"`
	DiscordWebhookInfo  string `env:"DISCORD_WEBHOOK_INFO" envDefault:""`
	DiscordWebhookError string `env:"DISCORD_WEBHOOK_ERROR" envDefault:""`
}

var TheConfig = &Config{}

var gitHash, gitVersion string

func Configure() {
	err := env.Parse(TheConfig)
	if err != nil {
		log.Fatalf("error parsing config: %v", err)
	}
	level, err := log.ParseLevel(TheConfig.LogLevel)
	if err != nil {
		log.Fatalf("error parsing log level: %v", err)
	}
	log.SetLevel(level)
	if err := TheConfig.Validate(); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}
	log.Infof("Running: %s, %s", gitVersion, gitHash)
}

// Validate rejects settings the booster cannot run with
//   - an unknown priority level
//   - process caps below 1
//   - negative lifetimes, non-positive intervals
func (c *Config) Validate() error {
	if _, err := priority.ParseLevel(c.PriorityLevel); err != nil {
		return err
	}
	if c.MaxProcessesToBoost < 1 {
		return fmt.Errorf("MAX_PROCESSES_TO_BOOST must be at least 1, got %d", c.MaxProcessesToBoost)
	}
	if c.MaxNewPerTick < 1 {
		return fmt.Errorf("MAX_NEW_PER_TICK must be at least 1, got %d", c.MaxNewPerTick)
	}
	if c.MinProcessLifetime < 0 {
		return fmt.Errorf("MIN_PROCESS_LIFETIME must not be negative, got %s", c.MinProcessLifetime)
	}
	if c.DetectInterval <= 0 {
		return fmt.Errorf("DETECT_INTERVAL must be positive, got %s", c.DetectInterval)
	}
	if c.PreferencesScanInterval <= 0 {
		return fmt.Errorf("PREFERENCES_SCAN_INTERVAL must be positive, got %s", c.PreferencesScanInterval)
	}
	return nil
}

// Limits returns the tunable safety limits.
func (c *Config) Limits() Limits {
	return Limits{
		MaxProcesses:  c.MaxProcessesToBoost,
		MaxNewPerTick: c.MaxNewPerTick,
		MinUptime:     c.MinProcessLifetime,
	}
}

// Preferences returns the environment defaults of the user-editable settings.
func (c *Config) Preferences() Preferences {
	level, err := priority.ParseLevel(c.PriorityLevel)
	if err != nil {
		log.Warnf("falling back to %s: %v", level, err)
	}
	return Preferences{
		AutoStart:         c.AutoStart,
		AutoDetect:        c.AutoDetect,
		PriorityLevel:     level,
		ClearMemoryCache:  c.ClearMemoryCache,
		EnableGpuBoost:    c.EnableGpuBoost,
		CustomInstallPath: c.CustomInstallPath,
	}
}
