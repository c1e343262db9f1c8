package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"Booster/priority"
)

// Preferences are the settings the front end edits. The booster only reads them.
type Preferences struct {
	AutoStart         bool           `json:"auto_start"`
	AutoDetect        bool           `json:"auto_detect"`
	PriorityLevel     priority.Level `json:"priority_level"`
	ClearMemoryCache  bool           `json:"clear_memory_cache"`
	EnableGpuBoost    bool           `json:"enable_gpu_boost"`
	CustomInstallPath string         `json:"custom_install_path,omitempty"`
}

type Limits struct {
	MaxProcesses  int
	MaxNewPerTick int
	MinUptime     time.Duration
}

func DefaultLimits() Limits {
	return Limits{MaxProcesses: 5, MaxNewPerTick: 2, MinUptime: 3 * time.Second}
}

// LoadPreferences overlays the JSON file at path on base. Keys missing from the file keep
// the value from base.
func LoadPreferences(path string, base Preferences) (Preferences, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}
	prefs := base
	if err := json.Unmarshal(content, &prefs); err != nil {
		return base, fmt.Errorf("error unmarshalling %s: %w", path, err)
	}
	return prefs, nil
}
