package paths

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"Booster/config"

	log "github.com/sirupsen/logrus"
)

const (
	vendorDir   = "Roblox"
	versionsDir = "Versions"
	// Store installs live in versioned package folders.
	storePackageGlob = "ROBLOXCORPORATION.ROBLOX_*"
)

// Resolver builds the list of trusted installation directories and caches it until the
// next Rebuild.
type Resolver struct {
	DefaultPath string
	LookupEnv   func(key string) (string, bool)
	Exists      func(path string) bool
	Glob        func(pattern string) ([]string, error)

	mu    sync.RWMutex
	paths []string
}

func NewResolver(defaultPath string) *Resolver {
	return &Resolver{
		DefaultPath: defaultPath,
		LookupEnv:   os.LookupEnv,
		Exists:      dirExists,
		Glob:        filepath.Glob,
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Resolve runs the cascade: the custom path alone if it exists, else the default path alone
// if it exists, else every standard location that exists, else the default path regardless.
func (r *Resolver) Resolve(prefs config.Preferences) []string {
	if custom := strings.TrimSpace(prefs.CustomInstallPath); custom != "" {
		if r.Exists(custom) {
			return []string{custom}
		}
		log.Warnf("custom install path %s does not exist, ignoring", custom)
	}
	if r.DefaultPath != "" && r.Exists(r.DefaultPath) {
		return []string{r.DefaultPath}
	}
	var found []string
	for _, candidate := range r.standardLocations() {
		if r.Exists(candidate) {
			found = append(found, candidate)
		}
	}
	if len(found) == 0 {
		return []string{r.DefaultPath}
	}
	return found
}

func (r *Resolver) standardLocations() []string {
	var locations []string
	if local, ok := r.env("LOCALAPPDATA"); ok {
		locations = append(locations, filepath.Join(local, vendorDir, versionsDir))
	}
	if programFiles, ok := r.env("ProgramFiles"); ok {
		matches, err := r.Glob(filepath.Join(programFiles, "WindowsApps", storePackageGlob))
		if err != nil {
			log.Debugf("error listing store packages: %v", err)
		}
		locations = append(locations, matches...)
	}
	for _, key := range []string{"ProgramFiles(x86)", "ProgramFiles"} {
		if programFiles, ok := r.env(key); ok {
			locations = append(locations, filepath.Join(programFiles, vendorDir, versionsDir))
		}
	}
	return locations
}

func (r *Resolver) env(key string) (string, bool) {
	v, ok := r.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// Rebuild resolves and caches the list.
func (r *Resolver) Rebuild(prefs config.Preferences) []string {
	paths := r.Resolve(prefs)
	r.mu.Lock()
	r.paths = paths
	r.mu.Unlock()
	log.Infof("Allowed install paths: %s", strings.Join(paths, ", "))
	return append([]string(nil), paths...)
}

// Paths returns the cached list.
func (r *Resolver) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.paths...)
}

// Primary returns the highest priority entry, the install path shown to the user.
func (r *Resolver) Primary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.paths) == 0 {
		return r.DefaultPath
	}
	return r.paths[0]
}
