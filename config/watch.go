package config

import (
	"errors"
	"io/fs"
	"sync"

	"Booster/utils"
)

// Watcher reloads the preferences file whenever its content changes.
type Watcher struct {
	Path string

	mu   sync.Mutex
	base Preferences
	sum  string
}

func NewWatcher(path string, base Preferences) *Watcher {
	return &Watcher{Path: path, base: base}
}

// Check reports the preferences and true when the file content differs from the last
// successful load. A missing file is not an error and yields no change.
func (w *Watcher) Check() (Preferences, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	sum, err := utils.CalculateFileSHA256(w.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return w.base, false, nil
	}
	if err != nil {
		return w.base, false, err
	}
	if sum == w.sum {
		return w.base, false, nil
	}
	prefs, err := LoadPreferences(w.Path, w.base)
	if err != nil {
		return w.base, false, err
	}
	w.sum = sum
	w.base = prefs
	return prefs, true, nil
}
