package paths

import (
	"os"
	"path/filepath"
	"testing"

	"Booster/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultPath = `C:\Users\Admin\AppData\Local\Roblox\Versions`
	localApp    = `C:\Users\X\AppData\Local`
	progX86     = `C:\Program Files (x86)`
	prog        = `C:\Program Files`
)

func fakeResolver(existing ...string) *Resolver {
	set := make(map[string]bool)
	for _, e := range existing {
		set[e] = true
	}
	envs := map[string]string{
		"LOCALAPPDATA":      localApp,
		"ProgramFiles(x86)": progX86,
		"ProgramFiles":      prog,
	}
	return &Resolver{
		DefaultPath: defaultPath,
		LookupEnv: func(key string) (string, bool) {
			v, ok := envs[key]
			return v, ok
		},
		Exists: func(path string) bool { return set[path] },
		Glob: func(pattern string) ([]string, error) {
			if pattern == filepath.Join(prog, "WindowsApps", storePackageGlob) {
				return []string{filepath.Join(prog, "WindowsApps", "ROBLOXCORPORATION.ROBLOX_2.6_x64__55nskheyyqf4a")}, nil
			}
			return nil, nil
		},
	}
}

func TestResolveCascade(t *testing.T) {
	local := filepath.Join(localApp, "Roblox", "Versions")
	x86 := filepath.Join(progX86, "Roblox", "Versions")
	machine := filepath.Join(prog, "Roblox", "Versions")
	store := filepath.Join(prog, "WindowsApps", "ROBLOXCORPORATION.ROBLOX_2.6_x64__55nskheyyqf4a")
	custom := `D:\Games\Roblox\Versions`

	tests := []struct {
		name     string
		custom   string
		existing []string
		want     []string
	}{
		{name: "custom wins alone", custom: custom, existing: []string{custom, defaultPath, local}, want: []string{custom}},
		{name: "missing custom falls through to default", custom: custom, existing: []string{defaultPath, local}, want: []string{defaultPath}},
		{name: "default alone", existing: []string{defaultPath, local, x86}, want: []string{defaultPath}},
		{name: "standard locations accumulate", existing: []string{local, store, x86, machine}, want: []string{local, store, x86, machine}},
		{name: "only program files", existing: []string{x86}, want: []string{x86}},
		{name: "nothing exists", want: []string{defaultPath}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := fakeResolver(tc.existing...)
			got := r.Resolve(config.Preferences{CustomInstallPath: tc.custom})
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveWithoutEnvironment(t *testing.T) {
	r := fakeResolver()
	r.LookupEnv = func(string) (string, bool) { return "", false }
	assert.Equal(t, []string{defaultPath}, r.Resolve(config.Preferences{}))
}

func TestRebuildCaches(t *testing.T) {
	custom := `D:\Roblox`
	r := fakeResolver(custom, defaultPath)
	assert.Empty(t, r.Paths())
	assert.Equal(t, defaultPath, r.Primary())

	r.Rebuild(config.Preferences{})
	assert.Equal(t, []string{defaultPath}, r.Paths())

	r.Rebuild(config.Preferences{CustomInstallPath: custom})
	assert.Equal(t, []string{custom}, r.Paths())
	assert.Equal(t, custom, r.Primary())

	paths := r.Paths()
	paths[0] = "mutated"
	assert.Equal(t, custom, r.Primary())
}

func TestNewResolverOnDisk(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "Versions")
	require.NoError(t, os.Mkdir(custom, 0755))
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	r := NewResolver(filepath.Join(dir, "missing"))
	assert.Equal(t, []string{custom}, r.Resolve(config.Preferences{CustomInstallPath: custom}))
	assert.False(t, r.Exists(file))
}
