package safety

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"Booster/process"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type table map[int32]process.Candidate

func (t table) Lookup(pid int32) (process.Candidate, bool) {
	c, ok := t[pid]
	return c, ok
}

const versions = `C:\Users\X\AppData\Local\Roblox\Versions`

func TestClassify(t *testing.T) {
	p := DefaultPolicy(DefaultMinUptime)
	tests := []struct {
		name string
		want bool
	}{
		{"RobloxPlayerBeta.exe", true},
		{"ROBLOXPLAYERBETA.EXE", true},
		{"RobloxStudioBeta.exe", true},
		{"rbxfpsunlocker.exe", true},
		{"RobloxBoosterSetup.exe", false},
		{"rbx_crashhandler.exe", false},
		{"RobloxPlayerInstaller.exe", false},
		{"RobloxCrashReporter.exe", false},
		{"Roblox Uninstall.exe", false},
		{"RobloxUpdater.exe", false},
		{"RobloxBootstrapper.exe", false},
		{"roblox_booster.exe", false},
		{"chrome.exe", false},
		{"", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, p.Classify(tc.name), tc.name)
	}
}

func TestPathAllowed(t *testing.T) {
	allowed := []string{versions}
	tests := []struct {
		name string
		exe  string
		want bool
	}{
		{"inside", versions + `\version-abc\RobloxPlayerBeta.exe`, true},
		{"case folded", `c:\users\x\appdata\local\roblox\versions\v\RobloxPlayerBeta.exe`, true},
		{"forward slashes", `C:/Users/X/AppData/Local/Roblox/Versions/v/RobloxPlayerBeta.exe`, true},
		{"directory itself", versions, true},
		{"substring not prefix", `C:\Evil\FakeRoblox\Versions\x.exe`, false},
		{"embedded whitelist", `D:\copy\C:\Users\X\AppData\Local\Roblox\Versions\x.exe`, false},
		{"sibling directory", `C:\Users\X\AppData\Local\Roblox\VersionsEvil\x.exe`, false},
		{"empty exe", "", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, PathAllowed(tc.exe, allowed), tc.name)
	}
	assert.False(t, PathAllowed(`C:\anything.exe`, []string{"", "  "}))
	assert.False(t, PathAllowed(`C:\anything.exe`, nil))
	assert.True(t, PathAllowed(`D:\Games\Roblox\x.exe`, []string{versions, `D:\Games\Roblox\`}))
}

func TestEvaluate(t *testing.T) {
	p := DefaultPolicy(3 * time.Second)
	good := versions + `\version-1\RobloxPlayerBeta.exe`
	snap := table{
		1: {Pid: 1, Name: "RobloxPlayerBeta.exe", Exe: good, Uptime: 10 * time.Second},
		2: {Pid: 2, Name: "RobloxPlayerBeta.exe", Exe: good, Uptime: time.Second},
		3: {Pid: 3, Name: "RobloxPlayerInstaller.exe", Exe: good, Uptime: 10 * time.Second},
		4: {Pid: 4, Name: "RobloxPlayerBeta.exe", Exe: `C:\Evil\FakeRoblox\Versions\x.exe`, Uptime: 10 * time.Second},
		5: {Pid: 5, Name: "RobloxPlayerBeta.exe", Uptime: 10 * time.Second},
		// too new and badly named: uptime is checked first
		6: {Pid: 6, Name: "setup.exe", Exe: good, Uptime: 0},
	}
	tests := []struct {
		pid  int32
		want Reason
	}{
		{1, Eligible},
		{2, TooNew},
		{3, NameRejected},
		{4, PathNotWhitelisted},
		{5, PathNotWhitelisted},
		{6, TooNew},
		{42, ProcessGone},
	}
	for _, tc := range tests {
		v := p.Evaluate(snap, tc.pid, []string{versions})
		assert.Equal(t, tc.want, v.Reason, "pid %d", tc.pid)
		assert.Equal(t, tc.want == Eligible, v.Eligible(), "pid %d", tc.pid)
	}
}

func TestVerdictErr(t *testing.T) {
	p := DefaultPolicy(DefaultMinUptime)
	snap := table{
		1: {Pid: 1, Name: "RobloxPlayerBeta.exe", Exe: `C:\Temp\RobloxPlayerBeta.exe`, Uptime: time.Minute},
		2: {Pid: 2, Name: "RobloxPlayerBeta.exe", Exe: versions + `\RobloxPlayerBeta.exe`, Uptime: time.Millisecond},
	}

	err := p.Evaluate(snap, 1, []string{versions}).Err()
	var pathErr *PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, int32(1), pathErr.Pid)
	assert.Equal(t, `C:\Temp\RobloxPlayerBeta.exe`, pathErr.Path)
	assert.True(t, errors.Is(err, ErrCheckFailed))

	err = p.Evaluate(snap, 2, []string{versions}).Err()
	var checkErr *CheckError
	require.ErrorAs(t, err, &checkErr)
	assert.Equal(t, TooNew, checkErr.Reason)
	assert.False(t, errors.As(err, &pathErr))
	assert.True(t, errors.Is(err, ErrCheckFailed))
}

func TestReasonOf(t *testing.T) {
	reason, ok := ReasonOf(&PathError{Pid: 1})
	assert.True(t, ok)
	assert.Equal(t, PathNotWhitelisted, reason)

	reason, ok = ReasonOf(fmt.Errorf("boost: %w", &CheckError{Pid: 1, Reason: TooNew}))
	assert.True(t, ok)
	assert.Equal(t, TooNew, reason)

	_, ok = ReasonOf(errors.New("access denied"))
	assert.False(t, ok)
}
