package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"Booster/booster"
	"Booster/config"
	"Booster/paths"
	"Booster/priority"
	"Booster/priority/prioritytest"
	"Booster/process"
	"Booster/process/processtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

const versions = `C:\Users\X\AppData\Local\Roblox\Versions`

func client(pid int32) process.Candidate {
	return process.Candidate{
		Pid:    pid,
		Name:   "RobloxPlayerBeta.exe",
		Exe:    versions + `\version-1\RobloxPlayerBeta.exe`,
		Uptime: time.Minute,
	}
}

type recorder struct {
	mu    sync.Mutex
	infos []string
	errs  []string
}

func (r *recorder) Infof(f string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = append(r.infos, f)
}

func (r *recorder) Errorf(f string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, f)
}

func newServer(t *testing.T, procs ...process.Candidate) (*Server, *booster.Engine, *prioritytest.API, *recorder) {
	t.Helper()
	api := prioritytest.New()
	for _, p := range procs {
		api.Add(p.Pid, priority.ClassNormal)
	}
	resolver := &paths.Resolver{
		LookupEnv: func(string) (string, bool) { return "", false },
		Exists:    func(p string) bool { return p == versions },
		Glob:      func(string) ([]string, error) { return nil, nil },
	}
	engine := booster.New(booster.Options{
		Snapshot:    processtest.New(procs...),
		API:         api,
		Resolver:    resolver,
		Preferences: config.Preferences{AutoDetect: true, PriorityLevel: priority.High, CustomInstallPath: versions},
		Limits:      config.DefaultLimits(),
	})
	rec := &recorder{}
	return New(engine, rec, time.Minute), engine, api, rec
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestEnableDisable(t *testing.T) {
	s, engine, api, notes := newServer(t, client(42))

	res := do(s, http.MethodPost, "/enable", "")
	require.Equal(t, http.StatusOK, res.Code)
	var result Result
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &result))
	assert.Contains(t, result.Summary, "1 process(es) optimized")
	assert.Equal(t, priority.ClassHigh, api.ClassOf(42))

	res = do(s, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, res.Code)
	var status Status
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &status))
	assert.Equal(t, []int32{42}, status.Boosted)
	assert.Equal(t, 1, status.Stats.ProcessesBoosted)
	assert.Contains(t, status.AllowedPaths, versions)
	assert.Equal(t, versions, status.InstallPath)
	assert.Contains(t, res.Body.String(), `"state":"enabled"`)

	res = do(s, http.MethodPost, "/disable", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "1/1 processes restored")
	assert.Equal(t, priority.ClassNormal, api.ClassOf(42))
	assert.Equal(t, booster.Disabled, engine.State())
	assert.Len(t, notes.infos, 2)
}

func TestEnableErrors(t *testing.T) {
	s, _, _, notes := newServer(t)
	res := do(s, http.MethodPost, "/enable", "")
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Contains(t, res.Body.String(), "No Roblox processes found")
	assert.Len(t, notes.errs, 1)

	var procs []process.Candidate
	for pid := int32(1); pid <= 6; pid++ {
		procs = append(procs, client(pid))
	}
	s, _, api, _ := newServer(t, procs...)
	res = do(s, http.MethodPost, "/enable", "")
	assert.Equal(t, http.StatusConflict, res.Code)
	var result Result
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &result))
	assert.Contains(t, result.Error, "(6 > 5)")
	assert.Zero(t, api.Opens())
}

func TestPreferences(t *testing.T) {
	s, engine, _, _ := newServer(t, client(1))

	res := do(s, http.MethodPut, "/preferences", `{"priority_level":"above_normal","enable_gpu_boost":true}`)
	require.Equal(t, http.StatusOK, res.Code)
	prefs := engine.Preferences()
	assert.Equal(t, priority.AboveNormal, prefs.PriorityLevel)
	assert.True(t, prefs.EnableGpuBoost)
	assert.True(t, prefs.AutoDetect)
	assert.Equal(t, versions, prefs.CustomInstallPath)

	res = do(s, http.MethodPut, "/preferences", `{"priority_level":"warp"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, priority.AboveNormal, engine.Preferences().PriorityLevel)

	res = do(s, http.MethodGet, "/preferences", "")
	assert.Contains(t, res.Body.String(), `"priority_level":"above_normal"`)
}

func TestProcesses(t *testing.T) {
	impostor := client(2)
	impostor.Exe = `C:\Temp\RobloxPlayerBeta.exe`
	s, _, _, _ := newServer(t, client(1), impostor)

	res := do(s, http.MethodGet, "/processes", "")
	require.Equal(t, http.StatusOK, res.Code)
	var detected []process.Candidate
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &detected))
	require.Len(t, detected, 1)
	assert.Equal(t, int32(1), detected[0].Pid)
}

func TestEventsStream(t *testing.T) {
	s, _, _, _ := newServer(t, client(1))
	srv := httptest.NewServer(s.Echo())
	defer srv.Close()

	ws, err := websocket.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/events", "", srv.URL)
	require.NoError(t, err)
	defer ws.Close()
	require.NoError(t, ws.SetDeadline(time.Now().Add(5*time.Second)))

	var event Event
	require.NoError(t, websocket.JSON.Receive(ws, &event))
	assert.Equal(t, StatusOp, event.Type)
	require.NotNil(t, event.Status)
	assert.Equal(t, booster.Disabled, event.Status.State)

	res, err := http.Post(srv.URL+"/enable", "application/json", nil)
	require.NoError(t, err)
	res.Body.Close()

	require.NoError(t, websocket.JSON.Receive(ws, &event))
	assert.Equal(t, EnableOp, event.Type)
	assert.Contains(t, event.Text, "1 process(es) optimized")
}
