package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-flightschool/internal/config"
	"github.com/teslashibe/go-flightschool/pkg/lessons"
	"github.com/teslashibe/go-flightschool/pkg/protocol"
	"github.com/teslashibe/go-flightschool/pkg/sim"
)

const pitchWorkspace = `{"blocks":{"languageVersion":0,"blocks":[
  {"type":"drone_pitch","id":"a","fields":{"DIRECTION":"FORWARD","DURATION":0.1},
   "next":{"block":{"type":"delay","id":"b","fields":{"SECONDS":0.1}}}}
]}}`

func newTestServer(t *testing.T, opts ...sim.Option) (*Server, *sim.Session) {
	t.Helper()
	session := sim.NewSession(opts...)
	s := NewServer(config.Default(), session, lessons.Default())
	return s, session
}

func do(t *testing.T, s *Server, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := s.App().Test(req, 5000)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, body
}

func withProgress(req *http.Request, ids ...int) *http.Request {
	req.AddCookie(&http.Cookie{Name: lessons.CookieName, Value: lessons.NewProgress(ids...).Encode()})
	return req
}

func progressCookie(resp *http.Response) (*http.Cookie, bool) {
	for _, c := range resp.Cookies() {
		if c.Name == lessons.CookieName {
			return c, true
		}
	}
	return nil, false
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	resp, body := do(t, s, httptest.NewRequest("GET", "/health", nil))
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"status":"ok"`) {
		t.Errorf("body = %s", body)
	}
}

func TestMetrics(t *testing.T) {
	s, session := newTestServer(t)
	session.Step()
	session.Step()

	_, body := do(t, s, httptest.NewRequest("GET", "/metrics", nil))
	for _, want := range []string{
		"# TYPE flightschool_ticks counter",
		"flightschool_ticks 2\n",
		"flightschool_busy 0\n",
		"flightschool_runs_started 0\n",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

// =============================================================================
// Lessons
// =============================================================================

func TestListLessons_SetsDefaultCookie(t *testing.T) {
	s, _ := newTestServer(t)

	resp, body := do(t, s, httptest.NewRequest("GET", "/api/lessons/", nil))
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}

	c, ok := progressCookie(resp)
	if !ok {
		t.Fatal("missing progress cookie")
	}
	p, ok := lessons.ParseProgress(c.Value)
	if !ok || len(p.Unlocked()) != 1 || !p.IsUnlocked(1) {
		t.Errorf("cookie = %q, want only lesson 1", c.Value)
	}

	var out struct {
		Lessons []lessons.Entry `json:"lessons"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Lessons) != 4 {
		t.Fatalf("lessons = %d, want 4", len(out.Lessons))
	}
	if !out.Lessons[0].Unlocked || out.Lessons[1].Unlocked {
		t.Errorf("unlocks = %v,%v want true,false", out.Lessons[0].Unlocked, out.Lessons[1].Unlocked)
	}
}

func TestListLessons_KeepsValidCookie(t *testing.T) {
	s, _ := newTestServer(t)

	resp, _ := do(t, s, withProgress(httptest.NewRequest("GET", "/api/lessons/", nil), 1, 2))
	if _, ok := progressCookie(resp); ok {
		t.Error("valid cookie should not be rewritten")
	}
}

func TestGetLesson(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		progress []int
		want     int
	}{
		{"first lesson", "/api/lessons/1", []int{1}, 200},
		{"locked", "/api/lessons/2", []int{1}, 403},
		{"unlocked", "/api/lessons/2", []int{1, 2}, 200},
		{"unknown", "/api/lessons/9", []int{1, 9}, 404},
		{"bad id", "/api/lessons/abc", []int{1}, 400},
		{"zero", "/api/lessons/0", []int{1}, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t)
			resp, body := do(t, s, withProgress(httptest.NewRequest("GET", tt.path, nil), tt.progress...))
			if resp.StatusCode != tt.want {
				t.Errorf("Status = %d, want %d (%s)", resp.StatusCode, tt.want, body)
			}
		})
	}
}

func TestPlayLesson(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/lessons/2/play",
		strings.NewReader(`{"code":"moveRight()\nmoveRight()\nmoveRight()\nmoveRight()\nmoveRight()"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, body := do(t, s, withProgress(req, 1, 2))
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200 (%s)", resp.StatusCode, body)
	}

	var result struct {
		Solved bool `json:"solved"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.Solved {
		t.Errorf("five moves should solve lesson 2: %s", body)
	}
}

func TestPlayLesson_Locked(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/lessons/3/play", strings.NewReader(`{"code":"moveRight(7)"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, _ := do(t, s, withProgress(req, 1, 2))
	if resp.StatusCode != 403 {
		t.Errorf("Status = %d, want 403", resp.StatusCode)
	}
}

func TestCompleteLesson(t *testing.T) {
	s, _ := newTestServer(t)

	resp, body := do(t, s, withProgress(httptest.NewRequest("POST", "/api/lessons/1/complete", nil), 1))
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200 (%s)", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), `"changed":true`) {
		t.Errorf("body = %s", body)
	}

	c, ok := progressCookie(resp)
	if !ok {
		t.Fatal("completion should write the cookie")
	}
	p, _ := lessons.ParseProgress(c.Value)
	if !p.IsUnlocked(2) {
		t.Errorf("cookie %q should unlock lesson 2", c.Value)
	}
	if c.Path != "/" {
		t.Errorf("cookie path = %q, want /", c.Path)
	}

	// Completing again changes nothing.
	resp, body = do(t, s, withProgress(httptest.NewRequest("POST", "/api/lessons/1/complete", nil), 1, 2))
	if !strings.Contains(string(body), `"changed":false`) {
		t.Errorf("body = %s", body)
	}
	if _, ok := progressCookie(resp); ok {
		t.Error("unchanged progress should not be rewritten")
	}
}

func TestCompleteLesson_Locked(t *testing.T) {
	s, _ := newTestServer(t)

	resp, _ := do(t, s, withProgress(httptest.NewRequest("POST", "/api/lessons/3/complete", nil), 1))
	if resp.StatusCode != 403 {
		t.Errorf("Status = %d, want 403", resp.StatusCode)
	}
}

// =============================================================================
// Drone
// =============================================================================

func TestBlocks(t *testing.T) {
	s, _ := newTestServer(t)

	resp, body := do(t, s, httptest.NewRequest("GET", "/api/drone/blocks", nil))
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	for _, kind := range []string{"drone_pitch", "drone_roll", "drone_yaw", "drone_hover", "delay"} {
		if !strings.Contains(string(body), kind) {
			t.Errorf("toolbox missing %s", kind)
		}
	}
}

func TestCompile(t *testing.T) {
	s, session := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/drone/compile", strings.NewReader(pitchWorkspace))
	resp, body := do(t, s, req)
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200 (%s)", resp.StatusCode, body)
	}

	var out CompileResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 2 {
		t.Errorf("Count = %d, want 2", out.Count)
	}
	if out.DurationMs != 200 {
		t.Errorf("DurationMs = %d, want 200", out.DurationMs)
	}
	if session.Busy() {
		t.Error("compile should not start a run")
	}
}

func TestCompile_Malformed(t *testing.T) {
	s, _ := newTestServer(t)

	resp, _ := do(t, s, httptest.NewRequest("POST", "/api/drone/compile", strings.NewReader("{")))
	if resp.StatusCode != 400 {
		t.Errorf("Status = %d, want 400", resp.StatusCode)
	}
}

func TestProgram_BusyUntilFinished(t *testing.T) {
	s, session := newTestServer(t)

	resp, body := do(t, s, httptest.NewRequest("POST", "/api/drone/program", strings.NewReader(pitchWorkspace)))
	if resp.StatusCode != 202 {
		t.Fatalf("Status = %d, want 202 (%s)", resp.StatusCode, body)
	}
	var started ProgramResponse
	if err := json.Unmarshal(body, &started); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if started.Run.ID == "" || started.Run.Status != string(sim.RunRunning) {
		t.Errorf("run = %+v", started.Run)
	}

	resp, _ = do(t, s, httptest.NewRequest("POST", "/api/drone/program", strings.NewReader(pitchWorkspace)))
	if resp.StatusCode != 409 {
		t.Errorf("second program Status = %d, want 409", resp.StatusCode)
	}

	// 0.2 s of instructions at 60 Hz, with slack
	for i := 0; i < 20; i++ {
		session.Step()
	}

	resp, body = do(t, s, httptest.NewRequest("GET", "/api/drone/runs/"+started.Run.ID, nil))
	if resp.StatusCode != 200 {
		t.Fatalf("run Status = %d, want 200", resp.StatusCode)
	}
	var run protocol.RunData
	if err := json.Unmarshal(body, &run); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if run.Status != string(sim.RunFinished) {
		t.Errorf("Status = %s, want finished", run.Status)
	}

	stats := s.Stats()
	if stats.RunsStarted != 1 || stats.RunsRejected != 1 {
		t.Errorf("stats = %+v, want 1 started 1 rejected", stats)
	}

	_, body = do(t, s, httptest.NewRequest("GET", "/api/drone/trace", nil))
	var trace struct {
		Effects []protocol.EffectData `json:"effects"`
	}
	if err := json.Unmarshal(body, &trace); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(trace.Effects) == 0 || trace.Effects[0].Kind != string(sim.EffectTorque) {
		t.Errorf("trace = %+v", trace.Effects)
	}
}

func TestProgram_Wait(t *testing.T) {
	s, session := newTestServer(t, sim.WithRate(time.Millisecond))
	go session.Run()
	defer session.Stop()

	resp, body := do(t, s, httptest.NewRequest("POST", "/api/drone/program?wait=true", strings.NewReader(pitchWorkspace)))
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200 (%s)", resp.StatusCode, body)
	}
	var out ProgramResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Run.Status != string(sim.RunFinished) {
		t.Errorf("Status = %s, want finished", out.Run.Status)
	}
}

func TestGetRun_Unknown(t *testing.T) {
	s, _ := newTestServer(t)

	resp, _ := do(t, s, httptest.NewRequest("GET", "/api/drone/runs/nope", nil))
	if resp.StatusCode != 404 {
		t.Errorf("Status = %d, want 404", resp.StatusCode)
	}
}

func TestState(t *testing.T) {
	s, session := newTestServer(t)
	session.Step()

	resp, body := do(t, s, httptest.NewRequest("GET", "/api/drone/state", nil))
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	var state protocol.TelemetryData
	if err := json.Unmarshal(body, &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Tick != 1 {
		t.Errorf("Tick = %d, want 1", state.Tick)
	}
	if state.Quaternion[3] == 0 {
		t.Errorf("quaternion w should be set: %v", state.Quaternion)
	}
}

func TestKeys(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		key     string
		applied bool
	}{
		{"w", true},
		{"ArrowLeft", true},
		{"h", true},
		{"q", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			resp, body := do(t, s, httptest.NewRequest("POST", "/api/drone/keys/"+tt.key, nil))
			if resp.StatusCode != 200 {
				t.Fatalf("Status = %d, want 200", resp.StatusCode)
			}
			var out struct {
				Key     string `json:"key"`
				Applied bool   `json:"applied"`
			}
			if err := json.Unmarshal(body, &out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out.Applied != tt.applied {
				t.Errorf("applied = %v, want %v", out.Applied, tt.applied)
			}
		})
	}

	if got := s.Stats().KeysApplied; got != 3 {
		t.Errorf("KeysApplied = %d, want 3", got)
	}

	_, body := do(t, s, httptest.NewRequest("GET", "/api/drone/keys", nil))
	if !strings.Contains(string(body), "ArrowDown") {
		t.Errorf("key list = %s", body)
	}
}

func TestReset(t *testing.T) {
	s, session := newTestServer(t)

	do(t, s, httptest.NewRequest("POST", "/api/drone/program", strings.NewReader(pitchWorkspace)))
	session.Step()
	if !session.Busy() {
		t.Fatal("program should be running")
	}

	resp, _ := do(t, s, httptest.NewRequest("POST", "/api/drone/reset", nil))
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	if session.Busy() {
		t.Error("reset should abandon the run")
	}
	if got := s.Stats().Resets; got != 1 {
		t.Errorf("Resets = %d, want 1", got)
	}
}
