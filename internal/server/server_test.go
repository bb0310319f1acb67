package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/philipparndt/armeasure/internal/config"
	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/internal/scenario"
	"github.com/philipparndt/armeasure/internal/session"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

const room = `
name: room
viewport: {width: 400, height: 300}
fov: 90
planes:
  - id: wall
    center: [0, 0.5, -2]
    normal: [0, 0, 1]
    width: 4
    height: 3
    alignment: vertical
`

type memoryStorage struct {
	mu       sync.Mutex
	saved    [][]measurement.Group
	pictures []string

	// firstDelay stalls the first save to let later requests overtake it
	firstDelay time.Duration
	calls      int
}

func (m *memoryStorage) SaveGroups(_ context.Context, groups []measurement.Group) error {
	m.mu.Lock()
	m.calls++
	first := m.calls == 1
	m.mu.Unlock()
	if first && m.firstDelay > 0 {
		time.Sleep(m.firstDelay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, groups)
	return nil
}

func (m *memoryStorage) RecordPicture(_ context.Context, path string, _ time.Time, _ []measurement.MeasurementLine2D) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pictures = append(m.pictures, path)
	return nil
}

type fixture struct {
	server  *Server
	world   *scenario.World
	session *session.Session
	storage *memoryStorage
	now     time.Time
}

func newFixture(t *testing.T, pictureDir string) *fixture {
	t.Helper()
	script, err := scenario.Parse([]byte(room))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	world := scenario.NewWorld(script)
	cfg := config.Default()
	cfg.MaxDistanceCamera = 5
	logger := log.New(&bytes.Buffer{}, "", 0)
	s := session.New(session.Options{Config: cfg, Tracker: world, Renderer: world, Logger: logger})
	storage := &memoryStorage{}
	return &fixture{
		server:  New(s, Options{Storage: storage, PictureDir: pictureDir, Logger: logger}),
		world:   world,
		session: s,
		storage: storage,
		now:     time.Unix(0, 0),
	}
}

// aim points the crosshair at a world point and runs one tick
func (f *fixture) aim(x, y, z float64) {
	p := geometry.NewVector3(x, y, z)
	f.world.SetAim(&p)
	f.now = f.now.Add(time.Second)
	f.session.Tick(f.now, geometry.NewVector2(200, 150))
}

func (f *fixture) do(t *testing.T, method, target, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.server.App().Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, target, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body failed: %v", err)
	}
	return resp.StatusCode, data
}

func decodeInto(t *testing.T, data []byte, target any) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("decode %s failed: %v", data, err)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, "")
	code, body := f.do(t, http.MethodGet, "/health/live", "")
	if code != http.StatusOK || !strings.Contains(string(body), "alive") {
		t.Errorf("health failed: %d %s", code, body)
	}
}

func TestAddPointFlow(t *testing.T) {
	f := newFixture(t, "")

	code, body := f.do(t, http.MethodPost, "/api/v1/points", "")
	var miss session.AddPointResponse
	decodeInto(t, body, &miss)
	if code != http.StatusOK || miss.Error == nil || !strings.Contains(*miss.Error, "no surface found") {
		t.Errorf("add point without hit failed: %d %s", code, body)
	}

	f.aim(0, 0, -2)
	_, body = f.do(t, http.MethodPost, "/api/v1/points", `{"setCurrent": false}`)
	var first session.AddPointResponse
	decodeInto(t, body, &first)
	if first.Error != nil || first.Measurement != nil || first.CameraDistance == nil {
		t.Errorf("first point failed: %s", body)
	}

	f.aim(1, 0, -2)
	_, body = f.do(t, http.MethodPost, "/api/v1/points", "")
	var second session.AddPointResponse
	decodeInto(t, body, &second)
	if second.Measurement == nil || second.Measurement.Label != "1.00 m" {
		t.Fatalf("second point failed: %s", body)
	}

	_, body = f.do(t, http.MethodGet, "/api/v1/measurements", "")
	var list []measurement.MeasurementLine
	decodeInto(t, body, &list)
	if len(list) != 1 || list[0].ID != second.Measurement.ID {
		t.Errorf("list failed: %s", body)
	}
	if len(f.storage.saved) != 1 {
		t.Errorf("expected 1 save, got %d", len(f.storage.saved))
	}
}

func TestEditAndRemoveMeasurement(t *testing.T) {
	f := newFixture(t, "")
	f.aim(0, 0, -2)
	f.do(t, http.MethodPost, "/api/v1/points", "")
	f.aim(0, 1, -2)
	f.do(t, http.MethodPost, "/api/v1/points", "")

	code, body := f.do(t, http.MethodPatch, "/api/v1/measurements/1", `{"text": "door"}`)
	if code != http.StatusOK || !strings.Contains(string(body), `"label":"door"`) {
		t.Errorf("edit failed: %d %s", code, body)
	}

	code, _ = f.do(t, http.MethodPatch, "/api/v1/measurements/1", `{}`)
	if code != http.StatusBadRequest {
		t.Errorf("edit without text: expected 400, got %d", code)
	}

	_, body = f.do(t, http.MethodDelete, "/api/v1/measurements/99", "")
	if !strings.Contains(string(body), `"measurement":null`) {
		t.Errorf("remove of absent id failed: %s", body)
	}

	_, body = f.do(t, http.MethodDelete, "/api/v1/measurements/1", "")
	if !strings.Contains(string(body), `"id":"1"`) {
		t.Errorf("remove failed: %s", body)
	}
	if f.session.Store().Len() != 0 {
		t.Errorf("expected empty store, got %d", f.session.Store().Len())
	}
}

func TestPlanes(t *testing.T) {
	f := newFixture(t, "")

	_, body := f.do(t, http.MethodGet, "/api/v1/planes?alignment=vertical&min=1", "")
	var planes []measurement.ARPlane
	decodeInto(t, body, &planes)
	if len(planes) != 1 || planes[0].ID != "wall" {
		t.Errorf("planes failed: %s", body)
	}

	_, body = f.do(t, http.MethodGet, "/api/v1/planes?min=5", "")
	decodeInto(t, body, &planes)
	if len(planes) != 0 {
		t.Errorf("min filter failed: %s", body)
	}

	_, body = f.do(t, http.MethodPost, "/api/v1/planes", `{"planeId": "wall", "left": true, "right": true, "setId": true}`)
	var added session.AddPlaneResponse
	decodeInto(t, body, &added)
	if added.Error != nil || len(added.Measurements) != 2 || added.Plane == nil {
		t.Fatalf("add plane failed: %s", body)
	}
	if added.Measurements[0].PlaneID != "wall" || added.Measurements[0].Label != "3.00 m" {
		t.Errorf("plane edge failed: %+v", added.Measurements[0])
	}

	_, body = f.do(t, http.MethodPost, "/api/v1/planes", `{"planeId": "ghost"}`)
	decodeInto(t, body, &added)
	if added.Error != nil || added.Plane != nil || added.Measurements == nil || len(added.Measurements) != 0 {
		t.Errorf("unknown plane failed: %s", body)
	}

	_, body = f.do(t, http.MethodDelete, "/api/v1/planes/wall", "")
	if strings.Count(string(body), `"planeId":"wall"`) != 2 {
		t.Errorf("remove plane failed: %s", body)
	}
}

func TestClearAndRemoveLast(t *testing.T) {
	f := newFixture(t, "")
	f.do(t, http.MethodPost, "/api/v1/planes", `{"planeId": "wall", "top": true, "setId": true}`)
	f.aim(0, 0, -2)
	f.do(t, http.MethodPost, "/api/v1/points", "")
	f.aim(1, 0, -2)
	f.do(t, http.MethodPost, "/api/v1/points", "")

	_, body := f.do(t, http.MethodPost, "/api/v1/remove-last?scope=planes", "")
	if !strings.Contains(string(body), `"planeId":"wall"`) {
		t.Errorf("remove-last planes failed: %s", body)
	}

	_, body = f.do(t, http.MethodPost, "/api/v1/clear?scope=points", "")
	if !strings.Contains(string(body), `"label":"1.00 m"`) {
		t.Errorf("clear points failed: %s", body)
	}
	if f.session.Store().Len() != 0 {
		t.Errorf("expected empty store, got %d", f.session.Store().Len())
	}

	code, _ := f.do(t, http.MethodPost, "/api/v1/clear-current", "")
	if code != http.StatusOK {
		t.Errorf("clear-current failed: %d", code)
	}
}

func TestBadRequests(t *testing.T) {
	f := newFixture(t, "")
	tests := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodPost, "/api/v1/clear?scope=walls", ""},
		{http.MethodPost, "/api/v1/remove-last?scope=x", ""},
		{http.MethodGet, "/api/v1/planes?min=abc", ""},
		{http.MethodGet, "/api/v1/planes?min=-1", ""},
		{http.MethodGet, "/api/v1/planes?alignment=diagonal", ""},
		{http.MethodPost, "/api/v1/points", "{"},
		{http.MethodPost, "/api/v1/planes", "[1"},
		{http.MethodPost, "/api/v1/picture", `{"path": " "}`},
	}
	for _, tt := range tests {
		if code, body := f.do(t, tt.method, tt.target, tt.body); code != http.StatusBadRequest {
			t.Errorf("%s %s: expected 400, got %d %s", tt.method, tt.target, code, body)
		}
	}
}

func TestTakePicture(t *testing.T) {
	dir := t.TempDir()
	f := newFixture(t, dir)
	f.aim(0, 0, -2)
	f.do(t, http.MethodPost, "/api/v1/points", "")
	f.aim(1, 0, -2)
	f.do(t, http.MethodPost, "/api/v1/points", "")

	_, body := f.do(t, http.MethodPost, "/api/v1/picture", `{"path": "../escape/shot.png"}`)
	var pic session.PictureResponse
	decodeInto(t, body, &pic)
	if pic.Error != nil || len(pic.Measurements) != 1 {
		t.Fatalf("picture failed: %s", body)
	}
	if len(f.storage.pictures) != 1 || !strings.HasPrefix(f.storage.pictures[0], dir) {
		t.Errorf("picture must be recorded inside %s, got %v", dir, f.storage.pictures)
	}
}

func TestCapabilities(t *testing.T) {
	f := newFixture(t, "")
	_, body := f.do(t, http.MethodGet, "/api/v1/capabilities", "")
	var caps session.Capabilities
	decodeInto(t, body, &caps)
	if !caps.Tracking || !caps.Picture || caps.Torch || caps.Haptics {
		t.Errorf("capabilities failed: %s", body)
	}
}

func TestConcurrentRemovesPersistLatestState(t *testing.T) {
	f := newFixture(t, "")
	f.storage.firstDelay = 200 * time.Millisecond
	for i := 0; i < 3; i++ {
		f.session.Store().Add(measurement.NewGroup(
			geometry.NewVector3(float64(i), 0, -2),
			geometry.NewVector3(float64(i), 1, -2),
			measurement.UnitMeters,
		))
	}

	var wg sync.WaitGroup
	for _, id := range []string{"1", "2"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/measurements/"+id, nil)
			resp, err := f.server.App().Test(req)
			if err != nil {
				t.Errorf("DELETE %s failed: %v", id, err)
				return
			}
			resp.Body.Close()
		}(id)
	}
	wg.Wait()

	f.storage.mu.Lock()
	defer f.storage.mu.Unlock()
	if len(f.storage.saved) != 2 {
		t.Fatalf("expected 2 saves, got %d", len(f.storage.saved))
	}
	last := f.storage.saved[len(f.storage.saved)-1]
	current := f.session.Store().List()
	if len(last) != len(current) || len(last) != 1 || last[0].ID != current[0].ID {
		t.Errorf("persisted state failed: expected %+v, got %+v", current, last)
	}
}
