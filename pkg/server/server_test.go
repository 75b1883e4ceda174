package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/minerack/pkg/engine"
	"github.com/chazu/minerack/pkg/kernel/sdfx"
	"github.com/chazu/minerack/pkg/layout"
)

func newTestServer(t *testing.T) (*Server, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return New(logger, engine.NewEngine(), sdfx.NewWithCells(64), layout.VariantWorkshop), hook
}

func do(t *testing.T, s *Server, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s, hook := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "request completed", entry.Message)
	assert.Equal(t, "/healthz", entry.Data["path"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
	assert.NotEmpty(t, entry.Data["request_id"])
}

func TestVariants(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/variants", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Presets []struct {
			Name  string `json:"name"`
			Racks int    `json:"racks"`
		} `json:"presets"`
		Limits  layout.Limits     `json:"limits"`
		Default layout.RackConfig `json:"default"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	names := make([]string, len(resp.Presets))
	for i, p := range resp.Presets {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"workshop", "frame", "room", "cold-aisle"}, names)
	assert.Equal(t, layout.DefaultLimits(), resp.Limits)
	assert.Equal(t, layout.DefaultConfig(), resp.Default)
}

type layoutBody struct {
	Scene struct {
		Name    string            `json:"name"`
		Variant string            `json:"variant"`
		Config  layout.RackConfig `json:"config"`
		Summary struct {
			Racks         int `json:"racks"`
			TotalMachines int `json:"totalMachines"`
		} `json:"summary"`
		Components []json.RawMessage `json:"components"`
	} `json:"scene"`
	Inspection layout.InspectionResult `json:"inspection"`
}

func TestLayoutDefaults(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/layout", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[layoutBody](t, rec)
	assert.Equal(t, "workshop", body.Scene.Variant)
	assert.Equal(t, layout.DefaultConfig(), body.Scene.Config)
	assert.Equal(t, 2, body.Scene.Summary.Racks)
	assert.Equal(t, 110, body.Scene.Summary.TotalMachines)
	assert.Len(t, body.Scene.Components, 2*191)
	assert.Empty(t, body.Inspection.Errors)
	assert.NotEmpty(t, body.Inspection.Warnings)
}

func TestLayoutQuery(t *testing.T) {
	s, _ := newTestServer(t)
	q := url.Values{
		"variant":  {"cold_aisle"},
		"levels":   {"3"},
		"machines": {"6"},
		"depth":    {"0.8"},
		"conduit":  {"0.03"},
		"gap":      {"0.1"},
	}
	rec := do(t, s, http.MethodGet, "/api/layout?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[layoutBody](t, rec)
	assert.Equal(t, "cold-aisle", body.Scene.Variant)
	assert.Equal(t, layout.RackConfig{
		Levels:           3,
		MachinesPerLevel: 6,
		ShelfDepth:       0.8,
		ConduitDiameter:  0.03,
		MachineGap:       0.1,
	}, body.Scene.Config)
	assert.Equal(t, 36, body.Scene.Summary.TotalMachines)
}

func TestLayoutRejectsRowOverflow(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/layout?levels=8&machines=15", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decode[errorResponse](t, rec)
	assert.Equal(t, http.StatusUnprocessableEntity, body.Code)
	require.NotEmpty(t, body.Problems)
	assert.Equal(t, "machinesPerLevel", body.Problems[0].Field)
	assert.Contains(t, body.Problems[0].Message, "clear span")
}

func TestLayoutClamp(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/layout?levels=20&depth=3", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Len(t, decode[errorResponse](t, rec).Problems, 2)

	rec = do(t, s, http.MethodGet, "/api/layout?levels=20&depth=3&clamp=true", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[layoutBody](t, rec)
	assert.Equal(t, 8, body.Scene.Config.Levels)
	assert.InDelta(t, 1.0, body.Scene.Config.ShelfDepth, 1e-12)
}

func TestLayoutBadQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"levels not an integer", "levels=five", "levels"},
		{"gap not a number", "gap=wide", "gap"},
		{"clamp not a boolean", "clamp=maybe", "clamp"},
		{"unknown variant", "variant=datacenter", "unknown variant"},
	}
	s, _ := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/api/layout?"+tt.query, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode[errorResponse](t, rec).Error, tt.want)
		})
	}
}

func TestMeshesRoleFilter(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/meshes?levels=1&machines=2&role=machine", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Meshes []struct {
			PartName string    `json:"partName"`
			Role     string    `json:"role"`
			Color    string    `json:"color"`
			Vertices []float32 `json:"vertices"`
		} `json:"meshes"`
		Skipped []string `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// Two racks of one tier with two machines each.
	require.Len(t, resp.Meshes, 4)
	assert.Empty(t, resp.Skipped)
	for _, m := range resp.Meshes {
		assert.Equal(t, "machine", m.Role)
		assert.Equal(t, layout.MaterialFor(layout.RoleMachine).Color, m.Color)
		assert.True(t, strings.HasPrefix(m.PartName, "rack-"), m.PartName)
		assert.NotEmpty(t, m.Vertices)
	}
}

func TestMeshesUnknownRole(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/meshes?role=machine,gizmo", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "gizmo")
}

type evaluateBody struct {
	Scenes []struct {
		Name string `json:"name"`
	} `json:"scenes"`
	Errors   []engine.EvalError   `json:"errors"`
	Warnings []engine.EvalWarning `json:"warnings"`
}

func TestEvaluate(t *testing.T) {
	s, _ := newTestServer(t)
	src := `
(scene "shop" (default-rack))
(scene "metal" :variant :frame (rack :levels 2 :conduit 0.03))
`
	rec := do(t, s, http.MethodPost, "/api/evaluate", strings.NewReader(src))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[evaluateBody](t, rec)
	require.Len(t, body.Scenes, 2)
	assert.Equal(t, "shop", body.Scenes[0].Name)
	assert.Equal(t, "metal", body.Scenes[1].Name)
	assert.Empty(t, body.Errors)
	assert.NotEmpty(t, body.Warnings)
}

func TestEvaluateErrors(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/evaluate", strings.NewReader(`(scene "x" (rack :levels 9))`))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decode[evaluateBody](t, rec)
	assert.Empty(t, body.Scenes)
	require.NotEmpty(t, body.Errors)
	assert.Contains(t, body.Errors[0].Message, "levels")
}

func TestEvaluateEmpty(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/evaluate", strings.NewReader(""))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[evaluateBody](t, rec)
	assert.Empty(t, body.Scenes)
	assert.Empty(t, body.Errors)
}

func TestEvaluateConcurrentClients(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()
	src := `
(scene "shop" (rack :levels 1 :machines 2))
(scene "cold" :variant :cold-aisle (rack :levels 1 :machines 2))
(scene "metal" :variant :frame (rack :levels 1 :conduit 0.03))
`

	const clients = 16
	codes := make([]int, clients)
	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/evaluate", strings.NewReader(src)))
			codes[i] = rec.Code
			if rec.Code != http.StatusOK {
				t.Logf("client %d: %s", i, rec.Body.String())
			}
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		assert.Equal(t, http.StatusOK, code, "client %d", i)
	}
}

type busyEvaluator struct{}

func (busyEvaluator) EvaluateIndependent(string) (*engine.Program, []engine.EvalError, error) {
	return nil, nil, engine.ErrBusy
}

func TestEvaluateBusy(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := New(logger, busyEvaluator{}, sdfx.NewWithCells(64), layout.VariantWorkshop)

	rec := do(t, s, http.MethodPost, "/api/evaluate", strings.NewReader(`(+ 1 2)`))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))

	body := decode[errorResponse](t, rec)
	assert.Equal(t, http.StatusServiceUnavailable, body.Code)
	assert.Contains(t, body.Error, "too many evaluations")
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/nothing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/evaluate", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
