package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gdsview/pkg/layout"
	"github.com/matzehuels/gdsview/pkg/observability"
	"github.com/matzehuels/gdsview/pkg/pipeline"
)

func newTestServer(t *testing.T) (*httptest.Server, *loaded) {
	t.Helper()
	hooks := observability.NewPrometheusHooks()
	hooks.Register()
	t.Cleanup(observability.Reset)

	runner := pipeline.NewRunner(nil, nil, log.New(io.Discard))
	res, err := runner.Load(context.Background(), testLayout(t), pipeline.Options{})
	if err != nil {
		t.Fatal(err)
	}
	l := &loaded{name: "test.gds", runner: runner, res: res}
	ts := httptest.NewServer(newServer(l, log.New(io.Discard), hooks.Handler()).routes())
	t.Cleanup(ts.Close)
	return ts, l
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestServer_Health(t *testing.T) {
	ts, l := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Load-ID"); got != l.res.LoadID.String() {
		t.Errorf("X-Load-ID = %q, want %s", got, l.res.LoadID)
	}
	h := decode[healthResponse](t, resp)
	if h.Status != "ok" || h.Root != "TOP" || h.Shapes != 3 {
		t.Errorf("health = %+v", h)
	}
}

func TestServer_Pick(t *testing.T) {
	ts, _ := newTestServer(t)
	tests := []struct {
		query     string
		wantHit   bool
		wantLayer int16
		wantDef   string
	}{
		{"x=5&y=5", true, 2, "TOP"},
		{"x=25&y=1", true, 1, "INV"},
		{"x=15&y=8", false, 0, ""},
	}
	for _, tt := range tests {
		resp := do(t, http.MethodGet, ts.URL+"/pick?"+tt.query, "")
		p := decode[pickResponse](t, resp)
		if p.Hit != tt.wantHit {
			t.Errorf("%s: hit = %v", tt.query, p.Hit)
			continue
		}
		if tt.wantHit && (p.Shape.Layer != tt.wantLayer || p.Shape.Definition != tt.wantDef) {
			t.Errorf("%s: shape = %+v", tt.query, p.Shape)
		}
	}

	all := decode[pickResponse](t, do(t, http.MethodGet, ts.URL+"/pick?x=25&y=5&all=1", ""))
	if len(all.Shapes) != 2 || all.Shapes[0].Layer != 2 {
		t.Errorf("all hits = %+v", all.Shapes)
	}

	resp := do(t, http.MethodGet, ts.URL+"/pick?x=left&y=1", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad coordinate status = %d", resp.StatusCode)
	}
	if e := decode[errorResponse](t, resp); e.Code != "INVALID_INPUT" {
		t.Errorf("error = %+v", e)
	}
}

func TestServer_PatchLayer(t *testing.T) {
	ts, l := newTestServer(t)

	resp := do(t, http.MethodPatch, ts.URL+"/layers/2", `{"visible":false,"color":"#ff8800"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decode[layout.LayerSettings](t, resp)
	if got.Visible || got.Color != "#ff8800" || got.Index != 2 {
		t.Errorf("patched = %+v", got)
	}
	id, _ := l.res.Store.LayerByIndex(2)
	if layer, _ := l.res.Store.Layer(id); layer.Visible {
		t.Error("store layer still visible")
	}

	p := decode[pickResponse](t, do(t, http.MethodGet, ts.URL+"/pick?x=5&y=5", ""))
	if !p.Hit || p.Shape.Layer != 1 {
		t.Errorf("pick after hide = %+v", p)
	}

	errs := []struct {
		path, body string
		status     int
	}{
		{"/layers/9", `{"visible":true}`, http.StatusNotFound},
		{"/layers/x", `{"visible":true}`, http.StatusBadRequest},
		{"/layers/1", `{"color":"orange"}`, http.StatusBadRequest},
		{"/layers/1", `{"opacity":2}`, http.StatusBadRequest},
		{"/layers/1", `{"shown":true}`, http.StatusBadRequest},
	}
	for _, tt := range errs {
		if resp := do(t, http.MethodPatch, ts.URL+tt.path, tt.body); resp.StatusCode != tt.status {
			t.Errorf("PATCH %s %s: status = %d, want %d", tt.path, tt.body, resp.StatusCode, tt.status)
		}
	}
}

func TestServer_LayersBoundsWorld(t *testing.T) {
	ts, _ := newTestServer(t)

	layers := decode[[]layout.LayerSettings](t, do(t, http.MethodGet, ts.URL+"/layers", ""))
	if len(layers) != 2 || layers[0].Index != 1 || layers[1].Index != 2 {
		t.Errorf("layers = %+v", layers)
	}

	b := decode[boundsResponse](t, do(t, http.MethodGet, ts.URL+"/bounds", ""))
	if b.Empty || b.Min != [2]float64{0, 0} || b.Max != [2]float64{40, 10} {
		t.Errorf("bounds = %+v", b)
	}

	resp := do(t, http.MethodGet, ts.URL+"/world.svg?background=true", "")
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(body), "<svg") {
		t.Errorf("body = %.60s", body)
	}
}

func TestServer_Metrics(t *testing.T) {
	ts, _ := newTestServer(t)
	do(t, http.MethodGet, ts.URL+"/pick?x=5&y=5", "")

	body, _ := io.ReadAll(do(t, http.MethodGet, ts.URL+"/metrics", "").Body)
	for _, want := range []string{
		`gdsview_http_requests_total{code="200",method="GET",route="/pick"} 1`,
		`gdsview_pick_queries_total`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestServer_ConcurrentPickAndPatch(t *testing.T) {
	ts, _ := newTestServer(t)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 10 {
				if i%2 == 0 {
					visible := j%2 == 0
					body := `{"visible":false}`
					if visible {
						body = `{"visible":true}`
					}
					req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/layers/2", strings.NewReader(body))
					if resp, err := http.DefaultClient.Do(req); err == nil {
						resp.Body.Close()
					}
					continue
				}
				if resp, err := http.Get(ts.URL + "/pick?x=5&y=5"); err == nil {
					resp.Body.Close()
				}
			}
		}()
	}
	wg.Wait()
}
