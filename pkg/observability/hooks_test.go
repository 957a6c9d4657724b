package observability

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnStageStart(ctx, StageDecode)
	p.OnStageComplete(ctx, StageDecode, time.Second, nil)
	p.OnLoadComplete(ctx, 10, 20, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "library")
	c.OnCacheMiss(ctx, "artifact")
	c.OnCacheSet(ctx, "library", 1024)

	NoopPickHooks{}.OnPick(ctx, true, time.Microsecond)
	NoopServerHooks{}.OnRequest(ctx, "GET", "/pick", 200, time.Millisecond)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := Pick().(NoopPickHooks); !ok {
		t.Error("Pick() should return NoopPickHooks by default")
	}
	if _, ok := Server().(NoopServerHooks); !ok {
		t.Error("Server() should return NoopServerHooks by default")
	}

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)
	SetPipelineHooks(nil)
	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}

	prom := NewPrometheusHooks()
	prom.Register()
	if Pipeline() != prom || Cache() != prom || Pick() != prom || Server() != prom {
		t.Error("Register() should install every hook")
	}

	Reset()
	if _, ok := Pick().(NoopPickHooks); !ok {
		t.Error("Reset() should restore NoopPickHooks")
	}
}

func TestPrometheusHooks(t *testing.T) {
	ctx := context.Background()
	h := NewPrometheusHooks()

	h.OnStageStart(ctx, StageBuild)
	h.OnStageComplete(ctx, StageBuild, 20*time.Millisecond, nil)
	h.OnStageStart(ctx, StageDecode)
	h.OnStageComplete(ctx, StageDecode, time.Millisecond, errors.New("truncated"))
	h.OnLoadComplete(ctx, 42, 84, time.Second, nil)
	h.OnCacheHit(ctx, "library")
	h.OnCacheMiss(ctx, "library")
	h.OnCacheSet(ctx, "library", 512)
	h.OnPick(ctx, true, time.Microsecond)
	h.OnPick(ctx, false, time.Microsecond)
	h.OnRequest(ctx, "GET", "/pick", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		`gdsview_pipeline_stage_duration_seconds_count{stage="build"} 1`,
		`gdsview_pipeline_stage_errors_total{stage="decode"} 1`,
		`gdsview_pipeline_stages_in_flight{stage="build"} 0`,
		`gdsview_pipeline_loads_total{status="ok"} 1`,
		`gdsview_pipeline_shape_instances 42`,
		`gdsview_cache_lookups_total{key_type="library",result="hit"} 1`,
		`gdsview_cache_lookups_total{key_type="library",result="miss"} 1`,
		`gdsview_cache_written_bytes_total{key_type="library"} 512`,
		`gdsview_pick_queries_total{result="hit"} 1`,
		`gdsview_http_requests_total{code="200",method="GET",route="/pick"} 1`,
		`go_goroutines`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output is missing %q", want)
		}
	}
}

type testPipelineHooks struct{ NoopPipelineHooks }
