package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/dltkit/internal/observability"
	"github.com/danmuck/dltkit/internal/source"
	"github.com/danmuck/dltkit/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
)

type fixedStats source.Stats

func (f fixedStats) Stats() source.Stats { return source.Stats(f) }

func newTestServer(t *testing.T, stats StatsProvider) *Server {
	t.Helper()
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	s := Appear("dltcat", ":0", nil, stats)
	s.RegisterRoutes()
	return s
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)
	return rr
}

func TestHealthRoute(t *testing.T) {
	s := newTestServer(t, nil)
	rr := get(s, "/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" || body["service"] != "dltcat" {
		t.Fatalf("unexpected body: %#v", body)
	}
}

func TestStatsRoute(t *testing.T) {
	s := newTestServer(t, fixedStats{SessionID: "abc", Kind: "file", Packets: 7, Errors: 1})
	rr := get(s, "/stats")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var body source.Stats
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.SessionID != "abc" || body.Packets != 7 || body.Errors != 1 {
		t.Fatalf("unexpected stats: %+v", body)
	}

	empty := newTestServer(t, nil)
	if rr := get(empty, "/stats"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a source, got %d", rr.Code)
	}
}

func TestMetricsRouteExposesDecodeCounters(t *testing.T) {
	s := newTestServer(t, nil)
	observability.RecordHTTPRequest("dltcat", "GET", "/health", 200, 0)
	rr := get(s, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	for _, name := range []string{"dltkit_http_requests_total", "dltkit_decode_bytes_total"} {
		if !strings.Contains(rr.Body.String(), name) {
			t.Fatalf("metrics output missing %s", name)
		}
	}
}
