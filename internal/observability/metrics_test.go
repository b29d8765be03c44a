package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/dhcpwire/internal/testutil/testlog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("GET", "/health", 200, 12*time.Millisecond)
	ObserveHandle("DHCPDISCOVER", false, 3*time.Millisecond)
	RecordSchemaRejection("missing message type")

	log.Debug().Msg("observability/metrics: registration idempotent and recording paths executed")
}

func TestRecordCodecPacketCounts(t *testing.T) {
	testlog.Start(t)
	before := testutil.ToFloat64(codecPackets.WithLabelValues(DirectionDecode, "WRONG_MAGIC"))
	RecordCodecPacket(DirectionDecode, "WRONG_MAGIC")
	RecordCodecPacket(DirectionDecode, "WRONG_MAGIC")
	after := testutil.ToFloat64(codecPackets.WithLabelValues(DirectionDecode, "WRONG_MAGIC"))
	if after-before != 2 {
		t.Fatalf("expected 2 increments, got %v", after-before)
	}
}

func TestRecordOptionDecodeResultLabel(t *testing.T) {
	testlog.Start(t)
	before := testutil.ToFloat64(codecOptions.WithLabelValues("server-id", ResultMalformed))
	RecordOptionDecode("server-id", false)
	after := testutil.ToFloat64(codecOptions.WithLabelValues("server-id", ResultMalformed))
	if after-before != 1 {
		t.Fatalf("expected malformed increment, got %v", after-before)
	}
}

func TestAdminRouter(t *testing.T) {
	testlog.Start(t)
	ready := false
	r := NewAdminRouter(zerolog.Nop(), func() bool { return ready }, nil)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	if w := get("/health"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected /health: %d %s", w.Code, w.Body.String())
	}
	if w := get("/ready"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before ready, got %d", w.Code)
	}
	ready = true
	if w := get("/ready"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 once ready, got %d", w.Code)
	}

	RecordCodecPacket(DirectionEncode, ResultOK)
	w := get("/metrics")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "dhcpwire_codec_packets_total") {
		t.Fatalf("metrics endpoint missing codec counter: %d", w.Code)
	}
	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, unmatchedRoute, "404"))
	if w := get("/nope"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if got := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, unmatchedRoute, "404")) - before; got != 1 {
		t.Fatalf("unmatched route not counted under one label: %v", got)
	}
}

func TestAdminRouterCORS(t *testing.T) {
	testlog.Start(t)
	r := NewAdminRouter(zerolog.Nop(), nil, []string{"http://localhost:3000"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow origin %q", got)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign origin, got %d", w.Code)
	}
}
