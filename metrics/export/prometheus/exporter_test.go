package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	subAuth "github.com/MrEthical07/subAuth"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSource struct {
	snapshot subAuth.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() subAuth.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                     { return f.dropped }

func scrape(t *testing.T, exp *Exporter) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestEmptySnapshotExportsOnlyAuditDropped(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: subAuth.MetricsSnapshot{
			Counters:   map[subAuth.MetricID]uint64{},
			Histograms: map[subAuth.MetricID][]uint64{},
		},
	})

	if n := testutil.CollectAndCount(exp); n != 1 {
		t.Fatalf("expected only the audit drop counter, got %d series", n)
	}
}

func TestScrapeIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: subAuth.MetricsSnapshot{
			Counters: map[subAuth.MetricID]uint64{
				subAuth.MetricSignInSuccess: 7,
			},
			Histograms: map[subAuth.MetricID][]uint64{
				subAuth.MetricValidateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := scrape(t, exp)
	for _, want := range []string{
		"subauth_sign_in_success_total 7",
		`subauth_validate_latency_seconds_bucket{le="0.005"} 1`,
		`subauth_validate_latency_seconds_bucket{le="+Inf"} 36`,
		"subauth_validate_latency_seconds_count 36",
		"subauth_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestHandlerContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: subAuth.MetricsSnapshot{
			Counters:   map[subAuth.MetricID]uint64{subAuth.MetricSignInSuccess: 1},
			Histograms: map[subAuth.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus text content type, got %q", got)
	}
}

func TestRegistersWithoutCollision(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{})
	reg := exp.Registry()
	if err := reg.Register(NewPrometheusExporterFromSource(fakeSource{})); err == nil {
		t.Fatal("expected duplicate registration to be rejected")
	}
}
