package obs

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newRouter(wrap mux.MiddlewareFunc) *mux.Router {
	r := mux.NewRouter()
	r.Use(wrap)
	r.HandleFunc("/user/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}).Methods(http.MethodGet)
	return r
}

func TestInstrumentUsesRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	r := newRouter(m.Instrument)

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/user/"+id, nil))
		if rec.Code != http.StatusTeapot {
			t.Fatalf("expected 418, got %d", rec.Code)
		}
	}

	got := testutil.ToFloat64(m.total.WithLabelValues(http.MethodGet, "/user/{id}", "418"))
	if got != 3 {
		t.Fatalf("expected 3 requests under the template label, got %v", got)
	}
	if n := testutil.CollectAndCount(m.total); n != 1 {
		t.Fatalf("expected one label set, got %d", n)
	}
}

func TestRequestLogWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	r := newRouter(RequestLog)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/user/secret-id?token=abc", nil))

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %q", line)
	}
	if entry["path"] != "/user/{id}" || entry["status"] != float64(http.StatusTeapot) {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if strings.Contains(line, "abc") || strings.Contains(line, "secret-id") {
		t.Fatalf("log leaked request details: %s", line)
	}
}

func TestBuildInfo(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterBuildInfo(reg, "v1.2.3", "abc123")
	n, err := testutil.GatherAndCount(reg, "build_info")
	if err != nil || n != 1 {
		t.Fatalf("expected one build_info series, got %d (%v)", n, err)
	}
}
