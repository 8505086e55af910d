package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSync("success", 120*time.Millisecond)
	c.RecordSync("success", 80*time.Millisecond)
	c.RecordSync("Timeout", time.Second)
	c.RecordHTTPStatus(200)
	c.RecordFetchLatency(50 * time.Millisecond)
	c.SetCachedAlbums(100)

	if got := testutil.ToFloat64(c.syncs.WithLabelValues("success")); got != 2 {
		t.Errorf("success syncs = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.syncs.WithLabelValues("Timeout")); got != 1 {
		t.Errorf("timeout syncs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("200")); got != 1 {
		t.Errorf("200 responses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.cachedAlbums); got != 100 {
		t.Errorf("cached albums = %v, want 100", got)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.SetCachedAlbums(7)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "topalbums_cached_albums 7") {
		t.Errorf("metrics output missing gauge:\n%s", body)
	}
}

func TestNopSatisfiesRecorder(t *testing.T) {
	var r Recorder = Nop{}
	r.RecordSync("success", time.Second)
	r.SetCachedAlbums(1)
}
