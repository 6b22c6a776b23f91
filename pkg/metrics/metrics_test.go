package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAdvisory(t *testing.T) {
	m := New()

	m.ObserveAdvisory("answered", time.Now())
	m.ObserveAdvisory("answered", time.Now())
	m.ObserveAdvisory("no_search_tool", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Advisories.WithLabelValues("answered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Advisories.WithLabelValues("no_search_tool")))
}

func TestObserveConstruction(t *testing.T) {
	m := New()

	m.ObserveConstruction("llm", nil)
	m.ObserveConstruction("tools", errors.New("missing key"))
	m.ObserveSearchFailure()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Constructions.WithLabelValues("llm", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Constructions.WithLabelValues("tools", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchFailures))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAdvisory("answered", time.Now())
		m.ObserveSearchFailure()
		m.ObserveConstruction("agent", nil)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveAdvisory("answered", time.Now())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `krishimitra_advisories_total{status="answered"} 1`)
}
