package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveExtraction("pdf", true, 120*time.Millisecond)
	m.ObserveExtraction("", false, time.Millisecond)
	m.Scored("Aprobado")
	m.Scored("Aprobado")
	m.ValidationFailed()
	m.Exported("excel", true)
	m.Exported("word", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.extracted.WithLabelValues("pdf", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.extracted.WithLabelValues("unknown", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.scored.WithLabelValues("Aprobado")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validationFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exports.WithLabelValues("word", "error")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.Scored("No aprobado")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `valorador_evaluations_scored_total{verdict="No aprobado"} 1`)
}
