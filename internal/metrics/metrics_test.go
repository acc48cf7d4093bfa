package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheus(reg)

	m.EventHandled("button", OutcomeOK, 20*time.Millisecond)
	m.EventHandled("button", OutcomeOK, 10*time.Millisecond)
	m.EventHandled("text", OutcomeInvalid, time.Millisecond)
	m.RowWritten("GASTOS", "append", nil)
	m.RowWritten("GASTOS", "append", errors.New("boom"))
	m.CacheRefreshed("taxonomy", nil)
	m.SessionsActive(3)
	m.Rejected("unauthorized")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("button", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("text", OutcomeInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.writes.WithLabelValues("GASTOS", "append", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues("taxonomy", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("unauthorized")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ledger_events_total")
}

func TestOrNop(t *testing.T) {
	assert.Equal(t, Nop{}, OrNop(nil))

	m := NewPrometheus(prometheus.NewRegistry())
	assert.Same(t, m, OrNop(m))
}
