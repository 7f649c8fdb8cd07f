package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveIngestion(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveIngestion(StatusSuccess, 2, 5)
	m.ObserveIngestion(StatusRejected, 0, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestionsTotal.WithLabelValues(StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestionsTotal.WithLabelValues(StatusRejected)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CompaniesCreated))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.EmployeesCreated))
}

func TestObserveIngestionNil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveIngestion(StatusFailed, 1, 1) })
}

func TestMiddleware(t *testing.T) {
	m := New(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/employees/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/employees/", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "/employees", "418")))
}
