package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveMutation(t *testing.T) {
	m := New()

	m.ObserveMutation("createAccount", "OK")
	m.ObserveMutation("createAccount", "OK")
	m.ObserveMutation("createAccount", "KO")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.mutations.WithLabelValues("createAccount", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("createAccount", "KO")))
}

func TestObserveMutationNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveMutation("createAccount", "OK") })
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveMutation("activateAccount", "OK")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `booking_mutations_total{operation="activateAccount",result="OK"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestMiddlewareRecordsRoute(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	count, err := testutil.GatherAndCount(m.Registry(), "booking_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	metricsRec := httptest.NewRecorder()
	m.Handler().ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	out := metricsRec.Body.String()
	assert.True(t, strings.Contains(out, `route="/healthz",status="200"`), out)
	assert.True(t, strings.Contains(out, `status="404"`), out)
}
