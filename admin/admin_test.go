package admin_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/sagarc03/mayray/admin"
	"github.com/sagarc03/mayray/server"
)

func TestRouter_Healthz(t *testing.T) {
	router := admin.Router(prometheus.NewRegistry())

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := server.NewMetrics(reg)
	metrics.Requests().WithLabelValues("Root response", "200").Inc()

	router := admin.Router(reg)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `mayray_server_requests_total{route="Root response",status="200"} 1`)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := admin.Router(prometheus.NewRegistry())

	req := httptest.NewRequest("POST", "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_NotFound(t *testing.T) {
	router := admin.Router(prometheus.NewRegistry())

	req := httptest.NewRequest("GET", "/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
