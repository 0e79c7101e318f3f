package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAssistant_Counters(t *testing.T) {
	m := NewAssistant()
	m.ObserveTool("add_deadline", "succeeded")
	m.ObserveTool("add_deadline", "succeeded")
	m.ObserveTool("add_deadline", "parse_failed")
	m.ObserveModelCall("first", "ok")
	m.ObserveRequest("case", "ok", 1.2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.toolInvocations.WithLabelValues("add_deadline", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolInvocations.WithLabelValues("add_deadline", "parse_failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("case", "ok")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "assistant_model_calls_total"))
	assert.True(t, strings.Contains(body, "assistant_request_duration_seconds_bucket"))
}

func TestAssistant_NilIsNoop(t *testing.T) {
	var m *Assistant
	assert.NotPanics(t, func() {
		m.ObserveTool("x", "y")
		m.ObserveModelCall("first", "ok")
		m.ObserveRequest("case", "ok", 0)
	})
}
