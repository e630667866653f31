package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"clinic-queue.com/clinic-queue/internal/constants"
)

func TestMetrics_HandlerExposesCounters(t *testing.T) {
	m := New()
	m.TokenCreated(true)
	m.Advanced(false)
	m.NumberConflict()
	m.StatusUpdated(constants.StatusSkipped)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`clinic_queue_tokens_created_total{vip="true"} 1`,
		`clinic_queue_advances_total{result="empty"} 1`,
		`clinic_queue_token_number_conflicts_total 1`,
		`clinic_queue_status_updates_total{status="skipped"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected metrics output to contain %q", want)
		}
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.TokenCreated(false)
	m.Advanced(true)
	m.NumberConflict()
	m.StatusUpdated(constants.StatusWaiting)
}
