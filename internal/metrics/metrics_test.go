package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestObserveDispatchExposesCounters(t *testing.T) {
	m := New()
	m.ObserveSet(0, "A", false)
	m.ObserveSet(0, "A", true)
	m.ObserveRemove("A", true)
	m.ObserveClear()
	m.ObserveDispatch(0, 1, 2)
	m.ObserveScheduleTimeout(1)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		"amcp_scheduler_set_total 2",
		"amcp_scheduler_set_replaced_total 1",
		`amcp_scheduler_remove_total{result="hit"} 1`,
		"amcp_scheduler_clear_total 1",
		`amcp_scheduler_dispatch_groups_total{channel="0"} 1`,
		`amcp_scheduler_dispatch_commands_total{channel="0"} 2`,
		`amcp_scheduler_schedule_timeouts_total{channel="1"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected metrics output to contain %q, body:\n%s", want, body)
		}
	}
}
