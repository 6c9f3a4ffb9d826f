package scheduler

// Observer receives notifications of scheduler activity. internal/metrics
// implements this to feed Prometheus; tests and callers that don't care
// about telemetry get noopObserver by default.
type Observer interface {
	ObserveSet(channel int, token string, replaced bool)
	ObserveRemove(token string, found bool)
	ObserveDispatch(channel int, groups, commands int)
	ObserveScheduleTimeout(channel int)
	ObserveClear()
}

type noopObserver struct{}

func (noopObserver) ObserveSet(int, string, bool)   {}
func (noopObserver) ObserveRemove(string, bool)     {}
func (noopObserver) ObserveDispatch(int, int, int)  {}
func (noopObserver) ObserveScheduleTimeout(int)     {}
func (noopObserver) ObserveClear()                  {}
