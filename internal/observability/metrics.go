package observability

// Metrics is the sink for operational counters and timings. Orchestration
// step failures never reach the payer, so this is the only place they
// surface besides logs.
type Metrics interface {
	ObserveHTTP(method, route string, status int, durMs float64)
	ObserveIncrement(durMs float64, completed bool)
	ObserveOrchestration(step string, durMs float64, ok bool)
	IncSessionStarted()
	IncSessionCancelled()
	IncJobEnqueued()
	IncJobDequeued()
	IncSwept(kind string, n int)
}

type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) ObserveHTTP(string, string, int, float64)   {}
func (Noop) ObserveIncrement(float64, bool)             {}
func (Noop) ObserveOrchestration(string, float64, bool) {}
func (Noop) IncSessionStarted()                         {}
func (Noop) IncSessionCancelled()                       {}
func (Noop) IncJobEnqueued()                            {}
func (Noop) IncJobDequeued()                            {}
func (Noop) IncSwept(string, int)                       {}
