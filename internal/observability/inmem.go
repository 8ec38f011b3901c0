package observability

import "sync"

// Inmem keeps a bounded window of recent events plus running totals.
// Useful in tests and for the /healthz-adjacent debugging endpoints of a
// single-process deployment.
type Inmem struct {
	mu     sync.Mutex
	last   []any
	max    int
	totals struct {
		sessionsStarted   int
		sessionsCancelled int
		jobsEnqueued      int
		jobsDequeued      int
		swept             map[string]int
	}
}

func NewInmem(max int) *Inmem {
	m := &Inmem{max: max}
	m.totals.swept = make(map[string]int)
	return m
}

func (m *Inmem) push(v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = append(m.last, v)
	if len(m.last) > m.max {
		m.last = m.last[1:]
	}
}

func (m *Inmem) ObserveHTTP(method, route string, status int, durMs float64) {
	m.push(struct {
		Kind          string
		Method, Route string
		Status        int
		Dur           float64
	}{"http", method, route, status, durMs})
}

func (m *Inmem) ObserveIncrement(durMs float64, completed bool) {
	m.push(struct {
		Kind      string
		Dur       float64
		Completed bool
	}{"increment", durMs, completed})
}

func (m *Inmem) ObserveOrchestration(step string, durMs float64, ok bool) {
	m.push(struct {
		Kind, Step string
		Dur        float64
		OK         bool
	}{"orchestration", step, durMs, ok})
}

func (m *Inmem) IncSessionStarted() {
	m.mu.Lock()
	m.totals.sessionsStarted++
	m.mu.Unlock()
}

func (m *Inmem) IncSessionCancelled() {
	m.mu.Lock()
	m.totals.sessionsCancelled++
	m.mu.Unlock()
}

func (m *Inmem) IncJobEnqueued() {
	m.mu.Lock()
	m.totals.jobsEnqueued++
	m.mu.Unlock()
}

func (m *Inmem) IncJobDequeued() {
	m.mu.Lock()
	m.totals.jobsDequeued++
	m.mu.Unlock()
}

func (m *Inmem) IncSwept(kind string, n int) {
	m.mu.Lock()
	m.totals.swept[kind] += n
	m.mu.Unlock()
}

// SweptTotal reports how many entries of the given kind have aged out.
func (m *Inmem) SweptTotal(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals.swept[kind]
}

// Recent returns a copy of the bounded event window.
func (m *Inmem) Recent() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]any(nil), m.last...)
}
