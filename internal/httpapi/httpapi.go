package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/SelwynIsLoading/kiosk-payments/internal/domain"
	"github.com/SelwynIsLoading/kiosk-payments/internal/observability"
	"github.com/SelwynIsLoading/kiosk-payments/internal/session"
)

// SessionManager is the session store surface the handlers need.
type SessionManager interface {
	Initialize(orderKey string, totalRequired decimal.Decimal) (domain.SessionSnapshot, error)
	ApplyIncrement(orderKey string, amount decimal.Decimal) (session.IncrementResult, error)
	GetStatus(orderKey string) (domain.SessionSnapshot, error)
	ListActive() []domain.SessionSnapshot
	Cancel(orderKey string) (decimal.Decimal, error)
	History(orderKey string) (domain.SessionSnapshot, bool)
}

// PrintJobs is the print queue surface consumed by the hardware bridge.
type PrintJobs interface {
	DequeueNext() (domain.PrintJob, bool)
	MarkCompleted(jobID string) error
	MarkFailed(jobID, errMsg string) error
	GetStatus(jobID string) (domain.PrintJob, error)
}

// Completer fulfills an order once its cash session completes. The server
// invokes it in a background task off the threshold-crossing update, so a
// slow order store never delays the bridge's update response.
type Completer interface {
	CompleteCash(ctx context.Context, snap domain.SessionSnapshot)
}

type Server struct {
	sessions  SessionManager
	jobs      PrintJobs
	completer Completer
	router    chi.Router
	logger    *zap.Logger
	metrics   observability.Metrics

	completeTimeout time.Duration
}

func New(sessions SessionManager, jobs PrintJobs, completer Completer, logger *zap.Logger, metrics observability.Metrics) *Server {
	if metrics == nil {
		metrics = observability.NewNoop()
	}
	s := &Server{
		sessions:        sessions,
		jobs:            jobs,
		completer:       completer,
		router:          chi.NewRouter(),
		logger:          logger,
		metrics:         metrics,
		completeTimeout: 30 * time.Second,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(RequestTiming(s.metrics))

	s.router.Route("/cash", func(r chi.Router) {
		r.Post("/init", s.initSession)
		r.Post("/update", s.updateSession)
		r.Get("/active", s.listActive)
		r.Get("/status/{orderKey}", s.sessionStatus)
		r.Post("/cancel/{orderKey}", s.cancelSession)
		r.Get("/history/{orderKey}", s.sessionHistory)
	})

	s.router.Route("/print", func(r chi.Router) {
		r.Get("/next", s.nextPrintJob)
		r.Post("/complete/{jobID}", s.completePrintJob)
		r.Post("/failed/{jobID}", s.failPrintJob)
		r.Get("/status/{jobID}", s.printJobStatus)
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

type initRequest struct {
	OrderKey      string  `json:"orderKey"`
	TotalRequired float64 `json:"totalRequired"`
}

func (s *Server) initSession(w http.ResponseWriter, r *http.Request) {
	var req initRequest
	if !s.decode(w, r, &req) {
		return
	}

	snap, err := s.sessions.Initialize(req.OrderKey, decimal.NewFromFloat(req.TotalRequired))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.IncSessionStarted()

	writeJSON(w, http.StatusCreated, map[string]any{
		"orderKey":      snap.OrderKey,
		"totalRequired": snap.TotalRequired.InexactFloat64(),
	})
}

type updateRequest struct {
	OrderKey    string  `json:"orderKey"`
	AmountAdded float64 `json:"amountAdded"`
}

func (s *Server) updateSession(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !s.decode(w, r, &req) {
		return
	}

	t0 := time.Now()
	res, err := s.sessions.ApplyIncrement(req.OrderKey, decimal.NewFromFloat(req.AmountAdded))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.ObserveIncrement(msSince(t0), res.JustCompleted)

	if res.JustCompleted {
		// Fulfillment runs detached: the bridge's update response must not
		// wait on the order store or the broker, and the increment's lock
		// has long been released.
		snap := res.Snapshot
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.completeTimeout)
			defer cancel()
			s.completer.CompleteCash(ctx, snap)
		}()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"amountInserted": res.Snapshot.AmountInserted.InexactFloat64(),
		"totalRequired":  res.Snapshot.TotalRequired.InexactFloat64(),
		"remaining":      res.Snapshot.Remaining().InexactFloat64(),
		"isComplete":     res.Snapshot.Status == domain.SessionCompleted,
	})
}

func (s *Server) listActive(w http.ResponseWriter, r *http.Request) {
	active := s.sessions.ListActive()
	sessions := make([]map[string]any, 0, len(active))
	for _, snap := range active {
		sessions = append(sessions, map[string]any{
			"orderKey":       snap.OrderKey,
			"totalRequired":  snap.TotalRequired.InexactFloat64(),
			"amountInserted": snap.AmountInserted.InexactFloat64(),
			"remaining":      snap.Remaining().InexactFloat64(),
			"startedAt":      snap.StartedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) sessionStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.sessions.GetStatus(chi.URLParam(r, "orderKey"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionStatusBody(snap))
}

func (s *Server) sessionHistory(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.sessions.History(chi.URLParam(r, "orderKey"))
	if !ok {
		s.writeError(w, domain.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sessionStatusBody(snap))
}

func sessionStatusBody(snap domain.SessionSnapshot) map[string]any {
	body := map[string]any{
		"amountInserted": snap.AmountInserted.InexactFloat64(),
		"totalRequired":  snap.TotalRequired.InexactFloat64(),
		"remaining":      snap.Remaining().InexactFloat64(),
		"change":         snap.Change().InexactFloat64(),
		"status":         snap.Status,
		"startedAt":      snap.StartedAt,
	}
	if snap.CompletedAt != nil {
		body["completedAt"] = *snap.CompletedAt
	}
	return body
}

func (s *Server) cancelSession(w http.ResponseWriter, r *http.Request) {
	returned, err := s.sessions.Cancel(chi.URLParam(r, "orderKey"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.IncSessionCancelled()
	writeJSON(w, http.StatusOK, map[string]any{
		"amountReturned": returned.InexactFloat64(),
	})
}

func (s *Server) nextPrintJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.DequeueNext()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.metrics.IncJobDequeued()
	writeJSON(w, http.StatusOK, map[string]any{
		"jobId":    job.ID,
		"orderKey": job.OrderKey,
		"payload":  job.Lines,
		"queuedAt": job.QueuedAt,
	})
}

func (s *Server) completePrintJob(w http.ResponseWriter, r *http.Request) {
	if err := s.jobs.MarkCompleted(chi.URLParam(r, "jobID")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type failRequest struct {
	Error string `json:"error"`
}

func (s *Server) failPrintJob(w http.ResponseWriter, r *http.Request) {
	var req failRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.jobs.MarkFailed(chi.URLParam(r, "jobID"), req.Error); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) printJobStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.GetStatus(chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": job.Status})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return false
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		s.logger.Error("error while decoding JSON", zap.Error(err))
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	return true
}

// writeError translates the session/queue error taxonomy to status codes.
// Orchestration failures never pass through here: the payer must not see
// them.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrSessionClosed):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("internal error", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}

func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
