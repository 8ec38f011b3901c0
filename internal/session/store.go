package session

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/SelwynIsLoading/kiosk-payments/internal/domain"
)

// Store tracks accumulation of physical cash against a required amount.
// All state is process-lifetime only; terminal entries are removed by the
// sweeper after a grace window, and a bounded archive keeps snapshots of
// swept sessions for operational lookups.
//
// A single mutex guards the live map. No external call is ever made while
// it is held.
type Store struct {
	mu       sync.Mutex
	logger   *zap.Logger
	sessions map[string]*cashSession
	archive  *lru.Cache[string, domain.SessionSnapshot]
}

type cashSession struct {
	orderKey       string
	totalRequired  decimal.Decimal
	amountInserted decimal.Decimal
	status         domain.SessionStatus
	startedAt      time.Time
	lastUpdateAt   time.Time
	completedAt    *time.Time
}

func (c *cashSession) snapshot() domain.SessionSnapshot {
	var completedAt *time.Time
	if c.completedAt != nil {
		t := *c.completedAt
		completedAt = &t
	}
	return domain.SessionSnapshot{
		OrderKey:       c.orderKey,
		TotalRequired:  c.totalRequired,
		AmountInserted: c.amountInserted,
		Status:         c.status,
		StartedAt:      c.startedAt,
		LastUpdateAt:   c.lastUpdateAt,
		CompletedAt:    completedAt,
	}
}

// IncrementResult carries the post-increment snapshot plus the
// threshold-crossing flag. JustCompleted is true for exactly one increment
// per session: the one whose critical section observed the crossing.
type IncrementResult struct {
	Snapshot      domain.SessionSnapshot
	JustCompleted bool
}

func New(archiveCap int, logger *zap.Logger) (*Store, error) {
	archive, err := lru.New[string, domain.SessionSnapshot](archiveCap)
	if err != nil {
		return nil, fmt.Errorf("session archive: %w", err)
	}
	return &Store{
		logger:   logger,
		sessions: make(map[string]*cashSession),
		archive:  archive,
	}, nil
}

// Initialize creates an Active session for orderKey. It fails with
// domain.ErrAlreadyExists if any session, including a terminal one that has
// not been swept yet, is present under the same key.
func (s *Store) Initialize(orderKey string, totalRequired decimal.Decimal) (domain.SessionSnapshot, error) {
	if orderKey == "" {
		return domain.SessionSnapshot{}, fmt.Errorf("%w: empty order key", domain.ErrInvalidArgument)
	}
	if !totalRequired.IsPositive() {
		return domain.SessionSnapshot{}, fmt.Errorf("%w: total required must be positive", domain.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[orderKey]; ok {
		return domain.SessionSnapshot{}, domain.ErrAlreadyExists
	}

	now := time.Now().UTC()
	c := &cashSession{
		orderKey:       orderKey,
		totalRequired:  totalRequired,
		amountInserted: decimal.Zero,
		status:         domain.SessionActive,
		startedAt:      now,
		lastUpdateAt:   now,
	}
	s.sessions[orderKey] = c

	s.logger.Info("cash session started",
		zap.String("order_key", orderKey),
		zap.String("total_required", totalRequired.String()),
	)
	return c.snapshot(), nil
}

// ApplyIncrement adds amount to the session's inserted total and, in the
// same critical section, tests the threshold. The increment, the check and
// the Completed transition happen under one lock acquisition so that
// concurrent increments landing near the threshold produce the completion
// flag exactly once.
func (s *Store) ApplyIncrement(orderKey string, amount decimal.Decimal) (IncrementResult, error) {
	if !amount.IsPositive() {
		return IncrementResult{}, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.sessions[orderKey]
	if !ok {
		return IncrementResult{}, domain.ErrNotFound
	}
	if c.status != domain.SessionActive {
		// A racing hardware report after completion must be rejected, not
		// silently accepted, or the amount would be double-counted.
		return IncrementResult{}, domain.ErrSessionClosed
	}

	c.amountInserted = c.amountInserted.Add(amount)
	c.lastUpdateAt = time.Now().UTC()

	justCompleted := false
	if c.amountInserted.GreaterThanOrEqual(c.totalRequired) {
		c.status = domain.SessionCompleted
		t := c.lastUpdateAt
		c.completedAt = &t
		justCompleted = true
		s.logger.Info("cash session completed",
			zap.String("order_key", orderKey),
			zap.String("amount_inserted", c.amountInserted.String()),
			zap.String("change", c.snapshot().Change().String()),
		)
	}

	return IncrementResult{Snapshot: c.snapshot(), JustCompleted: justCompleted}, nil
}

// GetStatus returns a snapshot of the live session. Swept sessions are
// gone from the live map; their final state is only reachable through
// History.
func (s *Store) GetStatus(orderKey string) (domain.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.sessions[orderKey]
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrNotFound
	}
	return c.snapshot(), nil
}

// ListActive returns snapshots of all Active sessions. The hardware bridge
// uses this to discover work without being told which order to service.
func (s *Store) ListActive() []domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.SessionSnapshot, 0, len(s.sessions))
	for _, c := range s.sessions {
		if c.status == domain.SessionActive {
			out = append(out, c.snapshot())
		}
	}
	return out
}

// Cancel transitions an Active session to Cancelled and returns the amount
// inserted so far, so it can be physically handed back to the customer.
// A cancel racing a threshold-crossing increment serializes on the store
// mutex: the first transition wins, the loser sees ErrSessionClosed.
func (s *Store) Cancel(orderKey string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.sessions[orderKey]
	if !ok {
		return decimal.Zero, domain.ErrNotFound
	}
	if c.status != domain.SessionActive {
		return decimal.Zero, domain.ErrSessionClosed
	}

	now := time.Now().UTC()
	c.status = domain.SessionCancelled
	c.lastUpdateAt = now
	c.completedAt = &now

	s.logger.Info("cash session cancelled",
		zap.String("order_key", orderKey),
		zap.String("amount_returned", c.amountInserted.String()),
	)
	return c.amountInserted, nil
}

// SweepTerminal removes terminal sessions whose terminal transition happened
// before cutoff, archiving their final snapshots. Active sessions never age
// out. Returns the number of sessions removed.
func (s *Store) SweepTerminal(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, c := range s.sessions {
		if !c.status.Terminal() || c.completedAt == nil || !c.completedAt.Before(cutoff) {
			continue
		}
		s.archive.Add(key, c.snapshot())
		delete(s.sessions, key)
		removed++
	}
	if removed > 0 {
		s.logger.Debug("swept terminal sessions", zap.Int("removed", removed))
	}
	return removed
}

// History looks up the archived snapshot of a swept terminal session.
func (s *Store) History(orderKey string) (domain.SessionSnapshot, bool) {
	return s.archive.Get(orderKey)
}
