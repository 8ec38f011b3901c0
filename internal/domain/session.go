package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// Terminal reports whether no further transition is permitted.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// SessionSnapshot is a read-only copy of one cash payment session, safe to
// hand out after the store's lock has been released.
type SessionSnapshot struct {
	OrderKey       string
	TotalRequired  decimal.Decimal
	AmountInserted decimal.Decimal
	Status         SessionStatus
	StartedAt      time.Time
	LastUpdateAt   time.Time
	CompletedAt    *time.Time
}

// Remaining is the amount still owed by the customer, clamped at zero.
func (s SessionSnapshot) Remaining() decimal.Decimal {
	r := s.TotalRequired.Sub(s.AmountInserted)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// Change is the overpayment owed back to the customer, clamped at zero.
func (s SessionSnapshot) Change() decimal.Decimal {
	c := s.AmountInserted.Sub(s.TotalRequired)
	if c.IsNegative() {
		return decimal.Zero
	}
	return c
}
