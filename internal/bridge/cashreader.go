package bridge

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CashReader couples the bill/coin acceptor to the payment server. It
// polls the active-session list, picks the session the hardware is
// collecting for, and forwards every detected insertion as a cash update.
//
// The kiosk has a single acceptor, so at most one session is "current" at
// a time; when several are active the earliest listed one wins and the
// rest queue behind it.
type CashReader struct {
	link   *Link
	client *Client
	logger *zap.Logger

	poll     time.Duration
	pingEach time.Duration

	current string
	known   map[string]struct{}
}

func NewCashReader(link *Link, client *Client, poll time.Duration, logger *zap.Logger) *CashReader {
	return &CashReader{
		link:     link,
		client:   client,
		logger:   logger,
		poll:     poll,
		pingEach: 30 * time.Second,
		known:    make(map[string]struct{}),
	}
}

type serialLine struct {
	text string
	err  error
}

// Run drives the reader until ctx is cancelled or the serial link dies.
// A link error is returned to the caller, which owns reconnection.
func (r *CashReader) Run(ctx context.Context) error {
	lines := make(chan serialLine)
	go func() {
		defer close(lines)
		for {
			text, err := r.link.ReadLine()
			select {
			case lines <- serialLine{text: text, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	r.refreshSessions(ctx)

	poll := time.NewTicker(r.poll)
	defer poll.Stop()
	ping := time.NewTicker(r.pingEach)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-poll.C:
			r.refreshSessions(ctx)
		case <-ping.C:
			if err := r.link.WriteCommand(CmdPing); err != nil {
				return fmt.Errorf("serial write: %w", err)
			}
		case line := <-lines:
			if line.err != nil {
				return fmt.Errorf("serial read: %w", line.err)
			}
			r.handleLine(ctx, line.text)
		}
	}
}

func (r *CashReader) handleLine(ctx context.Context, raw string) {
	ev, err := ParseLine(raw)
	if err != nil {
		r.logger.Warn("unparseable serial line", zap.String("line", raw), zap.Error(err))
		return
	}

	switch ev.Kind {
	case EventReady:
		r.logger.Info("acceptor ready")
	case EventPong:
		r.logger.Debug("acceptor pong")
	case EventCash:
		r.forwardCash(ctx, ev)
	}
}

func (r *CashReader) forwardCash(ctx context.Context, ev Event) {
	if r.current == "" {
		r.logger.Warn("cash inserted with no active session",
			zap.String("amount", ev.Amount.String()))
		return
	}

	res, err := r.client.SendCashUpdate(ctx, r.current, ev.Amount)
	if err != nil {
		r.logger.Error("cash update rejected",
			zap.String("orderKey", r.current),
			zap.String("amount", ev.Amount.String()),
			zap.Error(err))
		// The session may have been cancelled under us; the next poll
		// re-selects.
		r.refreshSessions(ctx)
		return
	}

	r.logger.Info("cash forwarded",
		zap.String("orderKey", r.current),
		zap.String("amount", ev.Amount.String()),
		zap.Float64("inserted", res.AmountInserted),
		zap.Float64("remaining", res.Remaining))

	if res.IsComplete {
		r.logger.Info("payment complete", zap.String("orderKey", r.current))
		delete(r.known, r.current)
		r.current = ""
	}
}

func (r *CashReader) refreshSessions(ctx context.Context) {
	sessions, err := r.client.ActiveSessions(ctx)
	if err != nil {
		r.logger.Warn("active session poll failed", zap.Error(err))
		return
	}

	seen := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		seen[s.OrderKey] = struct{}{}
		if _, ok := r.known[s.OrderKey]; !ok {
			r.logger.Info("payment session appeared",
				zap.String("orderKey", s.OrderKey),
				zap.Float64("totalRequired", s.TotalRequired))
		}
	}
	for key := range r.known {
		if _, ok := seen[key]; !ok {
			r.logger.Info("payment session gone", zap.String("orderKey", key))
		}
	}
	r.known = seen

	if r.current != "" {
		if _, ok := seen[r.current]; !ok {
			r.current = ""
		}
	}
	if r.current == "" && len(sessions) > 0 {
		r.current = sessions[0].OrderKey
		r.logger.Info("collecting cash for order", zap.String("orderKey", r.current))
	}
}
