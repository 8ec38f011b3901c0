package orchestrator

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/SelwynIsLoading/kiosk-payments/internal/domain"
	"github.com/SelwynIsLoading/kiosk-payments/internal/observability"
	"github.com/SelwynIsLoading/kiosk-payments/internal/pkg/pool"
)

//go:generate mockgen -source internal/orchestrator/orchestrator.go -destination=internal/orchestrator/orchestrator_mock_test.go -package=orchestrator

// OrderStore is the external order/inventory persistence the orchestrator
// writes through. MarkPaid must be idempotent: a second call for the same
// order reports alreadyPaid instead of double-recording the payment.
type OrderStore interface {
	MarkPaid(ctx context.Context, orderKey, method string, amountPaid, change decimal.Decimal) (alreadyPaid bool, err error)
	DecrementInventory(ctx context.Context, orderKey string) ([]domain.StockShortage, error)
	ReceiptOrder(ctx context.Context, orderKey string) (*domain.ReceiptOrder, error)
}

// Notifier tells kitchen staff about a paid order. Its failure never rolls
// back or retries the payment pipeline.
type Notifier interface {
	OrderPaid(ctx context.Context, orderKey string) error
}

// Renderer produces the print payload from an order snapshot.
type Renderer interface {
	Render(o *domain.ReceiptOrder) []string
}

// PrintQueue is where finished receipts go.
type PrintQueue interface {
	Enqueue(orderKey string, lines []string) string
}

// Orchestrator is the single place where "payment satisfied" becomes
// "order fulfilled". It runs once per session, on the completion edge only.
// Failures after the payment has been recorded are logged, never bubbled up
// to the payer: the money is already in the machine.
type Orchestrator struct {
	orders   OrderStore
	queue    PrintQueue
	renderer Renderer
	notifier Notifier
	dispatch *pool.Pool
	logger   *zap.Logger
	metrics  observability.Metrics

	// notifyTimeout bounds the fire-and-forget kitchen dispatch.
	notifyTimeout time.Duration
}

func New(
	orders OrderStore,
	queue PrintQueue,
	renderer Renderer,
	notifier Notifier,
	logger *zap.Logger,
	metrics observability.Metrics,
) *Orchestrator {
	if metrics == nil {
		metrics = observability.NewNoop()
	}
	return &Orchestrator{
		orders:        orders,
		queue:         queue,
		renderer:      renderer,
		notifier:      notifier,
		dispatch:      pool.New(2),
		logger:        logger,
		metrics:       metrics,
		notifyTimeout: 10 * time.Second,
	}
}

// Close drains the notification dispatch pool.
func (o *Orchestrator) Close() {
	o.dispatch.Close()
	o.dispatch.Wait()
}

// CompleteCash fulfills an order whose cash session just crossed the
// threshold. Callers must invoke it off the justCompleted edge, exactly
// once, and never while holding a store lock.
func (o *Orchestrator) CompleteCash(ctx context.Context, snap domain.SessionSnapshot) {
	o.run(ctx, snap.OrderKey, "Cash", snap.AmountInserted, snap.Change())
}

// CompleteDigital fulfills an order paid through the payment gateway
// (e-wallet, card). The same receipt and kitchen pipeline applies; there is
// no change to give back.
func (o *Orchestrator) CompleteDigital(ctx context.Context, orderKey, method string, amountPaid decimal.Decimal) {
	o.run(ctx, orderKey, method, amountPaid, decimal.Zero)
}

func (o *Orchestrator) run(ctx context.Context, orderKey, method string, amountPaid, change decimal.Decimal) {
	log := o.logger.With(zap.String("order_key", orderKey), zap.String("method", method))

	// Step 1: record the payment. If this fails the pipeline still carries
	// on: the cash is physically in the machine and the customer deserves
	// a receipt; the discrepancy becomes an operational incident.
	t0 := time.Now()
	alreadyPaid, err := o.orders.MarkPaid(ctx, orderKey, method, amountPaid, change)
	o.metrics.ObserveOrchestration("mark_paid", msSince(t0), err == nil)
	switch {
	case err != nil:
		log.Error("failed to mark order paid", zap.Error(err))
	case alreadyPaid:
		log.Warn("order already marked paid, skipping fulfillment")
		return
	default:
		log.Info("order marked paid",
			zap.String("amount_paid", amountPaid.String()),
			zap.String("change", change.String()),
		)
	}

	// Step 2: decrement stock. Shortages clamp at zero and are warnings,
	// not errors; the sale already happened physically.
	t0 = time.Now()
	shortages, err := o.orders.DecrementInventory(ctx, orderKey)
	o.metrics.ObserveOrchestration("decrement_inventory", msSince(t0), err == nil)
	if err != nil {
		log.Error("failed to decrement inventory", zap.Error(err))
	}
	for _, sh := range shortages {
		log.Warn("insufficient stock clamped to zero",
			zap.String("product", sh.ProductName),
			zap.Int("requested", sh.Requested),
			zap.Int("on_hand", sh.OnHand),
		)
	}

	// Step 3: render and queue the receipt.
	t0 = time.Now()
	order, err := o.orders.ReceiptOrder(ctx, orderKey)
	if err != nil {
		o.metrics.ObserveOrchestration("enqueue_receipt", msSince(t0), false)
		log.Error("failed to load order for receipt, no print job queued", zap.Error(err))
	} else {
		order.PaymentMethod = method
		order.AmountPaid = amountPaid
		order.Change = change
		jobID := o.queue.Enqueue(orderKey, o.renderer.Render(order))
		o.metrics.ObserveOrchestration("enqueue_receipt", msSince(t0), true)
		o.metrics.IncJobEnqueued()
		log.Info("receipt queued", zap.String("job_id", jobID))
	}

	// Step 4: kitchen notification, fire-and-forget through the dispatch
	// pool so a slow broker never blocks the caller.
	o.dispatch.Submit(func() {
		nctx, cancel := context.WithTimeout(context.Background(), o.notifyTimeout)
		defer cancel()

		t0 := time.Now()
		err := o.notifier.OrderPaid(nctx, orderKey)
		o.metrics.ObserveOrchestration("notify_kitchen", msSince(t0), err == nil)
		if err != nil {
			log.Error("kitchen notification failed", zap.Error(err))
			return
		}
		log.Info("kitchen notified")
	})
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
