package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SelwynIsLoading/kiosk-payments/internal/domain"
	"github.com/SelwynIsLoading/kiosk-payments/internal/observability"
	"github.com/SelwynIsLoading/kiosk-payments/internal/printqueue"
	"github.com/SelwynIsLoading/kiosk-payments/internal/session"
)

func fixtures(t *testing.T) (*session.Store, *printqueue.Queue) {
	t.Helper()
	sessions, err := session.New(16, zap.NewNop())
	require.NoError(t, err)
	return sessions, printqueue.New(zap.NewNop())
}

func TestSweepRemovesOnlyAgedTerminalEntries(t *testing.T) {
	sessions, jobs := fixtures(t)
	metrics := observability.NewInmem(16)

	total := decimal.RequireFromString("100")
	_, err := sessions.Initialize("DONE", total)
	require.NoError(t, err)
	_, err = sessions.ApplyIncrement("DONE", total)
	require.NoError(t, err)
	_, err = sessions.Initialize("LIVE", total)
	require.NoError(t, err)

	doneJob := jobs.Enqueue("DONE", []string{"x"})
	pendingJob := jobs.Enqueue("LIVE", []string{"x"})
	_, ok := jobs.DequeueNext()
	require.True(t, ok)
	require.NoError(t, jobs.MarkCompleted(doneJob))

	s := New(sessions, jobs, time.Second, time.Minute, time.Hour, 3, zap.NewNop(), metrics)

	// Within the grace window nothing is removed.
	s.Sweep(time.Now().UTC())
	_, err = sessions.GetStatus("DONE")
	require.NoError(t, err)
	_, err = jobs.GetStatus(doneJob)
	require.NoError(t, err)

	// Past the grace window only terminal entries age out.
	s.Sweep(time.Now().UTC().Add(2 * time.Minute))
	_, err = sessions.GetStatus("DONE")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = sessions.GetStatus("LIVE")
	require.NoError(t, err)
	_, err = jobs.GetStatus(doneJob)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = jobs.GetStatus(pendingJob)
	require.NoError(t, err)

	require.Equal(t, 1, metrics.SweptTotal("session"))
	require.Equal(t, 1, metrics.SweptTotal("job"))
}

func TestSweepRequeuesStalledPrinting(t *testing.T) {
	sessions, jobs := fixtures(t)
	id := jobs.Enqueue("ORD", []string{"x"})
	_, ok := jobs.DequeueNext()
	require.True(t, ok)

	s := New(sessions, jobs, time.Second, time.Hour, time.Minute, 3, zap.NewNop(), nil)

	// Job started printing just now, not stalled yet.
	s.Sweep(time.Now().UTC())
	job, err := jobs.GetStatus(id)
	require.NoError(t, err)
	require.Equal(t, domain.JobPrinting, job.Status)

	// An hour later the bridge is presumed dead; the job goes back.
	s.Sweep(time.Now().UTC().Add(time.Hour))
	job, err = jobs.GetStatus(id)
	require.NoError(t, err)
	require.Equal(t, domain.JobPending, job.Status)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	sessions, jobs := fixtures(t)
	s := New(sessions, jobs, time.Millisecond, time.Minute, time.Minute, 3, zap.NewNop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}
