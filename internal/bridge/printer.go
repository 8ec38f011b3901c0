package bridge

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// PrinterLoop feeds queued receipts to the thermal printer one command at
// a time. The microcontroller has no flow control beyond its tiny buffer,
// so every line is followed by a pause long enough for the head to catch
// up.
type PrinterLoop struct {
	link   *Link
	client *Client
	logger *zap.Logger
	poll   time.Duration

	sleep func(time.Duration)
}

func NewPrinterLoop(link *Link, client *Client, poll time.Duration, logger *zap.Logger) *PrinterLoop {
	return &PrinterLoop{
		link:   link,
		client: client,
		logger: logger,
		poll:   poll,
		sleep:  time.Sleep,
	}
}

// Run polls for print jobs until ctx is cancelled or the serial link
// dies. A link error is returned to the caller, which owns reconnection.
func (p *PrinterLoop) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			job, err := p.client.NextPrintJob(ctx)
			if err != nil {
				p.logger.Warn("print queue poll failed", zap.Error(err))
				continue
			}
			if job == nil {
				continue
			}

			p.logger.Info("printing receipt",
				zap.String("jobId", job.JobID),
				zap.String("orderKey", job.OrderKey),
				zap.Int("lines", len(job.Payload)))

			if err := p.print(job); err != nil {
				if rerr := p.client.ReportPrintFailed(ctx, job.JobID, err.Error()); rerr != nil {
					p.logger.Error("could not report print failure",
						zap.String("jobId", job.JobID), zap.Error(rerr))
				}
				return fmt.Errorf("print job %s: %w", job.JobID, err)
			}

			if err := p.client.ReportPrintComplete(ctx, job.JobID); err != nil {
				p.logger.Error("could not report print completion",
					zap.String("jobId", job.JobID), zap.Error(err))
				continue
			}
			p.logger.Info("receipt printed", zap.String("jobId", job.JobID))
		}
	}
}

func (p *PrinterLoop) print(job *PrintJob) error {
	if err := p.link.WriteCommand(CmdPrintStart); err != nil {
		return err
	}
	p.sleep(time.Second)

	for _, line := range job.Payload {
		if err := p.link.WriteCommand(PrintLineCmd(line)); err != nil {
			return err
		}
		p.sleep(lineDelay(line))
	}

	if err := p.link.WriteCommand(CmdPrintEnd); err != nil {
		return err
	}
	// Footer feed and cut take a while; do not hand the next job to the
	// printer before it finishes.
	p.sleep(3 * time.Second)
	return nil
}

func lineDelay(line string) time.Duration {
	switch {
	case len(line) > 30:
		return 400 * time.Millisecond
	case len(line) > 0:
		return 300 * time.Millisecond
	default:
		return 100 * time.Millisecond
	}
}
