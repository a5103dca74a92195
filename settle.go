package numpty

import (
	"context"
	"time"
)

const (
	// settleBudgetFactor scales waitFirst+waitMore into the overall budget.
	settleBudgetFactor = 10
	// minSettleBudget is the smallest overall budget.
	minSettleBudget = 100 * time.Millisecond
	// maxPollInterval caps the sleep between timestamp checks.
	maxPollInterval = 10 * time.Millisecond
)

// Settle waits until the display has stopped changing and takes the snapshot
// the exporters read.
//
// If no output arrives within waitFirst the display is already stable.
// Otherwise it waits until waitMore has passed since the latest output chunk.
// Output that arrived since the previous Settle counts as already arrived.
// Once the child has exited and all its output has been read, the display is
// stable straight away. A child that keeps writing makes Settle fail with a
// *TimeoutError after the budget (WithSettleTimeout, or ten times
// waitFirst+waitMore, at least 100ms). Closing the session interrupts it
// with an *IOError.
func (s *Session) Settle(waitFirst, waitMore time.Duration) error {
	return s.SettleContext(context.Background(), waitFirst, waitMore)
}

// SettleContext is Settle with cancellation.
func (s *Session) SettleContext(ctx context.Context, waitFirst, waitMore time.Duration) error {
	select {
	case <-s.closed:
		return &IOError{Op: "settle", Err: ErrClosed}
	default:
	}

	start := time.Now()
	budget := s.settleBudget(waitFirst, waitMore)
	deadline := start.Add(budget)

	s.mu.RLock()
	baseline := s.settledSeq
	s.mu.RUnlock()

	seq, _ := s.out.latest()
	if seq == baseline {
		arrived, err := s.awaitFirst(ctx, baseline, start.Add(waitFirst))
		if err != nil {
			return err
		}
		if !arrived {
			s.commit()
			s.logger.Debug("settled", "elapsed", time.Since(start), "chunks", 0)
			return nil
		}
	}

	for {
		_, last := s.out.latest()
		now := time.Now()
		if s.drained() || now.Sub(last) >= waitMore {
			break
		}
		if !now.Before(deadline) {
			elapsed := now.Sub(start)
			s.logger.Debug("settle timed out", "elapsed", elapsed, "budget", budget)
			return &TimeoutError{Elapsed: elapsed, Budget: budget}
		}

		wake := last.Add(waitMore)
		if wake.After(deadline) {
			wake = deadline
		}
		if err := s.sleepUntil(ctx, wake, nil); err != nil {
			return err
		}
	}

	chunks := len(s.out.since(baseline))
	s.commit()
	s.logger.Debug("settled", "elapsed", time.Since(start), "chunks", chunks)
	return nil
}

// awaitFirst waits for a chunk newer than baseline until the deadline.
func (s *Session) awaitFirst(ctx context.Context, baseline uint64, until time.Time) (bool, error) {
	for {
		if seq, _ := s.out.latest(); seq != baseline {
			return true, nil
		}
		if s.drained() || !time.Now().Before(until) {
			return false, nil
		}
		if err := s.sleepUntil(ctx, until, s.out.arrived); err != nil {
			return false, err
		}
	}
}

// sleepUntil blocks until t, a wake signal, the reader finishing, Close or
// ctx cancellation, whichever comes first.
func (s *Session) sleepUntil(ctx context.Context, t time.Time, wake <-chan struct{}) error {
	d := time.Until(t)
	if d <= 0 {
		return nil
	}
	if wake == nil && d > maxPollInterval {
		d = maxPollInterval
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-wake:
	case <-s.readerDone:
	case <-s.closed:
		return &IOError{Op: "settle", Err: ErrClosed}
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// drained reports whether the reader has seen the end of the child's output.
func (s *Session) drained() bool {
	select {
	case <-s.readerDone:
		return true
	default:
		return false
	}
}

func (s *Session) settleBudget(waitFirst, waitMore time.Duration) time.Duration {
	if s.cfg.settleTimeout > 0 {
		return s.cfg.settleTimeout
	}
	return max(settleBudgetFactor*(waitFirst+waitMore), minSettleBudget)
}

// commit snapshots the screen as the settled state.
func (s *Session) commit() {
	seq, _ := s.out.latest()
	snap := s.screen.Snapshot()
	s.mu.Lock()
	s.snap = snap
	s.settledSeq = seq
	s.mu.Unlock()
}
