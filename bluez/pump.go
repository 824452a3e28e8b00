package bluez

import (
	"time"

	"github.com/bluetuith-org/blz/api/bluetooth"
)

// Pump performs one non-blocking dispatch pass on the session's transport.
// If nothing was dispatched, it blocks for at most budget waiting for input.
//
// Signal handlers and user callbacks run synchronously inside Pump.
// Embedders driving their own event loop may call Pump directly instead
// of relying on the blocking helpers.
func (s *Session) Pump(budget time.Duration) error {
	if s.closed {
		return errSessionClosed()
	}

	n, err := s.tr.Process()
	if err != nil {
		s.log.WithError(err).Error("Event loop process error")
		return err
	}

	if n > 0 {
		return nil
	}

	if _, err := s.tr.Wait(budget); err != nil {
		s.log.WithError(err).Error("Event loop wait error")
		return err
	}

	return nil
}

// WaitUntil pumps events until cond returns true or the timeout elapses.
// The remaining time is recomputed from the session clock on every iteration,
// and cond is evaluated before each pass.
//
// It returns WaitReady as soon as cond is observed true, and WaitTimedOut once
// the deadline has passed with cond still false. An error is returned only if
// the transport fails.
func (s *Session) WaitUntil(cond func() bool, timeout time.Duration) (bluetooth.WaitResult, error) {
	deadline := s.clock.Now().Add(timeout)

	for !cond() {
		remaining := deadline.Sub(s.clock.Now())
		if remaining <= 0 {
			return bluetooth.WaitTimedOut, nil
		}

		if err := s.Pump(remaining); err != nil {
			return bluetooth.WaitTimedOut, err
		}
	}

	return bluetooth.WaitReady, nil
}
