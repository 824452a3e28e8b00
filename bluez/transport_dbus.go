package bluez

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bluetuith-org/blz/api/errorkinds"
	"github.com/godbus/dbus/v5"
	"github.com/puzpuzpuz/xsync/v3"
)

// queueSize is the buffer size of the signal and reply queues.
const queueSize = 64

// BusTransport is a Transport over a private system bus connection.
//
// The connection's reader goroutine only queues incoming signals and replies.
// They are dispatched to handlers by Process, on the caller's goroutine.
type BusTransport struct {
	conn *dbus.Conn
	dest string

	signals chan *dbus.Signal
	replies chan *dbus.Call
	backlog []any

	id      *xsync.Counter
	matches *xsync.MapOf[MatchID, matchEntry]
	pending *xsync.MapOf[*dbus.Call, CallHandler]

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

type matchEntry struct {
	match   Match
	handler SignalHandler
}

// Dial connects to the system bus. All calls and matches address the
// given destination, usually BusName.
func Dial(dest string) (*BusTransport, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &BusTransport{
		conn:    conn,
		dest:    dest,
		signals: make(chan *dbus.Signal, queueSize),
		replies: make(chan *dbus.Call, queueSize),
		id:      xsync.NewCounter(),
		matches: xsync.NewMapOf[MatchID, matchEntry](),
		pending: xsync.NewMapOf[*dbus.Call, CallHandler](),
		ctx:     ctx,
		cancel:  cancel,
	}
	conn.Signal(b.signals)

	return b, nil
}

// Call invokes a method synchronously and returns the reply body.
func (b *BusTransport) Call(ctx context.Context, path dbus.ObjectPath, method string, args ...any) ([]any, error) {
	if b.closed.Load() {
		return nil, errorkinds.ErrSessionNotExist
	}

	call := b.conn.Object(b.dest, path).CallWithContext(ctx, method, 0, args...)
	if call.Err != nil {
		return nil, remoteError(call.Err)
	}

	return call.Body, nil
}

// CallAsync sends a method call, and queues its reply for dispatch by Process.
func (b *BusTransport) CallAsync(path dbus.ObjectPath, method string, handler CallHandler, args ...any) error {
	if b.closed.Load() {
		return errorkinds.ErrSessionNotExist
	}

	call := b.conn.Object(b.dest, path).GoWithContext(b.ctx, method, 0, b.replies, args...)
	b.pending.Store(call, handler)

	return nil
}

// AddMatch adds a match rule on the bus and registers the handler.
func (b *BusTransport) AddMatch(m Match, handler SignalHandler) (MatchID, error) {
	if b.closed.Load() {
		return 0, errorkinds.ErrSessionNotExist
	}

	if err := b.conn.AddMatchSignal(m.options(b.dest)...); err != nil {
		return 0, remoteError(err)
	}

	b.id.Inc()
	id := MatchID(b.id.Value())
	b.matches.Store(id, matchEntry{m, handler})

	return id, nil
}

// RemoveMatch unregisters the handler and removes its match rule from the bus.
func (b *BusTransport) RemoveMatch(id MatchID) error {
	entry, ok := b.matches.LoadAndDelete(id)
	if !ok || b.closed.Load() {
		return nil
	}

	return remoteError(b.conn.RemoveMatchSignal(entry.match.options(b.dest)...))
}

// Process dispatches everything that was queued before the call.
// Items arriving during the pass are left for the next one.
func (b *BusTransport) Process() (int, error) {
	if b.closed.Load() {
		return 0, errorkinds.ErrSessionNotExist
	}

	backlog := b.backlog
	b.backlog = nil

	count := 0
	for _, item := range backlog {
		b.dispatch(item)
		count++
	}

	for budget := len(b.signals) + len(b.replies); budget > 0; budget-- {
		if b.closed.Load() {
			break
		}

		select {
		case sig, ok := <-b.signals:
			if !ok {
				return count, errorkinds.ErrSessionNotExist
			}
			b.dispatch(sig)

		case call := <-b.replies:
			b.dispatch(call)

		default:
			return count, nil
		}

		count++
	}

	return count, nil
}

// Wait blocks until a signal or a reply is queued, or the timeout elapses.
// The received item is kept for the next Process call.
func (b *BusTransport) Wait(timeout time.Duration) (bool, error) {
	if b.closed.Load() {
		return false, errorkinds.ErrSessionNotExist
	}

	if len(b.backlog) > 0 || len(b.signals) > 0 || len(b.replies) > 0 {
		return true, nil
	}

	if timeout <= 0 {
		return false, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case sig, ok := <-b.signals:
		if !ok {
			return false, errorkinds.ErrSessionNotExist
		}
		b.backlog = append(b.backlog, sig)

	case call := <-b.replies:
		b.backlog = append(b.backlog, call)

	case <-b.ctx.Done():
		return false, errorkinds.ErrSessionNotExist

	case <-timer.C:
		return false, nil
	}

	return true, nil
}

// Close disconnects from the bus. Outstanding asynchronous calls are abandoned.
func (b *BusTransport) Close() error {
	if b.closed.Swap(true) {
		return nil
	}

	b.cancel()
	b.conn.RemoveSignal(b.signals)
	b.matches.Clear()
	b.pending.Clear()

	return b.conn.Close()
}

func (b *BusTransport) dispatch(item any) {
	switch v := item.(type) {
	case *dbus.Signal:
		b.matches.Range(func(id MatchID, entry matchEntry) bool {
			// A handler may release other matches while the signal is dispatched.
			if _, ok := b.matches.Load(id); ok && entry.match.Matches(v) {
				entry.handler(v)
			}

			return !b.closed.Load()
		})

	case *dbus.Call:
		handler, ok := b.pending.LoadAndDelete(v)
		if ok {
			handler(v.Body, remoteError(v.Err))
		}
	}
}
