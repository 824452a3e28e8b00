package bluez

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bluetuith-org/blz/api/errorkinds"
	"github.com/godbus/dbus/v5"
)

// Transport is a session handle to the message bus.
//
// Signal and asynchronous call handlers are only invoked from within Process,
// on the goroutine calling it. Implementations need not be safe for concurrent use.
type Transport interface {
	// Call invokes a method synchronously and returns the reply body.
	// The method name is given in "interface.member" notation.
	Call(ctx context.Context, path dbus.ObjectPath, method string, args ...any) ([]any, error)

	// CallAsync sends a method call and returns without waiting for the reply.
	// The handler is invoked from Process once the reply or an error arrives.
	CallAsync(path dbus.ObjectPath, method string, handler CallHandler, args ...any) error

	// AddMatch subscribes the handler to the signals selected by the match.
	AddMatch(m Match, handler SignalHandler) (MatchID, error)

	// RemoveMatch releases a subscription. Unknown IDs are ignored.
	RemoveMatch(id MatchID) error

	// Process performs one non-blocking dispatch pass and returns the number
	// of signals and replies dispatched.
	Process() (int, error)

	// Wait blocks until input is ready to be processed, or the timeout elapses.
	// It reports whether input is ready.
	Wait(timeout time.Duration) (bool, error)

	// Close disconnects from the bus.
	Close() error
}

// MatchID identifies a signal subscription on a Transport.
type MatchID int64

// SignalHandler handles a received signal.
type SignalHandler func(sig *dbus.Signal)

// CallHandler handles the reply body or error of an asynchronous call.
type CallHandler func(body []any, err error)

// Match selects signals. Empty fields match anything.
type Match struct {
	Path      dbus.ObjectPath
	Interface string
	Member    string
	Arg0      string
}

// Matches reports whether the signal is selected by the match.
func (m Match) Matches(sig *dbus.Signal) bool {
	if sig == nil {
		return false
	}

	if m.Path != "" && sig.Path != m.Path {
		return false
	}

	dot := strings.LastIndexByte(sig.Name, '.')
	if dot < 0 {
		return false
	}

	if m.Interface != "" && sig.Name[:dot] != m.Interface {
		return false
	}
	if m.Member != "" && sig.Name[dot+1:] != m.Member {
		return false
	}

	if m.Arg0 != "" {
		if len(sig.Body) == 0 {
			return false
		}

		arg0, ok := sig.Body[0].(string)
		if !ok || arg0 != m.Arg0 {
			return false
		}
	}

	return true
}

func (m Match) options(sender string) []dbus.MatchOption {
	opts := []dbus.MatchOption{dbus.WithMatchSender(sender)}

	if m.Path != "" {
		opts = append(opts, dbus.WithMatchObjectPath(m.Path))
	}
	if m.Interface != "" {
		opts = append(opts, dbus.WithMatchInterface(m.Interface))
	}
	if m.Member != "" {
		opts = append(opts, dbus.WithMatchMember(m.Member))
	}
	if m.Arg0 != "" {
		opts = append(opts, dbus.WithMatchArg(0, m.Arg0))
	}

	return opts
}

// subscription owns a signal match on a transport until released.
type subscription struct {
	tr Transport
	id MatchID
}

func subscribe(tr Transport, m Match, handler SignalHandler) (*subscription, error) {
	id, err := tr.AddMatch(m, handler)
	if err != nil {
		return nil, err
	}

	return &subscription{tr: tr, id: id}, nil
}

// release removes the match. It is safe to call more than once, or on nil.
func (s *subscription) release() error {
	if s == nil || s.tr == nil {
		return nil
	}

	tr := s.tr
	s.tr = nil

	return tr.RemoveMatch(s.id)
}

// remoteError converts a bus error reply into a RemoteError.
func remoteError(err error) error {
	if err == nil {
		return nil
	}

	switch e := err.(type) {
	case dbus.Error:
		return &errorkinds.RemoteError{Name: e.Name, Message: busErrorMessage(e.Body)}

	case *dbus.Error:
		return &errorkinds.RemoteError{Name: e.Name, Message: busErrorMessage(e.Body)}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errorkinds.New(errorkinds.ErrTimeout, err)
	}

	return err
}

func busErrorMessage(body []any) string {
	if len(body) == 0 {
		return ""
	}

	msg, _ := body[0].(string)
	return msg
}
