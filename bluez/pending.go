package bluez

import "github.com/godbus/dbus/v5"

// PendingCall tracks the completion of a single asynchronous remote call.
type PendingCall struct {
	done  bool
	reply []any
	err   error
}

// startCall sends an asynchronous call whose completion is recorded
// in the returned PendingCall once dispatched by the event pump.
func startCall(tr Transport, path dbus.ObjectPath, method string, args ...any) (*PendingCall, error) {
	pc := &PendingCall{}
	if err := tr.CallAsync(path, method, pc.complete, args...); err != nil {
		return nil, err
	}

	return pc, nil
}

func (p *PendingCall) complete(body []any, err error) {
	p.reply = body
	p.err = err
	p.done = true
}

// Done reports whether the call has completed.
func (p *PendingCall) Done() bool {
	return p.done
}

// Result returns the reply body or the error of a completed call.
func (p *PendingCall) Result() ([]any, error) {
	return p.reply, p.err
}
