package bluetooth

// ScanHandler is invoked for every device found in the daemon's object tree
// or announced during discovery. It runs synchronously within event dispatch,
// and must not block.
type ScanHandler func(device DeviceData)

// DisconnectHandler is invoked when a ready device reports that it was disconnected
// by the remote side or the daemon.
type DisconnectHandler func(address MacAddress)

// NotifyHandler is invoked with the new value of a characteristic whenever
// a notification or indication is received. The value slice is owned by the
// handler. It runs synchronously within event dispatch, and must not drive
// the event pump of the same session.
type NotifyHandler func(value []byte)

// WaitResult describes the outcome of a bounded wait.
type WaitResult int

const (
	WaitTimedOut WaitResult = iota
	WaitReady
)

// String returns the name of the wait result.
func (w WaitResult) String() string {
	if w == WaitReady {
		return "ready"
	}

	return "timed-out"
}
