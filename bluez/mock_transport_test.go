package bluez

import (
	"context"
	"io"
	"slices"
	"sort"
	"time"

	"github.com/bluetuith-org/blz/api/errorkinds"
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

// fakeClock is a virtual clock advanced only by the mock transport.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

type callRecord struct {
	path   dbus.ObjectPath
	method string
	args   []any
	async  bool
}

type scheduledEvent struct {
	at   time.Time
	seq  int
	fire func()
}

type methodHandler func(path dbus.ObjectPath, args []any) ([]any, error)

// mockTransport is a scripted, single-threaded Transport. Time only passes
// inside Wait, which jumps the clock to the next scheduled event or to the
// end of the timeout.
type mockTransport struct {
	clock *fakeClock

	objects  ManagedObjects
	handlers map[string]methodHandler
	delays   map[string]time.Duration

	calls   []callRecord
	matches map[MatchID]matchEntry
	nextID  MatchID
	removed []MatchID

	queue    []scheduledEvent
	seq      int
	processN int
	waits    []time.Duration
	closed   bool
}

func newMockTransport(clock *fakeClock) *mockTransport {
	m := &mockTransport{
		clock:    clock,
		objects:  ManagedObjects{},
		handlers: map[string]methodHandler{},
		delays:   map[string]time.Duration{},
		matches:  map[MatchID]matchEntry{},
	}

	m.handle(getManagedObjects, func(dbus.ObjectPath, []any) ([]any, error) {
		return []any{m.snapshot()}, nil
	})
	m.handle(propertiesIface+".Get", m.getProperty)
	m.handle(propertiesIface+".Set", m.setProperty)

	return m
}

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return logger
}

func unknownObject(path dbus.ObjectPath) error {
	return remoteError(dbus.Error{Name: errUnknownObject, Body: []any{"Method \"Get\" with signature \"ss\" on interface \"org.freedesktop.DBus.Properties\" doesn't exist: " + string(path)}})
}

func bluezFailed(msg string) error {
	return remoteError(dbus.Error{Name: "org.bluez.Error.Failed", Body: []any{msg}})
}

// addObject adds or extends an object with an interface and its properties.
func (m *mockTransport) addObject(path dbus.ObjectPath, iface string, props map[string]any) {
	if m.objects[path] == nil {
		m.objects[path] = map[string]map[string]dbus.Variant{}
	}

	vprops := make(map[string]dbus.Variant, len(props))
	for name, value := range props {
		vprops[name] = dbus.MakeVariant(value)
	}
	m.objects[path][iface] = vprops
}

func (m *mockTransport) snapshot() ManagedObjects {
	objects := make(ManagedObjects, len(m.objects))
	for path, ifaces := range m.objects {
		objects[path] = ifaces
	}

	return objects
}

func (m *mockTransport) getProperty(path dbus.ObjectPath, args []any) ([]any, error) {
	iface, name := args[0].(string), args[1].(string)

	ifaces, ok := m.objects[path]
	if !ok {
		return nil, unknownObject(path)
	}

	value, ok := ifaces[iface][name]
	if !ok {
		return nil, remoteError(dbus.Error{Name: "org.freedesktop.DBus.Error.InvalidArgs", Body: []any{"No such property " + name}})
	}

	return []any{value}, nil
}

func (m *mockTransport) setProperty(path dbus.ObjectPath, args []any) ([]any, error) {
	iface, name, value := args[0].(string), args[1].(string), args[2].(dbus.Variant)

	ifaces, ok := m.objects[path]
	if !ok {
		return nil, unknownObject(path)
	}
	if ifaces[iface] == nil {
		ifaces[iface] = map[string]dbus.Variant{}
	}
	ifaces[iface][name] = value

	return nil, nil
}

// handle scripts the reply of a method.
func (m *mockTransport) handle(method string, h methodHandler) {
	m.handlers[method] = h
}

// delay sets the time an asynchronous call of the method takes to complete.
func (m *mockTransport) delay(method string, d time.Duration) {
	m.delays[method] = d
}

// after schedules fn to run from Process once d has elapsed.
func (m *mockTransport) after(d time.Duration, fn func()) {
	m.seq++
	m.queue = append(m.queue, scheduledEvent{at: m.clock.now.Add(d), seq: m.seq, fire: fn})
}

// emit schedules the delivery of a signal to matching handlers.
func (m *mockTransport) emit(d time.Duration, sig *dbus.Signal) {
	m.after(d, func() {
		ids := make([]MatchID, 0, len(m.matches))
		for id := range m.matches {
			ids = append(ids, id)
		}
		slices.Sort(ids)

		for _, id := range ids {
			entry, ok := m.matches[id]
			if ok && entry.match.Matches(sig) {
				entry.handler(sig)
			}
		}
	})
}

func (m *mockTransport) callsOf(method string) []callRecord {
	var calls []callRecord
	for _, c := range m.calls {
		if c.method == method {
			calls = append(calls, c)
		}
	}

	return calls
}

func (m *mockTransport) methods() []string {
	methods := make([]string, len(m.calls))
	for i, c := range m.calls {
		methods[i] = c.method
	}

	return methods
}

func (m *mockTransport) invoke(path dbus.ObjectPath, method string, args []any) ([]any, error) {
	if h, ok := m.handlers[method]; ok {
		return h(path, args)
	}

	return nil, nil
}

func (m *mockTransport) Call(_ context.Context, path dbus.ObjectPath, method string, args ...any) ([]any, error) {
	m.calls = append(m.calls, callRecord{path: path, method: method, args: args})
	if m.closed {
		return nil, errorkinds.ErrSessionNotExist
	}

	return m.invoke(path, method, args)
}

func (m *mockTransport) CallAsync(path dbus.ObjectPath, method string, handler CallHandler, args ...any) error {
	m.calls = append(m.calls, callRecord{path: path, method: method, args: args, async: true})
	if m.closed {
		return errorkinds.ErrSessionNotExist
	}

	m.after(m.delays[method], func() {
		handler(m.invoke(path, method, args))
	})

	return nil
}

func (m *mockTransport) AddMatch(match Match, handler SignalHandler) (MatchID, error) {
	if m.closed {
		return 0, errorkinds.ErrSessionNotExist
	}

	m.nextID++
	m.matches[m.nextID] = matchEntry{match, handler}

	return m.nextID, nil
}

func (m *mockTransport) RemoveMatch(id MatchID) error {
	if _, ok := m.matches[id]; ok {
		delete(m.matches, id)
		m.removed = append(m.removed, id)
	}

	return nil
}

func (m *mockTransport) Process() (int, error) {
	if m.closed {
		return 0, errorkinds.ErrSessionNotExist
	}
	m.processN++

	sort.SliceStable(m.queue, func(i, j int) bool {
		if m.queue[i].at.Equal(m.queue[j].at) {
			return m.queue[i].seq < m.queue[j].seq
		}

		return m.queue[i].at.Before(m.queue[j].at)
	})

	var due, rest []scheduledEvent
	for _, ev := range m.queue {
		if !ev.at.After(m.clock.now) {
			due = append(due, ev)
		} else {
			rest = append(rest, ev)
		}
	}
	m.queue = rest

	for _, ev := range due {
		ev.fire()
	}

	return len(due), nil
}

func (m *mockTransport) Wait(timeout time.Duration) (bool, error) {
	if m.closed {
		return false, errorkinds.ErrSessionNotExist
	}
	m.waits = append(m.waits, timeout)

	deadline := m.clock.now.Add(timeout)
	next := time.Time{}
	for _, ev := range m.queue {
		if next.IsZero() || ev.at.Before(next) {
			next = ev.at
		}
	}

	if !next.IsZero() && !next.After(deadline) {
		if next.After(m.clock.now) {
			m.clock.now = next
		}

		return true, nil
	}

	if timeout > 0 {
		m.clock.now = deadline
	}

	return false, nil
}

func (m *mockTransport) Close() error {
	m.closed = true
	return nil
}

func propertiesChangedSignal(path dbus.ObjectPath, iface string, changed map[string]any) *dbus.Signal {
	props := make(map[string]dbus.Variant, len(changed))
	for name, value := range changed {
		props[name] = dbus.MakeVariant(value)
	}

	return &dbus.Signal{
		Sender: ":1.7",
		Path:   path,
		Name:   propertiesIface + "." + propertiesChanged,
		Body:   []any{iface, props, []string{}},
	}
}

func interfacesAddedSignal(path dbus.ObjectPath, iface string, props map[string]any) *dbus.Signal {
	vprops := make(map[string]dbus.Variant, len(props))
	for name, value := range props {
		vprops[name] = dbus.MakeVariant(value)
	}

	return &dbus.Signal{
		Sender: ":1.7",
		Path:   rootPath,
		Name:   objectManagerIface + "." + interfacesAdded,
		Body:   []any{path, map[string]map[string]dbus.Variant{iface: vprops}},
	}
}
