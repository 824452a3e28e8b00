package bluez

import (
	"context"

	"github.com/bluetuith-org/blz/api/bluetooth"
	"github.com/bluetuith-org/blz/api/config"
	"github.com/bluetuith-org/blz/api/errorkinds"
	"github.com/bluetuith-org/blz/api/eventbus"
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

// Session is a connection to the Bluetooth daemon, bound to one adapter.
//
// A Session and the devices and characteristics obtained from it are not
// safe for concurrent use. Callers that need multi-threaded access must
// serialize all calls on a session themselves.
type Session struct {
	tr    Transport
	cfg   config.Configuration
	clock Clock
	log   *logrus.Entry

	path dbus.ObjectPath

	scan        *subscription
	scanHandler bluetooth.ScanHandler

	closed bool
}

// Option configures a Session.
type Option func(s *Session)

// WithClock sets the clock used for deadline arithmetic.
func WithClock(clock Clock) Option {
	return func(s *Session) {
		s.clock = clock
	}
}

// WithLogger sets the logger of the session.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Session) {
		s.log = logger.WithField("adapter", s.cfg.Adapter)
	}
}

// Open connects to the system bus and powers on the configured adapter.
func Open(cfg config.Configuration, opts ...Option) (*Session, error) {
	if _, err := adapterPath(cfg.Adapter); err != nil {
		return nil, err
	}

	tr, err := Dial(BusName)
	if err != nil {
		return nil, wrapError(errorkinds.ErrConnection, err, "connect-bus", "Cannot connect to the system bus")
	}

	return NewSession(tr, cfg, opts...)
}

// NewSession powers on the configured adapter over an established transport.
// The session takes ownership of the transport, and closes it if the adapter
// cannot be powered on.
func NewSession(tr Transport, cfg config.Configuration, opts ...Option) (*Session, error) {
	path, err := adapterPath(cfg.Adapter)
	if err != nil {
		tr.Close()
		return nil, err
	}

	s := &Session{
		tr:    tr,
		cfg:   cfg,
		clock: systemClock{},
		path:  path,
	}
	s.log = cfg.NewLogger().WithField("adapter", cfg.Adapter)
	for _, opt := range opts {
		opt(s)
	}

	if err := s.setProperty(path, adapterIface, "Powered", true); err != nil {
		tr.Close()

		if errorkinds.IsRemote(err, errUnknownObject) {
			s.log.Error("Adapter not known")
			return nil, wrapError(errorkinds.ErrAdapterNotFound, err, "power-on", "Adapter "+cfg.Adapter+" not known")
		}

		s.log.WithError(err).Error("Failed to power on")
		return nil, wrapError(errorkinds.ErrPowerOn, err, "power-on", "Cannot power on adapter "+cfg.Adapter)
	}

	return s, nil
}

// Close releases the scan subscription and disconnects from the bus.
// It does nothing on a nil or already closed session.
func (s *Session) Close() error {
	if s == nil || s.closed {
		return nil
	}

	s.closed = true
	s.scan.release()
	s.scan = nil
	s.scanHandler = nil

	return s.tr.Close()
}

// AdapterPath returns the object path of the session's adapter.
func (s *Session) AdapterPath() dbus.ObjectPath {
	return s.path
}

// DevicePath returns the object path of the device with the given address
// under the session's adapter.
func (s *Session) DevicePath(address bluetooth.MacAddress) dbus.ObjectPath {
	return devicePath(s.path, address)
}

// StartScan starts device discovery. The handler is invoked for every
// device announced by the daemon while discovery runs. Any previous scan
// subscription is replaced.
func (s *Session) StartScan(handler bluetooth.ScanHandler) error {
	if s.closed {
		return errSessionClosed()
	}

	s.scan.release()
	s.scanHandler = handler

	scan, err := subscribe(s.tr, Match{
		Path:      rootPath,
		Interface: objectManagerIface,
		Member:    interfacesAdded,
	}, s.onInterfacesAdded)
	if err != nil {
		s.log.WithError(err).Error("Failed to subscribe to discovery events")
		return wrapError(errorkinds.ErrRemoteCall, err, "scan-start", "Cannot subscribe to discovery events")
	}

	if _, err := s.call(s.path, adapterStartDiscovery); err != nil {
		scan.release()
		s.log.WithError(err).Error("Failed to scan")
		return wrapError(errorkinds.ErrRemoteCall, err, "scan-start", "Cannot start discovery")
	}

	s.scan = scan

	return nil
}

// StopScan stops device discovery and releases the scan subscription,
// even if the daemon fails to stop discovery.
func (s *Session) StopScan() error {
	if s.closed {
		return errSessionClosed()
	}

	_, err := s.call(s.path, adapterStopDiscovery)

	s.scan.release()
	s.scan = nil
	s.scanHandler = nil

	if err != nil {
		s.log.WithError(err).Error("Failed to stop scanning")
		return wrapError(errorkinds.ErrRemoteCall, err, "scan-stop", "Cannot stop discovery")
	}

	return nil
}

// KnownDevices invokes the handler for every device the daemon already
// knows under the session's adapter.
func (s *Session) KnownDevices(handler bluetooth.ScanHandler) error {
	objects, err := s.managedObjects()
	if err != nil {
		return err
	}

	parseObjects(objects, s.path, modeDeviceScan, &parseAccumulator{scan: handler})

	return nil
}

// Devices returns every device the daemon already knows under the session's adapter.
func (s *Session) Devices() ([]bluetooth.DeviceData, error) {
	var devices []bluetooth.DeviceData

	err := s.KnownDevices(func(device bluetooth.DeviceData) {
		devices = append(devices, device)
	})

	return devices, err
}

func (s *Session) onInterfacesAdded(sig *dbus.Signal) {
	handler := s.scanHandler
	if handler == nil {
		s.log.Error("Scan has no handler")
		return
	}

	err := parseInterfacesAdded(sig, s.path, func(device bluetooth.DeviceData) {
		eventbus.Publish(bluetooth.EventDevice, bluetooth.EventActionAdded, device)
		handler(device)
	})
	if err != nil {
		s.log.WithError(err).Warn("Malformed InterfacesAdded signal")
	}
}

// managedObjects fetches a fresh snapshot of the daemon's object tree.
func (s *Session) managedObjects() (ManagedObjects, error) {
	if s.closed {
		return nil, errSessionClosed()
	}

	body, err := s.call(rootPath, getManagedObjects)
	if err == nil {
		var objects ManagedObjects
		if err = dbus.Store(body, &objects); err == nil {
			return objects, nil
		}
	}

	s.log.WithError(err).Error("Failed to get managed objects")
	return nil, wrapError(errorkinds.ErrRemoteCall, err, "managed-objects", "Cannot get managed objects")
}

func (s *Session) call(path dbus.ObjectPath, method string, args ...any) ([]any, error) {
	if s.closed {
		return nil, errorkinds.ErrSessionNotExist
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CallTimeout)
	defer cancel()

	return s.tr.Call(ctx, path, method, args...)
}

func (s *Session) getProperty(path dbus.ObjectPath, iface, name string) (dbus.Variant, error) {
	body, err := s.call(path, propertiesIface+".Get", iface, name)
	if err != nil {
		return dbus.Variant{}, err
	}

	if len(body) == 0 {
		return dbus.Variant{}, errorkinds.ErrPropertyAccess
	}

	v, ok := body[0].(dbus.Variant)
	if !ok {
		return dbus.Variant{}, errorkinds.ErrPropertyAccess
	}

	return v, nil
}

func (s *Session) setProperty(path dbus.ObjectPath, iface, name string, value any) error {
	_, err := s.call(path, propertiesIface+".Set", iface, name, dbus.MakeVariant(value))
	return err
}

func getTypedProperty[T any](s *Session, path dbus.ObjectPath, iface, name string) (T, error) {
	var zero T

	v, err := s.getProperty(path, iface, name)
	if err != nil {
		return zero, err
	}

	value, ok := v.Value().(T)
	if !ok {
		return zero, errorkinds.ErrPropertyAccess
	}

	return value, nil
}
