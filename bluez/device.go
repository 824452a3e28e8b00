package bluez

import (
	"github.com/bluetuith-org/blz/api/bluetooth"
	"github.com/bluetuith-org/blz/api/errorkinds"
	"github.com/bluetuith-org/blz/api/eventbus"
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

// ConnState is the connection state of a Device.
type ConnState int

const (
	StateUnknown ConnState = iota
	StateAlreadyConnected
	StateNotPresent
	StateConnecting
	StateServicesResolving
	StateReady
	StateFailed
	StateTimedOut
	StateDisconnecting
	StateDisconnected
)

var connStateNames = [...]string{
	StateUnknown:           "unknown",
	StateAlreadyConnected:  "already-connected",
	StateNotPresent:        "not-present",
	StateConnecting:        "connecting",
	StateServicesResolving: "services-resolving",
	StateReady:             "ready",
	StateFailed:            "failed",
	StateTimedOut:          "timed-out",
	StateDisconnecting:     "disconnecting",
	StateDisconnected:      "disconnected",
}

// String returns the name of the state.
func (c ConnState) String() string {
	if c < 0 || int(c) >= len(connStateNames) {
		return "invalid"
	}

	return connStateNames[c]
}

// presence is the result of probing a device object on the bus.
type presence int

const (
	presenceDisconnected presence = iota
	presenceConnected
	presenceUnknownObject
)

// Device is a connection to one remote peripheral.
type Device struct {
	session *Session
	address bluetooth.MacAddress
	path    dbus.ObjectPath
	log     *logrus.Entry

	state            ConnState
	connected        bool
	servicesResolved bool

	serviceUUIDs []string
	charUUIDs    []string

	sub          *subscription
	onDisconnect bluetooth.DisconnectHandler
	released     bool

	// chars holds every characteristic handle given out, so that their
	// notify subscriptions end with the device.
	chars []*Characteristic
}

// Connect connects to the device with the given address, and waits until its
// GATT services are resolved.
//
// A device the daemon already knows is connected with Device1.Connect.
// An unknown device is connected by address with Adapter1.ConnectDevice;
// if addressType is AddressUnknown, a public address is tried first, and a
// random address once more if that fails.
//
// The optional onDisconnect handler is invoked when the ready device is
// disconnected by the remote side or the daemon.
func (s *Session) Connect(address bluetooth.MacAddress, addressType bluetooth.AddressType, onDisconnect bluetooth.DisconnectHandler) (*Device, error) {
	if s.closed {
		return nil, errSessionClosed()
	}

	d := &Device{
		session: s,
		address: address,
		path:    devicePath(s.path, address),
	}
	d.log = s.log.WithField("device", address.String())

	p, err := d.probe()
	if err != nil {
		return nil, err
	}

	switch p {
	case presenceConnected:
		d.log.Info("Device already was connected")
		d.setState(StateAlreadyConnected)

		resolved, err := getTypedProperty[bool](s, d.path, deviceIface, "ServicesResolved")
		if err != nil {
			d.log.WithError(err).Error("Failed to get ServicesResolved")
			return nil, wrapError(errorkinds.ErrPropertyAccess, err, "connect-services-resolved", "Cannot get resolved state of services")
		}

		d.connected = true
		d.servicesResolved = resolved

	case presenceUnknownObject:
		d.setState(StateNotPresent)
	}

	// Subscribe before connecting, so that no state transition is missed.
	d.sub, err = subscribe(s.tr, Match{
		Path:      d.path,
		Interface: propertiesIface,
		Member:    propertiesChanged,
		Arg0:      deviceIface,
	}, d.onPropertiesChanged)
	if err != nil {
		d.log.WithError(err).Error("Failed to add connect signal")
		d.setState(StateFailed)
		return nil, wrapError(errorkinds.ErrRemoteCall, err, "connect-subscribe", "Cannot subscribe to device properties")
	}

	if p != presenceConnected {
		d.setState(StateConnecting)

		switch p {
		case presenceDisconnected:
			err = d.connectKnown()

		case presenceUnknownObject:
			first := addressType
			if first == bluetooth.AddressUnknown {
				first = bluetooth.AddressPublic
			}

			// Any failure is retried once with the other address type.
			// Permanent errors could be told apart here to skip the retry.
			err = d.connectNew(first)
			if err != nil && addressType == bluetooth.AddressUnknown {
				err = d.connectNew(first.Opposite())
			}
		}

		if err != nil {
			d.rollback(StateFailed)
			return nil, err
		}
	}

	// Connected is usually reported before ServicesResolved, but services and
	// characteristics cannot be looked up until the latter.
	d.setState(StateServicesResolving)

	result, err := s.WaitUntil(func() bool { return d.servicesResolved }, s.cfg.ServicesResolvedTimeout)
	if err != nil {
		d.rollback(StateFailed)
		return nil, wrapError(errorkinds.ErrRemoteCall, err, "connect-wait", "Event loop failed while waiting for ServicesResolved")
	}

	if result == bluetooth.WaitTimedOut {
		d.log.Error("Timeout waiting for ServicesResolved")
		d.rollback(StateTimedOut)
		return nil, wrapError(errorkinds.ErrTimeout, nil, "connect-wait", "Timeout waiting for ServicesResolved")
	}

	d.connected = true
	d.onDisconnect = onDisconnect
	d.setState(StateReady)

	return d, nil
}

// Address returns the address of the device.
func (d *Device) Address() bluetooth.MacAddress {
	return d.address
}

// Path returns the object path of the device.
func (d *Device) Path() dbus.ObjectPath {
	return d.path
}

// State returns the connection state of the device.
func (d *Device) State() ConnState {
	return d.state
}

// Connected reports whether the daemon last reported the device as connected.
func (d *Device) Connected() bool {
	return d.connected
}

// ServicesResolved reports whether GATT service discovery has completed.
func (d *Device) ServicesResolved() bool {
	return d.servicesResolved
}

// Disconnect releases the property subscription and the notify subscriptions
// of its characteristics, and asks the daemon to disconnect the device. Failures of the remote call are logged, and local
// cleanup proceeds regardless. Calling Disconnect again does nothing.
func (d *Device) Disconnect() {
	if d == nil || d.released {
		return
	}

	d.released = true
	d.setState(StateDisconnecting)

	for _, c := range d.chars {
		c.releaseNotify()
	}
	d.chars = nil

	if err := d.sub.release(); err != nil {
		d.log.WithError(err).Warn("Failed to remove connect signal")
	}
	d.sub = nil
	d.onDisconnect = nil

	if _, err := d.session.call(d.path, deviceDisconnect); err != nil {
		d.log.WithError(err).Error("Failed to disconnect")
	}

	d.serviceUUIDs = nil
	d.charUUIDs = nil
	d.connected = false
	d.servicesResolved = false
	d.setState(StateDisconnected)
}

// ServiceUUIDs returns the service UUIDs of the device, and caches them.
func (d *Device) ServiceUUIDs() ([]string, error) {
	if err := d.checkUsable(); err != nil {
		return nil, err
	}

	uuids, err := getTypedProperty[[]string](d.session, d.path, deviceIface, "UUIDs")
	if err != nil {
		d.log.WithError(err).Error("Couldn't get services")
		return nil, wrapError(errorkinds.ErrPropertyAccess, err, "service-uuids", "Cannot get service UUIDs")
	}

	d.serviceUUIDs = uuids

	return uuids, nil
}

// Characteristic returns a handle to the characteristic with the given UUID.
// Short 16-bit and 32-bit UUID forms are accepted.
func (d *Device) Characteristic(uuid string) (*Characteristic, error) {
	if err := d.checkUsable(); err != nil {
		return nil, err
	}

	objects, err := d.session.managedObjects()
	if err != nil {
		return nil, err
	}

	acc := parseAccumulator{target: uuid}
	if parseObjects(objects, d.path, modeCharFind, &acc) != parseFound {
		d.log.WithField("uuid", uuid).Error("Couldn't find characteristic")
		return nil, wrapError(errorkinds.ErrCharacteristicNotFound, nil, "characteristic", "Cannot find characteristic "+uuid)
	}

	d.log.WithField("uuid", uuid).Info("Found characteristic")

	return newCharacteristic(d, acc.found), nil
}

// Characteristics returns every characteristic of the device, in object path order.
func (d *Device) Characteristics() ([]bluetooth.CharacteristicData, error) {
	if err := d.checkUsable(); err != nil {
		return nil, err
	}

	objects, err := d.session.managedObjects()
	if err != nil {
		return nil, err
	}

	count := parseAccumulator{}
	parseObjects(objects, d.path, modeCharCount, &count)

	collect := parseAccumulator{chars: make([]bluetooth.CharacteristicData, count.count)}
	parseObjects(objects, d.path, modeCharCollectAll, &collect)

	return collect.chars[:collect.next], nil
}

// CharacteristicUUIDs returns the UUIDs of every characteristic of the device,
// and caches them.
func (d *Device) CharacteristicUUIDs() ([]string, error) {
	chars, err := d.Characteristics()
	if err != nil {
		return nil, err
	}

	uuids := make([]string, len(chars))
	for i, c := range chars {
		uuids[i] = c.UUID
	}
	d.charUUIDs = uuids

	return uuids, nil
}

// probe queries the Connected property, which also tells whether the
// daemon knows the device object at all.
func (d *Device) probe() (presence, error) {
	connected, err := getTypedProperty[bool](d.session, d.path, deviceIface, "Connected")
	switch {
	case err == nil && connected:
		return presenceConnected, nil

	case err == nil:
		return presenceDisconnected, nil

	case errorkinds.IsRemote(err, errUnknownObject):
		return presenceUnknownObject, nil
	}

	d.log.WithError(err).Error("Failed to get connected")

	return presenceDisconnected, wrapError(errorkinds.ErrPropertyAccess, err, "connect-probe", "Cannot get connected state")
}

func (d *Device) connectKnown() error {
	if _, err := d.session.call(d.path, deviceConnect); err != nil {
		d.log.WithError(err).Error("Connect failed")
		return wrapError(errorkinds.ErrRemoteCall, err, "connect-known", "Cannot connect to device")
	}

	return nil
}

// connectNew connects to a device that is not yet known to the daemon.
// The call is asynchronous because it can outlast the ordinary call timeout.
func (d *Device) connectNew(addressType bluetooth.AddressType) error {
	s := d.session
	d.log.WithField("address_type", addressType.String()).Info("Connect new")

	// AddressType must be public or random for LE, otherwise a BR/EDR
	// connection is attempted.
	params := map[string]dbus.Variant{
		"Address":     dbus.MakeVariant(d.address.String()),
		"AddressType": dbus.MakeVariant(addressType.String()),
	}

	pc, err := startCall(s.tr, s.path, adapterConnectDevice, params)
	if err != nil {
		d.log.WithError(err).Error("Connect new failed")
		return wrapError(errorkinds.ErrRemoteCall, err, "connect-new", "Cannot connect to new device")
	}

	result, err := s.WaitUntil(pc.Done, s.cfg.ConnectNewTimeout)
	if err != nil {
		return wrapError(errorkinds.ErrRemoteCall, err, "connect-new", "Event loop failed while connecting to new device")
	}

	if result == bluetooth.WaitTimedOut {
		d.log.Error("Connect new timeout")
		return wrapError(errorkinds.ErrTimeout, nil, "connect-new", "Timeout connecting to new device")
	}

	reply, err := pc.Result()
	if err != nil {
		if errorkinds.IsRemote(err, errUnknownMethod) {
			d.log.Warn("ConnectDevice is not supported by this daemon (BlueZ 5.49 or later, with experimental interfaces, is required)")
		} else {
			d.log.WithError(err).Info("Connect new error")
		}

		return wrapError(errorkinds.ErrRemoteCall, err, "connect-new", "Cannot connect to new device")
	}

	var path dbus.ObjectPath
	if err := dbus.Store(reply, &path); err != nil || path != d.path {
		d.log.WithField("reply_path", path).Error("Connect new device paths don't match")
		return wrapError(errorkinds.ErrInvalidState, err, "connect-new", "Connected device path does not match")
	}

	return nil
}

// rollback tears down a failed connection attempt, and records the final state.
func (d *Device) rollback(state ConnState) {
	d.Disconnect()
	d.setState(state)
}

func (d *Device) onPropertiesChanged(sig *dbus.Signal) {
	iface, changed, ok := parsePropertiesChanged(sig)
	if !ok || iface != deviceIface || d.released {
		return
	}

	if resolved, ok := property[bool](changed, "ServicesResolved"); ok {
		d.servicesResolved = resolved
	}

	connected, ok := property[bool](changed, "Connected")
	if !ok {
		return
	}

	d.connected = connected
	if connected || d.state != StateReady {
		return
	}

	d.servicesResolved = false
	d.setState(StateDisconnected)

	if d.onDisconnect != nil {
		d.onDisconnect(d.address)
	}
}

func (d *Device) setState(state ConnState) {
	if d.state == state {
		return
	}

	d.log.WithFields(logrus.Fields{"from": d.state.String(), "to": state.String()}).Debug("Device state changed")
	d.state = state

	eventbus.Publish(bluetooth.EventConnection, bluetooth.EventActionUpdated, bluetooth.ConnectionEventData{
		Address: d.address,
		State:   state.String(),
	})
}

func (d *Device) checkUsable() error {
	if d == nil || d.released {
		return wrapError(errorkinds.ErrInvalidState, nil, "device", "Device is disconnected")
	}

	return nil
}
