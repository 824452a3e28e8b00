package bluez

import (
	"bytes"
	"os"

	"github.com/bluetuith-org/blz/api/bluetooth"
	"github.com/bluetuith-org/blz/api/errorkinds"
	"github.com/bluetuith-org/blz/api/eventbus"
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

// Characteristic is a handle to a GATT characteristic of a connected device.
type Characteristic struct {
	device  *Device
	session *Session
	log     *logrus.Entry

	uuid  string
	path  dbus.ObjectPath
	flags bluetooth.CharFlags

	notifying bool
	sub       *subscription
	onNotify  bluetooth.NotifyHandler
}

func newCharacteristic(d *Device, data bluetooth.CharacteristicData) *Characteristic {
	c := &Characteristic{
		device:  d,
		session: d.session,
		log:     d.log.WithField("uuid", data.UUID),
		uuid:    data.UUID,
		path:    dbus.ObjectPath(data.Path),
		flags:   data.Flags,
	}
	d.chars = append(d.chars, c)

	return c
}

// UUID returns the UUID of the characteristic.
func (c *Characteristic) UUID() string {
	return c.uuid
}

// Path returns the object path of the characteristic.
func (c *Characteristic) Path() dbus.ObjectPath {
	return c.path
}

// Flags returns the capabilities of the characteristic.
func (c *Characteristic) Flags() bluetooth.CharFlags {
	return c.flags
}

// Device returns the device the characteristic belongs to.
func (c *Characteristic) Device() *Device {
	return c.device
}

// Notifying reports whether the daemon reported notifications as enabled.
func (c *Characteristic) Notifying() bool {
	return c.notifying
}

// Write writes a value to the characteristic. It fails without a remote call
// if the characteristic supports neither write nor write-without-response.
func (c *Characteristic) Write(data []byte) error {
	if err := c.device.checkUsable(); err != nil {
		return err
	}

	if !c.flags.Has(bluetooth.CharWrite | bluetooth.CharWriteWithoutResponse) {
		c.log.Error("Characteristic does not support write")
		return wrapError(errorkinds.ErrNotSupported, nil, "char-write", "Characteristic does not support write")
	}

	if _, err := c.session.call(c.path, charWriteValue, data, map[string]dbus.Variant{}); err != nil {
		c.log.WithError(err).Error("Failed to write")
		return wrapError(errorkinds.ErrRemoteCall, err, "char-write", "Cannot write characteristic")
	}

	return nil
}

// Read reads the value of the characteristic into buf.
//
// It copies at most len(buf) bytes, but returns the full length of the
// remote value. A return value larger than len(buf) means the value was
// truncated; use ReadValue to get the complete value.
func (c *Characteristic) Read(buf []byte) (int, error) {
	value, err := c.ReadValue()
	if err != nil {
		return 0, err
	}

	copy(buf, value)

	return len(value), nil
}

// ReadValue reads the complete value of the characteristic.
func (c *Characteristic) ReadValue() ([]byte, error) {
	if err := c.device.checkUsable(); err != nil {
		return nil, err
	}

	if !c.flags.Has(bluetooth.CharRead) {
		c.log.Error("Characteristic does not support read")
		return nil, wrapError(errorkinds.ErrNotSupported, nil, "char-read", "Characteristic does not support read")
	}

	body, err := c.session.call(c.path, charReadValue, map[string]dbus.Variant{})
	if err != nil {
		c.log.WithError(err).Error("Failed to read")
		return nil, wrapError(errorkinds.ErrRemoteCall, err, "char-read", "Cannot read characteristic")
	}

	var value []byte
	if err := dbus.Store(body, &value); err != nil {
		c.log.WithError(err).Error("Failed to read result")
		return nil, wrapError(errorkinds.ErrRemoteCall, err, "char-read", "Cannot decode characteristic value")
	}

	return value, nil
}

// NotifyStart enables notifications or indications, and waits until the
// daemon reports them as enabled. The handler is invoked with every new value
// from within the event pump.
//
// Only one notification subscription may be active at a time; starting another
// one before NotifyStop fails with ErrNotifyActive and leaves the active one intact.
func (c *Characteristic) NotifyStart(handler bluetooth.NotifyHandler) error {
	if err := c.device.checkUsable(); err != nil {
		return err
	}

	if !c.flags.Has(bluetooth.CharNotify | bluetooth.CharIndicate) {
		c.log.Error("Characteristic does not support notify")
		return wrapError(errorkinds.ErrNotSupported, nil, "char-notify-start", "Characteristic does not support notify")
	}

	if c.sub != nil {
		return wrapError(errorkinds.ErrNotifyActive, nil, "char-notify-start", "Notifications are already active")
	}

	s := c.session

	sub, err := subscribe(s.tr, Match{
		Path:      c.path,
		Interface: propertiesIface,
		Member:    propertiesChanged,
		Arg0:      characteristicIface,
	}, c.onPropertiesChanged)
	if err != nil {
		c.log.WithError(err).Error("Failed to add notify signal")
		return wrapError(errorkinds.ErrRemoteCall, err, "char-notify-start", "Cannot subscribe to characteristic properties")
	}

	c.sub = sub
	c.onNotify = handler

	if _, err := s.call(c.path, charStartNotify); err != nil {
		c.log.WithError(err).Error("Failed to start notify")
		c.releaseNotify()

		return wrapError(errorkinds.ErrRemoteCall, err, "char-notify-start", "Cannot start notifications")
	}

	result, err := s.WaitUntil(func() bool { return c.notifying }, s.cfg.NotifyTimeout)
	if err == nil && result == bluetooth.WaitReady {
		return nil
	}

	c.log.Error("Timeout waiting for Notifying")
	if _, stopErr := s.call(c.path, charStopNotify); stopErr != nil {
		c.log.WithError(stopErr).Warn("Failed to stop notify")
	}
	c.releaseNotify()

	if err != nil {
		return wrapError(errorkinds.ErrRemoteCall, err, "char-notify-start", "Event loop failed while waiting for Notifying")
	}

	return wrapError(errorkinds.ErrTimeout, nil, "char-notify-start", "Timeout waiting for Notifying")
}

// NotifyStop disables notifications. It does nothing if notifications were
// not started. The subscription is released even if the remote call fails.
func (c *Characteristic) NotifyStop() error {
	if c.sub == nil {
		return nil
	}

	_, err := c.session.call(c.path, charStopNotify)
	c.releaseNotify()

	if err != nil {
		c.log.WithError(err).Error("Failed to stop notify")
		return wrapError(errorkinds.ErrRemoteCall, err, "char-notify-stop", "Cannot stop notifications")
	}

	return nil
}

// AcquireWrite acquires a file for write-without-response streaming to the
// characteristic, along with the MTU of the link. The caller owns the file.
func (c *Characteristic) AcquireWrite() (*os.File, uint16, error) {
	if err := c.device.checkUsable(); err != nil {
		return nil, 0, err
	}

	if !c.flags.Has(bluetooth.CharWriteWithoutResponse) {
		c.log.Error("Characteristic does not support write-without-response")
		return nil, 0, wrapError(errorkinds.ErrNotSupported, nil, "char-acquire-write", "Characteristic does not support write-without-response")
	}

	body, err := c.session.call(c.path, charAcquireWrite, map[string]dbus.Variant{})
	if err != nil {
		c.log.WithError(err).Error("Failed acquire write")
		return nil, 0, wrapError(errorkinds.ErrRemoteCall, err, "char-acquire-write", "Cannot acquire write")
	}

	var (
		fd  dbus.UnixFD
		mtu uint16
	)
	if err := dbus.Store(body, &fd, &mtu); err != nil {
		c.log.WithError(err).Error("Failed to get write fd")
		return nil, 0, wrapError(errorkinds.ErrRemoteCall, err, "char-acquire-write", "Cannot decode write file descriptor")
	}

	return os.NewFile(uintptr(fd), string(c.path)), mtu, nil
}

func (c *Characteristic) releaseNotify() {
	if c.sub == nil {
		return
	}

	if err := c.sub.release(); err != nil {
		c.log.WithError(err).Warn("Failed to remove notify signal")
	}

	c.sub = nil
	c.onNotify = nil
	c.notifying = false
}

func (c *Characteristic) onPropertiesChanged(sig *dbus.Signal) {
	iface, changed, ok := parsePropertiesChanged(sig)
	if !ok || iface != characteristicIface || c.sub == nil {
		return
	}

	if notifying, ok := property[bool](changed, "Notifying"); ok {
		c.notifying = notifying
	}

	value, ok := property[[]byte](changed, "Value")
	if !ok {
		return
	}

	eventbus.Publish(bluetooth.EventNotification, bluetooth.EventActionUpdated, bluetooth.NotificationEventData{
		Address: c.device.address,
		UUID:    c.uuid,
		Value:   value,
	})

	if c.onNotify != nil {
		c.onNotify(bytes.Clone(value))
	}
}
