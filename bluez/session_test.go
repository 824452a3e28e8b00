package bluez

import (
	"testing"
	"time"

	"github.com/bluetuith-org/blz/api/bluetooth"
	"github.com/bluetuith-org/blz/api/config"
	"github.com/bluetuith-org/blz/api/errorkinds"
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	testAdapter = dbus.ObjectPath("/org/bluez/hci0")
	testDevice  = dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF")
)

var testAddress = bluetooth.MacAddress{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}

// sessionSuite provides a session on a powered hci0 over a mock transport.
type sessionSuite struct {
	suite.Suite

	clock   *fakeClock
	tr      *mockTransport
	cfg     config.Configuration
	session *Session
}

func (s *sessionSuite) SetupTest() {
	s.clock = &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s.tr = newMockTransport(s.clock)
	s.tr.addObject(testAdapter, adapterIface, map[string]any{"Powered": false})
	s.cfg = config.New()

	session, err := NewSession(s.tr, s.cfg, WithClock(s.clock), WithLogger(silentLogger()))
	s.Require().NoError(err)
	s.session = session

	s.tr.calls = nil
}

func (s *sessionSuite) TearDownTest() {
	s.session.Close()
}

// elapsed returns the virtual time passed since the test started.
func (s *sessionSuite) elapsed(start time.Time) time.Duration {
	return s.clock.now.Sub(start)
}

type SessionTestSuite struct {
	sessionSuite
}

func TestSession(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

func (s *SessionTestSuite) TestPowersOnAdapter() {
	powered := s.tr.objects[testAdapter][adapterIface]["Powered"]
	s.Equal(true, powered.Value())
	s.Equal(testAdapter, s.session.AdapterPath())
}

func (s *SessionTestSuite) TestDevicePath() {
	s.Equal(testDevice, s.session.DevicePath(testAddress))
	s.Equal(testDevice, s.session.DevicePath(testAddress), "device path MUST be deterministic")
}

func (s *SessionTestSuite) TestCloseIsIdempotent() {
	s.NoError(s.session.Close())
	s.NoError(s.session.Close())
	s.True(s.tr.closed)

	var nilSession *Session
	s.NoError(nilSession.Close())

	_, err := s.session.Connect(testAddress, bluetooth.AddressUnknown, nil)
	s.ErrorIs(err, errorkinds.ErrSessionNotExist)
	s.ErrorIs(s.session.Pump(time.Second), errorkinds.ErrSessionNotExist)
}

func (s *SessionTestSuite) TestScan() {
	var found []bluetooth.DeviceData

	s.Require().NoError(s.session.StartScan(func(device bluetooth.DeviceData) {
		found = append(found, device)
	}))
	s.Len(s.tr.callsOf(adapterStartDiscovery), 1)
	s.Len(s.tr.matches, 1)

	s.tr.emit(time.Second, interfacesAddedSignal(testDevice, deviceIface, map[string]any{
		"Address":     "AA:BB:CC:DD:EE:FF",
		"AddressType": "random",
		"Name":        "thermometer",
		"RSSI":        int16(-60),
	}))
	s.tr.emit(time.Second, interfacesAddedSignal("/org/bluez/hci01/dev_11_22_33_44_55_66", deviceIface, map[string]any{
		"Address": "11:22:33:44:55:66",
	}))
	s.tr.emit(time.Second, interfacesAddedSignal(testDevice+"/service0001", "org.bluez.GattService1", map[string]any{}))

	s.Require().NoError(s.session.Pump(2 * time.Second))
	s.Require().NoError(s.session.Pump(0))

	s.Require().Len(found, 1)
	s.Equal(testAddress, found[0].Address)
	s.Equal(bluetooth.AddressRandom, found[0].AddressType)
	s.Equal("thermometer", found[0].Name)
	s.Equal(int16(-60), found[0].RSSI)
	s.Equal(string(testDevice), found[0].Path)

	s.Require().NoError(s.session.StopScan())
	s.Len(s.tr.callsOf(adapterStopDiscovery), 1)
	s.Empty(s.tr.matches)
}

func (s *SessionTestSuite) TestStartScanReplacesSubscription() {
	s.Require().NoError(s.session.StartScan(func(bluetooth.DeviceData) {}))
	s.Require().NoError(s.session.StartScan(func(bluetooth.DeviceData) {}))

	s.Len(s.tr.matches, 1)
	s.Len(s.tr.removed, 1)
}

func (s *SessionTestSuite) TestStartScanFailureReleasesSubscription() {
	s.tr.handle(adapterStartDiscovery, func(dbus.ObjectPath, []any) ([]any, error) {
		return nil, bluezFailed("Resource Not Ready")
	})

	err := s.session.StartScan(func(bluetooth.DeviceData) {})
	s.ErrorIs(err, errorkinds.ErrRemoteCall)
	s.Empty(s.tr.matches)
}

func (s *SessionTestSuite) TestStopScanReleasesOnFailure() {
	s.Require().NoError(s.session.StartScan(func(bluetooth.DeviceData) {}))
	s.tr.handle(adapterStopDiscovery, func(dbus.ObjectPath, []any) ([]any, error) {
		return nil, bluezFailed("No discovery started")
	})

	s.ErrorIs(s.session.StopScan(), errorkinds.ErrRemoteCall)
	s.Empty(s.tr.matches)
}

func (s *SessionTestSuite) TestDevices() {
	s.tr.addObject(testDevice, deviceIface, map[string]any{
		"Address":   "AA:BB:CC:DD:EE:FF",
		"Connected": true,
		"Paired":    true,
		"UUIDs":     []string{"0000180f-0000-1000-8000-00805f9b34fb"},
		"ManufacturerData": map[uint16]dbus.Variant{
			0x004c: dbus.MakeVariant([]byte{0x02, 0x15}),
		},
	})
	s.tr.addObject("/org/bluez/hci1/dev_11_22_33_44_55_66", deviceIface, map[string]any{
		"Address": "11:22:33:44:55:66",
	})

	devices, err := s.session.Devices()
	s.Require().NoError(err)
	s.Require().Len(devices, 1)

	s.Equal(testAddress, devices[0].Address)
	s.True(devices[0].Connected)
	s.True(devices[0].Paired)
	s.Equal([]byte{0x02, 0x15}, devices[0].ManufacturerData[0x004c])
	s.Len(devices[0].UUIDs, 1)
}

func TestNewSessionErrors(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}

	t.Run("unknown adapter", func(t *testing.T) {
		tr := newMockTransport(clock)

		_, err := NewSession(tr, config.New(), WithClock(clock), WithLogger(silentLogger()))
		require.Error(t, err)
		assert.ErrorIs(t, err, errorkinds.ErrAdapterNotFound)
		assert.ErrorIs(t, err, errorkinds.ErrRemoteCall)
		assert.True(t, tr.closed, "transport MUST be closed on failure")
	})

	t.Run("power on failure", func(t *testing.T) {
		tr := newMockTransport(clock)
		tr.addObject(testAdapter, adapterIface, map[string]any{"Powered": false})
		tr.handle(propertiesIface+".Set", func(dbus.ObjectPath, []any) ([]any, error) {
			return nil, remoteError(dbus.Error{Name: "org.bluez.Error.Blocked"})
		})

		_, err := NewSession(tr, config.New(), WithClock(clock), WithLogger(silentLogger()))
		require.Error(t, err)
		assert.ErrorIs(t, err, errorkinds.ErrPowerOn)
		assert.NotErrorIs(t, err, errorkinds.ErrAdapterNotFound)
		assert.True(t, tr.closed)
	})

	t.Run("invalid adapter name", func(t *testing.T) {
		tr := newMockTransport(clock)
		cfg := config.New()
		cfg.Adapter = "hci 0"

		_, err := NewSession(tr, cfg, WithLogger(silentLogger()))
		assert.ErrorIs(t, err, errorkinds.ErrPathConstruction)
		assert.Empty(t, tr.calls)
	})
}
