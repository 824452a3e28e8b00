package bluez

import (
	"maps"
	"slices"
	"strings"

	"github.com/bluetuith-org/blz/api/bluetooth"
	"github.com/bluetuith-org/blz/api/errorkinds"
	"github.com/godbus/dbus/v5"
)

// ManagedObjects is a snapshot of the daemon's object tree:
// object path → interface name → property name → value.
type ManagedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant

type parseMode int

const (
	// modeDeviceScan reports every device to the scan handler.
	modeDeviceScan parseMode = iota

	// modeCharFind stops at the first characteristic with the target UUID.
	modeCharFind

	// modeCharCount counts characteristics.
	modeCharCount

	// modeCharCollectAll fills the pre-sized characteristic list.
	modeCharCollectAll
)

type parseStatus int

const (
	parseOK parseStatus = iota
	parseFound
	parseNotFound
)

// parseAccumulator holds the inputs and outputs of a parse. Which fields
// are used depends on the parse mode.
type parseAccumulator struct {
	scan bluetooth.ScanHandler

	target string
	found  bluetooth.CharacteristicData

	count int

	chars []bluetooth.CharacteristicData
	next  int
}

// parseObjects walks the snapshot in path order and applies the mode to
// every entry under scope. It performs no I/O and keeps no state.
func parseObjects(objects ManagedObjects, scope dbus.ObjectPath, mode parseMode, acc *parseAccumulator) parseStatus {
	status := parseOK
	if mode == modeCharFind {
		status = parseNotFound
	}

	for _, path := range slices.Sorted(maps.Keys(objects)) {
		if !inScope(path, scope) {
			continue
		}

		ifaces := objects[path]

		switch mode {
		case modeDeviceScan:
			props, ok := ifaces[deviceIface]
			if ok && acc.scan != nil {
				acc.scan(deviceData(path, props))
			}

		case modeCharFind:
			props, ok := ifaces[characteristicIface]
			if !ok {
				continue
			}

			if uuid, _ := property[string](props, "UUID"); bluetooth.UUIDEqual(uuid, acc.target) {
				acc.found = characteristicData(path, props)
				return parseFound
			}

		case modeCharCount:
			if _, ok := ifaces[characteristicIface]; ok {
				acc.count++
			}

		case modeCharCollectAll:
			props, ok := ifaces[characteristicIface]
			if !ok {
				continue
			}

			if acc.next >= len(acc.chars) {
				return parseOK
			}

			acc.chars[acc.next] = characteristicData(path, props)
			acc.next++
		}
	}

	return status
}

// parseInterfacesAdded applies a device scan to the object announced by an
// InterfacesAdded signal.
func parseInterfacesAdded(sig *dbus.Signal, scope dbus.ObjectPath, handler bluetooth.ScanHandler) error {
	if len(sig.Body) < 2 {
		return errorkinds.ErrInvalidState
	}

	path, ok := sig.Body[0].(dbus.ObjectPath)
	if !ok {
		return errorkinds.ErrInvalidState
	}

	ifaces, ok := sig.Body[1].(map[string]map[string]dbus.Variant)
	if !ok {
		return errorkinds.ErrInvalidState
	}

	parseObjects(ManagedObjects{path: ifaces}, scope, modeDeviceScan, &parseAccumulator{scan: handler})

	return nil
}

// parsePropertiesChanged extracts the interface name and the changed
// properties from a PropertiesChanged signal.
func parsePropertiesChanged(sig *dbus.Signal) (string, map[string]dbus.Variant, bool) {
	if len(sig.Body) < 2 {
		return "", nil, false
	}

	iface, ok := sig.Body[0].(string)
	if !ok {
		return "", nil, false
	}

	changed, ok := sig.Body[1].(map[string]dbus.Variant)

	return iface, changed, ok
}

// inScope reports whether path is scope itself or one of its descendants.
func inScope(path, scope dbus.ObjectPath) bool {
	if scope == "" || scope == rootPath || path == scope {
		return true
	}

	return strings.HasPrefix(string(path), string(scope)+"/")
}

func deviceData(path dbus.ObjectPath, props map[string]dbus.Variant) bluetooth.DeviceData {
	device := bluetooth.DeviceData{Path: string(path)}

	if address, ok := property[string](props, "Address"); ok {
		device.Address, _ = bluetooth.ParseMAC(address)
	}
	if addressType, ok := property[string](props, "AddressType"); ok {
		device.AddressType, _ = bluetooth.ParseAddressType(addressType)
	}

	device.Name, _ = property[string](props, "Name")
	device.Alias, _ = property[string](props, "Alias")
	device.RSSI, _ = property[int16](props, "RSSI")
	device.UUIDs, _ = property[[]string](props, "UUIDs")
	device.Connected, _ = property[bool](props, "Connected")
	device.Paired, _ = property[bool](props, "Paired")

	if mdata, ok := property[map[uint16]dbus.Variant](props, "ManufacturerData"); ok {
		device.ManufacturerData = make(map[uint16][]byte, len(mdata))
		for id, v := range mdata {
			if data, ok := v.Value().([]byte); ok {
				device.ManufacturerData[id] = data
			}
		}
	}

	return device
}

func characteristicData(path dbus.ObjectPath, props map[string]dbus.Variant) bluetooth.CharacteristicData {
	uuid, _ := property[string](props, "UUID")
	flags, _ := property[[]string](props, "Flags")

	return bluetooth.CharacteristicData{
		UUID:  uuid,
		Path:  string(path),
		Flags: bluetooth.ParseCharFlags(flags),
	}
}

// property returns the value of a property if it is present and of type T.
func property[T any](props map[string]dbus.Variant, name string) (T, bool) {
	var zero T

	v, ok := props[name]
	if !ok {
		return zero, false
	}

	value, ok := v.Value().(T)
	if !ok {
		return zero, false
	}

	return value, true
}
