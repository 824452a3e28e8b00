package bluez

import (
	"github.com/bluetuith-org/blz/api/bluetooth"
	"github.com/bluetuith-org/blz/api/errorkinds"
	"github.com/godbus/dbus/v5"
)

// maxPathLength bounds the length of constructed object paths.
const maxPathLength = 64

// adapterPath returns the object path of the named adapter, for example "/org/bluez/hci0".
func adapterPath(name string) (dbus.ObjectPath, error) {
	path := dbus.ObjectPath(adapterPrefix + name)
	if name == "" || len(path) > maxPathLength || !path.IsValid() {
		return "", wrapError(errorkinds.ErrPathConstruction, nil, "adapter-path", "Invalid adapter name "+name)
	}

	return path, nil
}

// devicePath returns the object path of a device under an adapter,
// for example "/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF".
func devicePath(adapter dbus.ObjectPath, address bluetooth.MacAddress) dbus.ObjectPath {
	return adapter + "/" + dbus.ObjectPath(address.PathElement())
}
