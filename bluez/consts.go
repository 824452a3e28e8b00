package bluez

// Remote names used on the bus.
const (
	BusName = "org.bluez"

	rootPath      = "/"
	adapterPrefix = "/org/bluez/"

	objectManagerIface  = "org.freedesktop.DBus.ObjectManager"
	propertiesIface     = "org.freedesktop.DBus.Properties"
	adapterIface        = "org.bluez.Adapter1"
	deviceIface         = "org.bluez.Device1"
	characteristicIface = "org.bluez.GattCharacteristic1"

	getManagedObjects = objectManagerIface + ".GetManagedObjects"
	interfacesAdded   = "InterfacesAdded"
	propertiesChanged = "PropertiesChanged"

	adapterStartDiscovery = adapterIface + ".StartDiscovery"
	adapterStopDiscovery  = adapterIface + ".StopDiscovery"
	adapterConnectDevice  = adapterIface + ".ConnectDevice"

	deviceConnect    = deviceIface + ".Connect"
	deviceDisconnect = deviceIface + ".Disconnect"

	charReadValue    = characteristicIface + ".ReadValue"
	charWriteValue   = characteristicIface + ".WriteValue"
	charStartNotify  = characteristicIface + ".StartNotify"
	charStopNotify   = characteristicIface + ".StopNotify"
	charAcquireWrite = characteristicIface + ".AcquireWrite"
)

// Remote error names that change control flow.
const (
	errUnknownObject = "org.freedesktop.DBus.Error.UnknownObject"
	errUnknownMethod = "org.freedesktop.DBus.Error.UnknownMethod"
)
