package bluetooth

// DeviceData holds the information of a remote device, as found
// in the daemon's object tree or in a discovery event.
type DeviceData struct {
	// Address holds the Bluetooth MAC address of the device.
	Address MacAddress `json:"address,omitempty" codec:"Address,omitempty"`

	// AddressType holds the LE address type of the device.
	AddressType AddressType `json:"address_type,omitempty" codec:"AddressType,omitempty"`

	// Path holds the object path of the device.
	Path string `json:"path,omitempty" codec:"Path,omitempty"`

	// Name holds the advertised name of the device, if any.
	Name string `json:"name,omitempty" codec:"Name,omitempty"`

	// Alias holds the user-assigned or daemon-derived name of the device.
	Alias string `json:"alias,omitempty" codec:"Alias,omitempty"`

	// RSSI holds the last received signal strength, if the device was
	// discovered in the current scan.
	RSSI int16 `json:"rssi,omitempty" codec:"RSSI,omitempty"`

	// UUIDs holds the advertised or resolved service UUIDs.
	UUIDs []string `json:"uuids,omitempty" codec:"UUIDs,omitempty"`

	// ManufacturerData holds the advertised manufacturer data, keyed by company ID.
	ManufacturerData map[uint16][]byte `json:"manufacturer_data,omitempty" codec:"ManufacturerData,omitempty"`

	// Connected indicates whether the device is connected.
	Connected bool `json:"connected,omitempty" codec:"Connected,omitempty"`

	// Paired indicates whether the device is paired.
	Paired bool `json:"paired,omitempty" codec:"Paired,omitempty"`
}
