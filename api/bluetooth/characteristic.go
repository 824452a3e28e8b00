package bluetooth

import (
	"strings"

	"github.com/google/uuid"
)

// CharFlags is the capability bitmask of a GATT characteristic.
type CharFlags uint8

const (
	CharRead CharFlags = 1 << iota
	CharWrite
	CharWriteWithoutResponse
	CharNotify
	CharIndicate
)

var charFlagNames = []struct {
	flag CharFlags
	name string
}{
	{CharRead, "read"},
	{CharWrite, "write"},
	{CharWriteWithoutResponse, "write-without-response"},
	{CharNotify, "notify"},
	{CharIndicate, "indicate"},
}

// ParseCharFlags converts the "Flags" property of a GATT characteristic
// into a capability bitmask. Unknown flags are ignored.
func ParseCharFlags(flags []string) CharFlags {
	var f CharFlags

	for _, name := range flags {
		for _, cf := range charFlagNames {
			if cf.name == name {
				f |= cf.flag
			}
		}
	}

	return f
}

// Has reports whether any of the given flags is set.
func (c CharFlags) Has(flags CharFlags) bool {
	return c&flags != 0
}

// Strings returns the BlueZ names of the set flags.
func (c CharFlags) Strings() []string {
	names := make([]string, 0, len(charFlagNames))
	for _, cf := range charFlagNames {
		if c&cf.flag != 0 {
			names = append(names, cf.name)
		}
	}

	return names
}

// String returns the set flags joined by '|'.
func (c CharFlags) String() string {
	return strings.Join(c.Strings(), "|")
}

// MarshalText implements encoding.TextMarshaler.
func (c CharFlags) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CharFlags) UnmarshalText(text []byte) error {
	*c = ParseCharFlags(strings.Split(string(text), "|"))
	return nil
}

// CharacteristicData holds the information of a GATT characteristic
// as exposed by the Bluetooth daemon.
type CharacteristicData struct {
	// UUID holds the characteristic UUID, as reported by the daemon.
	UUID string `json:"uuid,omitempty" codec:"UUID,omitempty"`

	// Path holds the object path of the characteristic.
	Path string `json:"path,omitempty" codec:"Path,omitempty"`

	// Flags holds the capabilities of the characteristic.
	Flags CharFlags `json:"flags,omitempty" codec:"Flags,omitempty"`
}

// baseUUID is the Bluetooth Base UUID, used to expand 16 and 32-bit UUIDs.
var baseUUID = uuid.MustParse("00000000-0000-1000-8000-00805f9b34fb")

// ParseUUID parses a 16-bit ("2a19"), 32-bit ("00002a19") or 128-bit UUID.
func ParseUUID(s string) (uuid.UUID, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")

	switch len(s) {
	case 4:
		s = "0000" + s
		fallthrough

	case 8:
		short, err := uuid.Parse(s + baseUUID.String()[8:])
		if err != nil {
			return uuid.Nil, err
		}

		return short, nil
	}

	return uuid.Parse(s)
}

// UUIDEqual reports whether two UUID strings identify the same UUID,
// irrespective of case or short form. Unparseable strings are compared
// case-insensitively.
func UUIDEqual(a, b string) bool {
	ua, erra := ParseUUID(a)
	ub, errb := ParseUUID(b)
	if erra != nil || errb != nil {
		return strings.EqualFold(a, b)
	}

	return ua == ub
}
