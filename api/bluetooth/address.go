package bluetooth

import (
	"encoding/hex"
	"strings"

	"github.com/bluetuith-org/blz/api/errorkinds"
)

// MacAddress holds a Bluetooth device address, most significant byte first.
type MacAddress [6]byte

// ParseMAC parses an address of the form "AA:BB:CC:DD:EE:FF".
// Both ':' and '-' separators are accepted, and hex digits may be in any case.
func ParseMAC(address string) (MacAddress, error) {
	var mac MacAddress

	if len(address) != 17 {
		return mac, errorkinds.ErrPathConstruction
	}

	for i := range mac {
		if i > 0 {
			sep := address[i*3-1]
			if sep != ':' && sep != '-' {
				return mac, errorkinds.ErrPathConstruction
			}
		}

		if _, err := hex.Decode(mac[i:i+1], []byte(address[i*3:i*3+2])); err != nil {
			return MacAddress{}, errorkinds.ErrPathConstruction
		}
	}

	return mac, nil
}

// String returns the address in upper-case, colon separated form.
func (m MacAddress) String() string {
	return m.join(":")
}

// PathElement returns the address as used in a BlueZ device object path,
// for example "dev_AA_BB_CC_DD_EE_FF".
func (m MacAddress) PathElement() string {
	return "dev_" + m.join("_")
}

// IsZero reports whether the address is unset.
func (m MacAddress) IsZero() bool {
	return m == MacAddress{}
}

// MarshalText implements encoding.TextMarshaler.
func (m MacAddress) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MacAddress) UnmarshalText(text []byte) error {
	mac, err := ParseMAC(string(text))
	if err != nil {
		return err
	}

	*m = mac

	return nil
}

func (m MacAddress) join(sep string) string {
	sb := strings.Builder{}
	sb.Grow(17)

	for i, b := range m {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(strings.ToUpper(hex.EncodeToString([]byte{b})))
	}

	return sb.String()
}

// AddressType describes the LE address type of a remote device.
type AddressType int

const (
	// AddressUnknown lets the connect logic try a public address first,
	// then a random one.
	AddressUnknown AddressType = iota
	AddressPublic
	AddressRandom
)

// ParseAddressType converts "public", "random" or an empty string to an AddressType.
func ParseAddressType(s string) (AddressType, error) {
	switch strings.ToLower(s) {
	case "", "unknown", "auto":
		return AddressUnknown, nil
	case "public":
		return AddressPublic, nil
	case "random":
		return AddressRandom, nil
	}

	return AddressUnknown, errorkinds.ErrNotSupported
}

// String returns the BlueZ name of the address type.
func (a AddressType) String() string {
	switch a {
	case AddressPublic:
		return "public"
	case AddressRandom:
		return "random"
	}

	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (a AddressType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AddressType) UnmarshalText(text []byte) error {
	addressType, err := ParseAddressType(string(text))
	if err != nil {
		return err
	}

	*a = addressType

	return nil
}

// Opposite returns the other LE address type. An unknown type resolves to random,
// since the first attempt for an unknown type is always public.
func (a AddressType) Opposite() AddressType {
	if a == AddressRandom {
		return AddressPublic
	}

	return AddressRandom
}
