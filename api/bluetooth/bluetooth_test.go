package bluetooth_test

import (
	"testing"

	"github.com/bluetuith-org/blz/api/bluetooth"
	"github.com/bluetuith-org/blz/api/errorkinds"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMAC(t *testing.T) {
	mac, err := bluetooth.ParseMAC("aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)

	assert.Equal(t, bluetooth.MacAddress{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}, mac)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", mac.String())
	assert.Equal(t, "dev_AA_BB_CC_DD_EE_FF", mac.PathElement())

	dashed, err := bluetooth.ParseMAC("01-02-03-0a-0b-0c")
	require.NoError(t, err)
	assert.Equal(t, "01:02:03:0A:0B:0C", dashed.String())

	for _, bad := range []string{"", "AA:BB:CC:DD:EE", "AA:BB:CC:DD:EE:FG", "AA.BB.CC.DD.EE.FF", "AA:BB:CC:DD:EE:FF:00"} {
		_, err := bluetooth.ParseMAC(bad)
		assert.ErrorIs(t, err, errorkinds.ErrPathConstruction, "address %q MUST be rejected", bad)
	}
}

func TestAddressType(t *testing.T) {
	assert.Equal(t, bluetooth.AddressRandom, bluetooth.AddressPublic.Opposite())
	assert.Equal(t, bluetooth.AddressPublic, bluetooth.AddressRandom.Opposite())
	assert.Equal(t, bluetooth.AddressRandom, bluetooth.AddressUnknown.Opposite())

	at, err := bluetooth.ParseAddressType("Random")
	require.NoError(t, err)
	assert.Equal(t, bluetooth.AddressRandom, at)

	at, err = bluetooth.ParseAddressType("")
	require.NoError(t, err)
	assert.Equal(t, bluetooth.AddressUnknown, at)

	_, err = bluetooth.ParseAddressType("bredr")
	assert.ErrorIs(t, err, errorkinds.ErrNotSupported)
}

func TestCharFlags(t *testing.T) {
	flags := bluetooth.ParseCharFlags([]string{"read", "notify", "authenticated-signed-writes"})

	assert.True(t, flags.Has(bluetooth.CharRead))
	assert.True(t, flags.Has(bluetooth.CharNotify|bluetooth.CharIndicate))
	assert.False(t, flags.Has(bluetooth.CharWrite|bluetooth.CharWriteWithoutResponse))
	assert.Equal(t, "read|notify", flags.String())
	assert.Equal(t, bluetooth.CharFlags(0), bluetooth.ParseCharFlags(nil))
}

func TestUUIDEqual(t *testing.T) {
	assert.True(t, bluetooth.UUIDEqual("2a19", "00002A19-0000-1000-8000-00805F9B34FB"))
	assert.True(t, bluetooth.UUIDEqual("00002a19", "2A19"))
	assert.True(t, bluetooth.UUIDEqual("6E400002-B5A3-F393-E0A9-E50E24DCCA9E", "6e400002-b5a3-f393-e0a9-e50e24dcca9e"))
	assert.False(t, bluetooth.UUIDEqual("2a19", "2a37"))
	assert.True(t, bluetooth.UUIDEqual("not-a-uuid", "NOT-A-UUID"))
}

func TestTextMarshaling(t *testing.T) {
	mac := bluetooth.MacAddress{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}

	text, err := mac.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", string(text))

	var decoded bluetooth.MacAddress
	require.NoError(t, decoded.UnmarshalText([]byte("aa:bb:cc:dd:ee:ff")))
	assert.Equal(t, mac, decoded)
	assert.Error(t, decoded.UnmarshalText([]byte("nope")))

	var at bluetooth.AddressType
	require.NoError(t, at.UnmarshalText([]byte("public")))
	assert.Equal(t, bluetooth.AddressPublic, at)

	var flags bluetooth.CharFlags
	require.NoError(t, flags.UnmarshalText([]byte("write|indicate")))
	assert.Equal(t, bluetooth.CharWrite|bluetooth.CharIndicate, flags)
}
