package serde

import (
	"testing"

	"github.com/bluetuith-org/blz/api/bluetooth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalDevice(t *testing.T) {
	device := bluetooth.DeviceData{
		Address:     bluetooth.MacAddress{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
		AddressType: bluetooth.AddressRandom,
		Name:        "thermometer",
		RSSI:        -60,
	}

	data, err := MarshalJson(device)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"address":"AA:BB:CC:DD:EE:FF"`)
	assert.Contains(t, s, `"address_type":"random"`)
	assert.Contains(t, s, `"name":"thermometer"`)
	assert.NotContains(t, s, "paired")

	var decoded bluetooth.DeviceData
	require.NoError(t, UnmarshalJson(data, &decoded))
	assert.Equal(t, device, decoded)
}

func TestMarshalReturnsOwnedSlice(t *testing.T) {
	first, err := MarshalJson(bluetooth.CharacteristicData{UUID: "2a19", Flags: bluetooth.CharRead | bluetooth.CharNotify})
	require.NoError(t, err)

	want := string(first)

	_, err = MarshalJson(bluetooth.CharacteristicData{UUID: "2a37"})
	require.NoError(t, err)

	assert.Equal(t, want, string(first))
	assert.Contains(t, want, `"flags":"read|notify"`)
}

func TestUnmarshalUnknownField(t *testing.T) {
	var c bluetooth.CharacteristicData
	assert.Error(t, UnmarshalJson([]byte(`{"uuid":"2a19","bogus":1}`), &c))
}
