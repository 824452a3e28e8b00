package platform

import "runtime"

type BluetoothStack string

const (
	BluezStack       BluetoothStack = "BlueZ (DBus)"
	UnsupportedStack BluetoothStack = "Unsupported"
)

// PlatformInfo describes platform-specific information.
type PlatformInfo struct {
	OS    string         `json:"os,omitempty" codec:"os,omitempty"`
	Stack BluetoothStack `json:"bluetooth_stack,omitempty" codec:"bluetooth_stack,omitempty"`
}

// NewPlatformInfo returns a new PlatformInfo.
func NewPlatformInfo(stack BluetoothStack) PlatformInfo {
	return PlatformInfo{
		OS:    runtime.GOOS + " (" + runtime.GOARCH + ")",
		Stack: stack,
	}
}

// Supported reports whether a Bluetooth stack is available on this platform.
func (p PlatformInfo) Supported() bool {
	return p.Stack != UnsupportedStack
}

// String converts a BluetoothStack to a string.
func (b BluetoothStack) String() string {
	return string(b)
}
