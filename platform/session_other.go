//go:build !linux

package platform

import (
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/bluetuith-org/blz/api/config"
	"github.com/bluetuith-org/blz/api/errorkinds"
	"github.com/bluetuith-org/blz/bluez"
)

// Open returns a platform-specific session.
// Only BlueZ is supported, so this always fails.
func Open(_ config.Configuration, _ ...bluez.Option) (*bluez.Session, PlatformInfo, error) {
	return nil, Info(), fault.Wrap(errorkinds.ErrNotSupported, fmsg.With("No supported Bluetooth stack on this platform"))
}

// Info returns information about the platform's Bluetooth stack.
func Info() PlatformInfo {
	return NewPlatformInfo(UnsupportedStack)
}
