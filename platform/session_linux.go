//go:build linux

package platform

import (
	"github.com/bluetuith-org/blz/api/config"
	"github.com/bluetuith-org/blz/bluez"
)

// Open returns a platform-specific session.
func Open(cfg config.Configuration, opts ...bluez.Option) (*bluez.Session, PlatformInfo, error) {
	session, err := bluez.Open(cfg, opts...)

	return session, Info(), err
}

// Info returns information about the platform's Bluetooth stack.
func Info() PlatformInfo {
	return NewPlatformInfo(BluezStack)
}
