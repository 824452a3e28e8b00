package platform

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	info := Info()

	assert.Contains(t, info.OS, runtime.GOOS)
	assert.Contains(t, info.OS, runtime.GOARCH)
	assert.Equal(t, runtime.GOOS == "linux", info.Supported())

	if runtime.GOOS == "linux" {
		assert.Equal(t, "BlueZ (DBus)", info.Stack.String())
	}
}
