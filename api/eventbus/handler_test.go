package eventbus

import (
	"testing"
	"time"

	"github.com/bluetuith-org/blz/api/bluetooth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHandlerCreatedOnSubscribe(t *testing.T) {
	// GOAL: Verify no pubsub is started until someone subscribes
	//
	// TEST SCENARIO: no handler, Publish → dropped, still no handler → Subscribe creates it → events delivered

	mu.Lock()
	handler = nil
	mu.Unlock()
	t.Cleanup(func() { RegisterEventHandler(DefaultHandler()) })

	Publish(bluetooth.EventDevice, bluetooth.EventActionAdded, bluetooth.DeviceData{Name: "dropped"})

	mu.RLock()
	assert.Nil(t, handler, "Publish MUST NOT create a handler")
	mu.RUnlock()

	sub := Subscribe[bluetooth.DeviceData](bluetooth.EventDevice)
	defer sub.Unsubscribe()

	mu.RLock()
	assert.NotNil(t, handler)
	mu.RUnlock()

	Publish(bluetooth.EventDevice, bluetooth.EventActionAdded, bluetooth.DeviceData{Name: "sensor"})

	select {
	case ev := <-sub.C:
		assert.Equal(t, "sensor", ev.Data.Name)

	case <-time.After(time.Second):
		require.Fail(t, "event MUST be delivered")
	}
}
