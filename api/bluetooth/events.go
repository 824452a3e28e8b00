package bluetooth

// EventID identifies a published event stream.
type EventID uint

const (
	EventNone EventID = iota
	EventDevice
	EventConnection
	EventNotification
)

// EventAction describes what happened to the subject of an event.
type EventAction string

const (
	EventActionAdded   EventAction = "added"
	EventActionUpdated EventAction = "updated"
	EventActionRemoved EventAction = "removed"
)

// Events constrains the payload types of events.
type Events interface {
	DeviceData | ConnectionEventData | NotificationEventData
}

// Event describes a published event with a typed payload.
type Event[T Events] struct {
	ID     EventID     `json:"event_id,omitempty"`
	Action EventAction `json:"event_action,omitempty"`
	Data   T           `json:"event,omitempty"`
}

// ConnectionEventData holds a change in the connection state of a device.
type ConnectionEventData struct {
	Address MacAddress `json:"address,omitempty"`
	State   string     `json:"state,omitempty"`
}

// NotificationEventData holds a received characteristic value.
type NotificationEventData struct {
	Address MacAddress `json:"address,omitempty"`
	UUID    string     `json:"uuid,omitempty"`
	Value   []byte     `json:"value,omitempty"`
}

// Value returns the numeric identifier of the event.
func (e EventID) Value() uint {
	return uint(e)
}

// String returns the name of the event.
func (e EventID) String() string {
	switch e {
	case EventDevice:
		return "device"
	case EventConnection:
		return "connection"
	case EventNotification:
		return "notification"
	}

	return "none"
}
