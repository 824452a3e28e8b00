package errorkinds

import (
	"errors"
	"strings"
)

var (
	ErrSessionNotExist        = errors.New("session does not exist")
	ErrPathConstruction       = errors.New("object path cannot be constructed")
	ErrConnection             = errors.New("cannot connect to the system bus")
	ErrAdapterNotFound        = errors.New("adapter not found")
	ErrPowerOn                = errors.New("adapter cannot be powered on")
	ErrPropertyAccess         = errors.New("property cannot be accessed")
	ErrObjectNotFound         = errors.New("object not found")
	ErrCharacteristicNotFound = errors.New("characteristic not found")
	ErrNotSupported           = errors.New("operation not supported")
	ErrRemoteCall             = errors.New("remote call failed")
	ErrTimeout                = errors.New("timed out")
	ErrNotifyActive           = errors.New("notifications already active")
	ErrInvalidState           = errors.New("invalid state")
)

// KindError ties an error kind from this package to the error that caused it.
// Both are reachable with errors.Is and errors.As.
type KindError struct {
	Kind  error
	Cause error
}

// New returns a KindError of the given kind. A nil cause is allowed.
func New(kind error, cause error) error {
	return &KindError{Kind: kind, Cause: cause}
}

// Error returns the kind, followed by the cause if present.
func (k *KindError) Error() string {
	if k.Cause == nil {
		return k.Kind.Error()
	}

	return k.Kind.Error() + ": " + k.Cause.Error()
}

// Unwrap returns the kind and the cause.
func (k *KindError) Unwrap() []error {
	if k.Cause == nil {
		return []error{k.Kind}
	}

	return []error{k.Kind, k.Cause}
}

// RemoteError describes an explicit error reply from the remote daemon.
type RemoteError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Error returns the remote error name and message.
func (r *RemoteError) Error() string {
	sb := strings.Builder{}

	sb.WriteString(r.Name)
	sb.WriteString(": ")
	if r.Message == "" {
		sb.WriteString("No information is provided for this error")
	} else {
		sb.WriteString(r.Message)
	}

	return sb.String()
}

// Is reports whether target is ErrRemoteCall.
func (r *RemoteError) Is(target error) bool {
	return target == ErrRemoteCall
}

// IsRemote reports whether err carries a remote error with the given name.
func IsRemote(err error, name string) bool {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Name == name
	}

	return false
}
