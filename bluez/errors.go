package bluez

import (
	"context"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fctx"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/bluetuith-org/blz/api/errorkinds"
)

// wrapError returns a fault chain rooted at the error kind and its cause.
// A cause naming an object the daemon does not know also carries ErrObjectNotFound.
func wrapError(kind, cause error, at, msg string) error {
	if kind != errorkinds.ErrObjectNotFound && errorkinds.IsRemote(cause, errUnknownObject) {
		cause = errorkinds.New(errorkinds.ErrObjectNotFound, cause)
	}

	return fault.Wrap(errorkinds.New(kind, cause),
		fctx.With(context.Background(), "error_at", at),
		ftag.With(tagOf(kind)),
		fmsg.With(msg),
	)
}

func tagOf(kind error) ftag.Kind {
	switch kind {
	case errorkinds.ErrObjectNotFound, errorkinds.ErrCharacteristicNotFound, errorkinds.ErrAdapterNotFound:
		return ftag.NotFound

	case errorkinds.ErrPathConstruction, errorkinds.ErrNotSupported, errorkinds.ErrNotifyActive:
		return ftag.InvalidArgument
	}

	return ftag.Internal
}

func errSessionClosed() error {
	return wrapError(errorkinds.ErrSessionNotExist, nil, "session", "Session is closed")
}
