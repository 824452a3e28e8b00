package main

import (
	"github.com/Southclaws/fault/ftag"
)

// formatUserError returns the message of an error chain, with a hint for
// errors about things that could not be found.
func formatUserError(err error) string {
	msg := err.Error()

	if ftag.Get(err) == ftag.NotFound {
		msg += "; is the device in range and the adapter present?"
	}

	return msg
}
