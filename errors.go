package xled

import (
	"fmt"
	"os"
	"time"

	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/xled/color"
)

var (
	// ErrNetworkUnreachable is returned when a device did not answer, the caller
	// is expected to carry on and retry on a later call
	ErrNetworkUnreachable = errors.New("device unreachable")

	// ErrAuthenticationFailure is returned when the device rejected a login, further
	// logins are suppressed until the session failure is cleared
	ErrAuthenticationFailure = errors.New("device authentication failed")

	ErrInvalidArgument = color.ErrInvalidArgument
	ErrMalformedInput  = color.ErrMalformedInput
)

// sendErr reports a background failure without blocking the sender forever
func sendErr(errorC chan<- errors.Error, err errors.Error) {
	if errorC == nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return
	}
	select {
	case errorC <- err:
	case <-time.After(100 * time.Millisecond):
		fmt.Fprintln(os.Stderr, err.Error())
	}
}
