// Package login registers loudctl to start with the desktop session.
package login

import "errors"

var ErrUnsupported = errors.New("start on login is not supported on this platform")

// Args are passed to the executable when it is launched at login.
var Args []string
