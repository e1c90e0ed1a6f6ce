package session

import "errors"

// ErrSessionExpired is returned by Login when the supplied session's expiry
// is already in the past. The manager stays logged out instead of arming a
// timer that would fire immediately.
var ErrSessionExpired = errors.New("session: already expired")
