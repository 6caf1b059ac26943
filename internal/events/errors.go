package events

import "errors"

var ErrClosed = errors.New("broker closed")
