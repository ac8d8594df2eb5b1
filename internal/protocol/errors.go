package protocol

import "errors"

var (
	ErrMalformed    = errors.New("malformed event")
	ErrUnknownEvent = errors.New("unknown event")
)
