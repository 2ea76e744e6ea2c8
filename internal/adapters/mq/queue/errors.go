package queue

import "errors"

// Sentinel errors returned by TryEnqueue.
var (
	ErrClosed = errors.New("rescore queue closed")
	ErrFull   = errors.New("rescore queue full")
)
