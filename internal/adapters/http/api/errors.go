package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrServe   = errors.New("ops server failed")
	ErrNoStats = errors.New("no run attached")
)
