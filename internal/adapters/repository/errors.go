package repository

import "errors"

// ErrWrite is returned when a province document cannot be persisted.
var ErrWrite = errors.New("write province document")
