package entity

import "errors"

// ErrEmptyFrame reports a sampled frame that carries no pixel data. The
// frame is skipped; the task keeps going.
var ErrEmptyFrame = errors.New("frame is empty or unreadable")

// ValidationError rejects an upload before anything touches storage.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// StorageError covers write/rename/log I/O failures and videos that cannot
// be opened. It is fatal for the operation that raised it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// InferenceError covers backend network failures, timeouts and non-success
// responses. Callers skip the affected frame and continue.
type InferenceError struct {
	Op  string
	Err error
}

func (e *InferenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}
