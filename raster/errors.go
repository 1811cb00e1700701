package raster

import (
	"errors"
	"fmt"
)

var (
	// ErrZeroDimension is returned when a width, height, or extent of zero would make
	// downstream arithmetic undefined.
	ErrZeroDimension = errors.New("encountered an object with zero dimension")

	// ErrInvalidRange is returned for a row range or coordinate outside its allowed bounds.
	ErrInvalidRange = errors.New("invalid range")

	// ErrShapeMismatch is returned when a buffer does not match the requested extent.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// ReadError wraps a failed backend read along with the window that was requested.
// The underlying error is passed through unchanged via Unwrap.
type ReadError struct {
	Window RasterWindow
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read of %s failed: %v", e.Window, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// NewReadError returns nil if err is nil, otherwise a *ReadError for the window.
// Errors that are already a *ReadError are returned as is.
func NewReadError(w RasterWindow, err error) error {
	if err == nil {
		return nil
	}
	var re *ReadError
	if errors.As(err, &re) {
		return err
	}
	return &ReadError{Window: w, Err: err}
}
