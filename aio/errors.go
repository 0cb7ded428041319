package aio

import (
	"errors"
	"io/fs"
)

var (
	// ErrNoState is returned by waits on a Future that was already consumed
	// by Get or Discard, or moved from. It is a usage error, not an I/O one.
	ErrNoState = errors.New("aio: future has no associated state")

	// ErrNotOpen is returned by operations on a Channel that is not open.
	ErrNotOpen = errors.New("aio: channel not open")
)

// Native failures are reported as *fs.PathError with the platform errno in
// Err, so errors.Is against fs.ErrExist and friends works everywhere.
func pathErr(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &fs.PathError{Op: op, Path: path, Err: err}
}
