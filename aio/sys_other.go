//go:build !linux && !darwin && !windows

package aio

import "errors"

// No asynchronous file backend on this platform: Open always fails.
type sysFile struct{}

func (*sysFile) open(string, OpenOption) error { return errors.ErrUnsupported }
func (*sysFile) close() error                  { return nil }
func (*sysFile) size() (int64, error)          { return 0, errors.ErrUnsupported }
func (*sysFile) resize(int64) error            { return errors.ErrUnsupported }
func (*sysFile) blockSize() (int, error)       { return 0, errors.ErrUnsupported }
func (*sysFile) read(int64, []byte) job        { return doneJob{err: errors.ErrUnsupported} }
func (*sysFile) write(int64, []byte) job       { return doneJob{err: errors.ErrUnsupported} }
func (*sysFile) sync(bool) error               { return errors.ErrUnsupported }
