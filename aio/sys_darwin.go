package aio

import (
	"sync"

	"golang.org/x/sys/unix"
)

var defaultEngine = sync.OnceValue(func() engine { return newPoolEngine() })

func setNoCache(fd int) error {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_NOCACHE, 1)
	return err
}

// fsync on darwin only reaches the drive's cache, F_FULLFSYNC goes through it.
// There is no data-only flush.
func fsyncFd(fd int, meta bool) error {
	if meta {
		if _, err := unix.FcntlInt(uintptr(fd), unix.F_FULLFSYNC, 0); err == nil {
			return nil
		}
	}
	return unix.Fsync(fd)
}

func fallocate(int, int64) error {
	return unix.EOPNOTSUPP
}
