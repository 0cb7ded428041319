//go:build unix

package iomgr

import (
	"log/slog"

	c "moooio/internal"

	"golang.org/x/sys/unix"
)

const MMAP_MODE   	= unix.MAP_ANON  | unix.MAP_PRIVATE
const MMAP_PROT   	= unix.PROT_READ | unix.PROT_WRITE

// For aligned buffers, mostly for DIRECT files - not for io_uring itself, the
// ring is mapped by giouring. mmap hands back whole pages so the slab is
// aligned to the system page size (check using: `getconf PAGESIZE`).
func AllocSlab(size int) ([]byte, error) {
	raw, err := unix.Mmap(-1, 0, c.AlignUp(size), MMAP_PROT, MMAP_MODE)
	if err != nil {
		slog.Error("AllocSlab", "err", err)
		return nil, err
	}
	return raw[:size], nil
}

func DeallocSlab(ptr []byte) error {
	err := unix.Munmap(ptr[:cap(ptr)])
	if err != nil {
		slog.Error("DeallocSlab", "err", err)
	}
	return err
}
