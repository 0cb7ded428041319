//go:build linux || darwin || windows

package aio

import "moooio/internal/iomgr"

// AllocAligned returns an n byte buffer starting on a page boundary, which
// satisfies the alignment OpenDirect needs on every supported platform. It
// lives outside the Go heap and must be returned with FreeAligned once no
// request is using it.
func AllocAligned(n int) ([]byte, error) {
	return iomgr.AllocSlab(n)
}

func FreeAligned(buf []byte) error {
	return iomgr.DeallocSlab(buf)
}
