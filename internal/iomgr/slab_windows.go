//go:build windows

package iomgr

import (
	"log/slog"
	"unsafe"

	c "moooio/internal"

	"golang.org/x/sys/windows"
)

// VirtualAlloc commits whole pages, which is stricter than the sector
// alignment FILE_FLAG_NO_BUFFERING asks for.
func AllocSlab(size int) ([]byte, error) {
	n := c.AlignUp(size)
	addr, err := windows.VirtualAlloc(0, uintptr(n), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		slog.Error("AllocSlab", "err", err)
		return nil, err
	}
	// addr is outside the Go heap
	raw := unsafe.Slice((*byte)(unsafe.Add(nil, addr)), n)
	return raw[:size], nil
}

func DeallocSlab(ptr []byte) error {
	err := windows.VirtualFree(uintptr(unsafe.Pointer(unsafe.SliceData(ptr))), 0, windows.MEM_RELEASE)
	if err != nil {
		slog.Error("DeallocSlab", "err", err)
	}
	return err
}
