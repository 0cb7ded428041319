//go:build linux

package iomgr

import (
	"fmt"
	"strings"
	"unsafe"
)

func (c OpCode) String() string {
	switch c {
	case OpNop:
		return "NOP"
	case OpWrite:
		return "WRITE"
	case OpRead:
		return "READ"
	case OpSync:
		return "FSYNC"
	case OpAllocate:
		return "FALLOCATE"
	}
	return fmt.Sprintf("OpCode(%d)", uint16(c))
}

func (o *Op) String() string {
	if o == nil {
		return "<nil>"
	}

	done := false
	if o.done != nil {
		select {
		case <-o.done:
			done = true
		default:
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Op | Opcode: %v, Fd: 0x%x, Done: %v, Res: 0x%x | Ch: @0x%x\n",
		o.Opcode, o.Fd, done, o.Result(), unsafe.Pointer(&o.done))

	switch o.Opcode {
	case OpWrite, OpRead:
		fmt.Fprintf(&b, "   > %-9s [ Buf: @0x%x | Len: 0x%08x | Off: 0x%08x]\n",
			o.Opcode, bufPtr(o.Buf), bufLen(o.Buf), o.Off)
	case OpSync:
		fmt.Fprintf(&b, "   > %-9s [ datasync: %v ]\n", o.Opcode, o.Datasync)
	case OpAllocate:
		fmt.Fprintf(&b, "   > %-9s [ Off: 0x%08x | Len: 0x%08x ]\n", o.Opcode, o.Off, o.Size)
	}

	return b.String()
}
