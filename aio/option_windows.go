package aio

import "golang.org/x/sys/windows"

func (o OpenOption) sysAccess() uint32 {
	access := uint32(windows.GENERIC_READ)
	if o.Has(OpenWrite) {
		access |= windows.GENERIC_WRITE
	}
	return access
}

func (o OpenOption) sysDisposition() uint32 {
	switch o.disposition() {
	case createNew:
		return windows.CREATE_NEW
	case createAlways:
		return windows.CREATE_ALWAYS
	case openAlways:
		return windows.OPEN_ALWAYS
	case truncateExisting:
		return windows.TRUNCATE_EXISTING
	default:
		return windows.OPEN_EXISTING
	}
}

func (o OpenOption) sysAttrs() uint32 {
	attrs := uint32(windows.FILE_FLAG_OVERLAPPED)
	// no data-only variant of write-through
	if o.Has(OpenSync) || o.Has(OpenDSync) {
		attrs |= windows.FILE_FLAG_WRITE_THROUGH
	}
	if o.Has(OpenDirect) {
		attrs |= windows.FILE_FLAG_NO_BUFFERING
	}
	return attrs
}
