//go:build linux || darwin

package aio

import "golang.org/x/sys/unix"

const openPerm = 0o640

func (o OpenOption) sysFlags() int {
	flags := unix.O_RDONLY | unix.O_CLOEXEC
	if o.Has(OpenWrite) {
		flags = unix.O_RDWR | unix.O_CLOEXEC
		if o.Has(OpenAppend) {
			flags |= unix.O_APPEND
		}
	}

	switch o.disposition() {
	case createNew:
		flags |= unix.O_CREAT | unix.O_EXCL
	case createAlways:
		flags |= unix.O_CREAT | unix.O_TRUNC
	case openAlways:
		flags |= unix.O_CREAT
	case truncateExisting:
		flags |= unix.O_TRUNC
	}

	if o.Has(OpenSync) {
		flags |= unix.O_SYNC
	} else if o.Has(OpenDSync) {
		flags |= unix.O_DSYNC
	}
	if o.Has(OpenDirect) {
		flags |= oDirect
	}
	return flags
}
