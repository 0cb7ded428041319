//go:build linux || darwin

package aio

import (
	"errors"

	"golang.org/x/sys/unix"
)

// engine issues the requests that go through the platform's asynchronous
// path. Everything else is a plain syscall on the fd.
type engine interface {
	pread(fd int, off int64, buf []byte) job
	pwrite(fd int, off int64, buf []byte) job
	fsync(fd int, meta bool) error
	allocate(fd int, size int64) error
}

type sysFile struct {
	fd      int
	eng     engine
	appends bool
}

func (s *sysFile) open(path string, opt OpenOption) error {
	fd, err := unix.Open(path, opt.sysFlags(), openPerm)
	if err != nil {
		return err
	}
	if opt.Has(OpenDirect) {
		if err := setNoCache(fd); err != nil {
			unix.Close(fd)
			return err
		}
	}
	s.fd = fd
	s.eng = defaultEngine()
	s.appends = opt.appends()
	return nil
}

func (s *sysFile) close() error {
	err := unix.Close(s.fd)
	s.fd = -1
	return err
}

func (s *sysFile) stat() (unix.Stat_t, error) {
	var st unix.Stat_t
	err := unix.Fstat(s.fd, &st)
	return st, err
}

func (s *sysFile) size() (int64, error) {
	st, err := s.stat()
	if err != nil {
		return 0, err
	}
	return st.Size, nil
}

func (s *sysFile) blockSize() (int, error) {
	st, err := s.stat()
	if err != nil {
		return 0, err
	}
	return int(st.Blksize), nil
}

// Growing preallocates so later writes into the range can't hit ENOSPC.
// Filesystems without fallocate get a sparse extension instead.
func (s *sysFile) resize(n int64) error {
	cur, err := s.size()
	if err != nil {
		return err
	}
	switch {
	case n == cur:
		return nil
	case n < cur:
		return unix.Ftruncate(s.fd, n)
	}
	err = s.eng.allocate(s.fd, n)
	if errors.Is(err, unix.EOPNOTSUPP) || errors.Is(err, unix.ENOSYS) {
		return unix.Ftruncate(s.fd, n)
	}
	return err
}

func (s *sysFile) read(off int64, buf []byte) job {
	return s.eng.pread(s.fd, off, buf)
}

// A negative offset means the current file position, which O_APPEND pins to
// end-of-file.
func (s *sysFile) write(off int64, buf []byte) job {
	if s.appends {
		off = -1
	}
	return s.eng.pwrite(s.fd, off, buf)
}

func (s *sysFile) sync(meta bool) error {
	return s.eng.fsync(s.fd, meta)
}
