package aio

import (
	"math"
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// FILE_INFO_BY_HANDLE_CLASS
const (
	fileEndOfFileInfo = 6
	fileStorageInfo   = 16
)

type fileEndOfFile struct {
	EndOfFile int64
}

type fileStorage struct {
	LogicalBytesPerSector                                 uint32
	PhysicalBytesPerSectorForAtomicity                    uint32
	PhysicalBytesPerSectorForPerformance                  uint32
	FileSystemEffectivePhysicalBytesPerSectorForAtomicity uint32
	Flags                                                 uint32
	ByteOffsetForSectorAlignment                          uint32
	ByteOffsetForPartitionAlignment                       uint32
}

type sysFile struct {
	h        windows.Handle
	writable bool
	appends  bool
}

func (s *sysFile) open(path string, opt OpenOption) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	h, err := windows.CreateFile(p,
		opt.sysAccess(),
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		opt.sysDisposition(),
		opt.sysAttrs(),
		0)
	if err != nil {
		return err
	}
	s.h = h
	s.writable = opt.Has(OpenWrite)
	s.appends = opt.appends()
	return nil
}

func (s *sysFile) close() error {
	err := windows.CloseHandle(s.h)
	s.h = windows.InvalidHandle
	return err
}

func (s *sysFile) size() (int64, error) {
	var info windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(s.h, &info); err != nil {
		return 0, err
	}
	return int64(info.FileSizeHigh)<<32 | int64(info.FileSizeLow), nil
}

func (s *sysFile) resize(n int64) error {
	info := fileEndOfFile{EndOfFile: n}
	return windows.SetFileInformationByHandle(s.h, fileEndOfFileInfo, (*byte)(unsafe.Pointer(&info)), uint32(unsafe.Sizeof(info)))
}

func (s *sysFile) blockSize() (int, error) {
	var info fileStorage
	err := windows.GetFileInformationByHandleEx(s.h, fileStorageInfo, (*byte)(unsafe.Pointer(&info)), uint32(unsafe.Sizeof(info)))
	if err != nil {
		return 0, err
	}
	return int(info.PhysicalBytesPerSectorForPerformance), nil
}

// FlushFileBuffers needs GENERIC_WRITE. A read-only handle has no writes of
// its own to flush.
func (s *sysFile) sync(bool) error {
	if !s.writable {
		return nil
	}
	return windows.FlushFileBuffers(s.h)
}

func (s *sysFile) read(off int64, buf []byte) job {
	return s.issue(off, buf, false)
}

func (s *sysFile) write(off int64, buf []byte) job {
	if s.appends {
		// both halves all ones: write at end of file
		off = -1
	}
	return s.issue(off, buf, true)
}

// ReadFile/WriteFile take 32 bit lengths
var maxRW uint64 = math.MaxUint32

// overlappedJob owns the OVERLAPPED and its event. Both, and the buffer, are
// pinned until release since the kernel writes to them asynchronously.
type overlappedJob struct {
	h   windows.Handle
	ov  windows.Overlapped
	buf []byte
	pin runtime.Pinner
}

func (s *sysFile) issue(off int64, buf []byte, write bool) job {
	ev, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		return doneJob{err: err}
	}
	if uint64(len(buf)) > maxRW {
		buf = buf[:maxRW]
	}

	j := &overlappedJob{h: s.h, buf: buf}
	j.ov.HEvent = ev
	j.ov.Offset = uint32(off)
	j.ov.OffsetHigh = uint32(off >> 32)
	j.pin.Pin(j)
	if len(buf) > 0 {
		j.pin.Pin(unsafe.SliceData(buf))
	}

	if write {
		err = windows.WriteFile(s.h, buf, nil, &j.ov)
	} else {
		err = windows.ReadFile(s.h, buf, nil, &j.ov)
	}
	if err != nil && err != windows.ERROR_IO_PENDING {
		j.release()
		if err == windows.ERROR_HANDLE_EOF {
			return doneJob{}
		}
		return doneJob{err: err}
	}
	return j
}

func millis(d time.Duration) uint32 {
	ms := (d + time.Millisecond - 1) / time.Millisecond
	if ms >= windows.INFINITE {
		return windows.INFINITE - 1
	}
	return uint32(ms)
}

func (j *overlappedJob) await(timeout time.Duration) (completion, bool, error) {
	if timeout >= 0 {
		ev, err := windows.WaitForSingleObject(j.ov.HEvent, millis(timeout))
		if err != nil {
			return completion{}, false, err
		}
		if ev == uint32(windows.WAIT_TIMEOUT) {
			return completion{}, false, nil
		}
	}

	var n uint32
	err := windows.GetOverlappedResult(j.h, &j.ov, &n, true)
	switch err {
	case nil:
		return completion{n: int(n)}, true, nil
	case windows.ERROR_HANDLE_EOF:
		return completion{}, true, nil
	default:
		return completion{err: err}, true, nil
	}
}

func (j *overlappedJob) release() {
	windows.CloseHandle(j.ov.HEvent)
	j.pin.Unpin()
	j.buf = nil
}
