package aio

import (
	"log/slog"
	"sync"
	"time"

	"moooio/internal/iomgr"

	"golang.org/x/sys/unix"
)

// The shared ring when the kernel lets us have one, goroutines otherwise.
var defaultEngine = sync.OnceValue(func() engine {
	mgr, err := iomgr.Default()
	if err != nil {
		slog.Warn("io_uring unavailable, falling back to blocking pread/pwrite", "src", "Channel", "err", err)
		return newPoolEngine()
	}
	return ringEngine{mgr: mgr}
})

// O_DIRECT is already in the open flags.
func setNoCache(int) error { return nil }

func fsyncFd(fd int, meta bool) error {
	if meta {
		return unix.Fsync(fd)
	}
	return unix.Fdatasync(fd)
}

func fallocate(fd int, size int64) error {
	return unix.Fallocate(fd, 0, 0, size)
}

type ringEngine struct {
	mgr *iomgr.IoMgr
}

type uringJob struct {
	op *iomgr.Op
}

func (j uringJob) await(timeout time.Duration) (completion, bool, error) {
	if !waitChan(j.op.Done(), timeout) {
		return completion{}, false, nil
	}
	if err := j.op.Err(); err != nil {
		return completion{err: err}, true, nil
	}
	return completion{n: int(j.op.Result())}, true, nil
}

// the ring already unpinned and dropped the op
func (uringJob) release() {}

func (e ringEngine) submit(op *iomgr.Op) job {
	if err := e.mgr.Submit(op); err != nil {
		return doneJob{err: err}
	}
	return uringJob{op: op}
}

// blocking round trip through the ring
func (e ringEngine) run(op *iomgr.Op) error {
	c, _, _ := e.submit(op).await(-1)
	return c.err
}

func (e ringEngine) pread(fd int, off int64, buf []byte) job {
	return e.submit(&iomgr.Op{Opcode: iomgr.OpRead, Fd: fd, Buf: buf, Off: uint64(off)})
}

func (e ringEngine) pwrite(fd int, off int64, buf []byte) job {
	return e.submit(&iomgr.Op{Opcode: iomgr.OpWrite, Fd: fd, Buf: buf, Off: uint64(off)})
}

func (e ringEngine) fsync(fd int, meta bool) error {
	return e.run(&iomgr.Op{Opcode: iomgr.OpSync, Fd: fd, Datasync: !meta})
}

func (e ringEngine) allocate(fd int, size int64) error {
	return e.run(&iomgr.Op{Opcode: iomgr.OpAllocate, Fd: fd, Size: uint64(size)})
}
