//go:build linux || darwin

package aio

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sys/unix"
)

// poolEngine runs each request as a blocking pread/pwrite on its own
// goroutine. The semaphore caps how many sit in the kernel at once.
type poolEngine struct {
	sem *semaphore.Weighted
}

func newPoolEngine() poolEngine {
	return poolEngine{sem: semaphore.NewWeighted(int64(max(16, 4*runtime.GOMAXPROCS(0))))}
}

type threadJob struct {
	done chan struct{}
	res  completion
}

func (e poolEngine) spawn(fn func() (int, error)) *threadJob {
	j := &threadJob{done: make(chan struct{})}
	go func() {
		_ = e.sem.Acquire(context.Background(), 1)
		n, err := fn()
		e.sem.Release(1)
		if err != nil {
			n = 0
		}
		j.res = completion{n: n, err: err}
		close(j.done)
	}()
	return j
}

func (j *threadJob) await(timeout time.Duration) (completion, bool, error) {
	if !waitChan(j.done, timeout) {
		return completion{}, false, nil
	}
	return j.res, true, nil
}

func (*threadJob) release() {}

func (e poolEngine) pread(fd int, off int64, buf []byte) job {
	return e.spawn(func() (int, error) { return unix.Pread(fd, buf, off) })
}

func (e poolEngine) pwrite(fd int, off int64, buf []byte) job {
	if off < 0 {
		return e.spawn(func() (int, error) { return unix.Write(fd, buf) })
	}
	return e.spawn(func() (int, error) { return unix.Pwrite(fd, buf, off) })
}

func (poolEngine) fsync(fd int, meta bool) error {
	return fsyncFd(fd, meta)
}

func (poolEngine) allocate(fd int, size int64) error {
	return fallocate(fd, size)
}
