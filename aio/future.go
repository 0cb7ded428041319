package aio

import (
	"runtime"
	"sync"
	"time"
)

// Status is the outcome of a bounded wait.
type Status int

const (
	StatusReady Status = iota
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusTimeout:
		return "timeout"
	}
	return "unknown"
}

// completion is the outcome of one native request: bytes transferred, or the
// native error it failed with.
type completion struct {
	n   int
	err error
}

// job is one native request as seen by its backend.
type job interface {
	// await blocks until the request completes or timeout elapses. Negative
	// timeouts wait forever, zero polls. err is a failure of the wait itself,
	// the request's own failure is in completion.err.
	await(timeout time.Duration) (c completion, ready bool, err error)
	// release frees the native job structure. Only called once await has
	// reported ready.
	release()
}

// doneJob is a request that failed before it reached the kernel.
type doneJob completion

func (j doneJob) await(time.Duration) (completion, bool, error) { return completion(j), true, nil }
func (doneJob) release()                                        {}

func waitChan(ch <-chan struct{}, timeout time.Duration) bool {
	switch {
	case timeout < 0:
		<-ch
		return true
	case timeout == 0:
		select {
		case <-ch:
			return true
		default:
			return false
		}
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-ch:
		return true
	case <-t.C:
		return false
	}
}

// Future is the completion handle for one asynchronous read or write. It is
// created by Channel.Read and Channel.Write and consumed by exactly one Get
// (or Discard). It may be waited on from any goroutine; concurrent calls are
// serialized.
//
// The buffer passed to Read/Write must not be reused until the Future has been
// waited on. Futures dropped without Get are discarded by a finalizer, which
// blocks until the request completes.
type Future struct {
	_    noCopy
	mu   sync.Mutex
	op   string
	path string
	job  job
	done bool
	res  completion
	// the issuing file, so its finalizer can't close the fd under the request
	keep *file
}

type strandedJob struct {
	job  job
	keep *file
}

var stranded struct {
	sync.Mutex
	jobs []strandedJob
}

func newFuture(op, path string, j job) *Future {
	f := &Future{op: op, path: path, job: j}
	runtime.SetFinalizer(f, (*Future).Discard)
	return f
}

func failedFuture(op, path string, err error) *Future {
	return newFuture(op, path, doneJob{err: err})
}

// Valid reports whether f still owns a request, i.e. it was neither consumed
// by Get or Discard nor moved from.
func (f *Future) Valid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.job != nil
}

func (f *Future) wait(timeout time.Duration) (Status, error) {
	if f.job == nil {
		return StatusTimeout, ErrNoState
	}
	if f.done {
		return StatusReady, nil
	}
	c, ready, err := f.job.await(timeout)
	if err != nil {
		return StatusTimeout, pathErr("wait", f.path, err)
	}
	if !ready {
		return StatusTimeout, nil
	}
	f.res, f.done = c, true
	return StatusReady, nil
}

// Wait blocks until the request completes. It only fails on a Future without
// state; the request's own outcome is reported by Get.
func (f *Future) Wait() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.wait(-1)
	return err
}

// WaitFor waits at most d. A timeout leaves the request outstanding and f
// pending, later waits pick it up again. d <= 0 polls.
func (f *Future) WaitFor(d time.Duration) (Status, error) {
	if d < 0 {
		d = 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wait(d)
}

// WaitUntil is WaitFor with an absolute deadline.
func (f *Future) WaitUntil(deadline time.Time) (Status, error) {
	return f.WaitFor(time.Until(deadline))
}

// Get waits for the request, releases it and returns the number of bytes
// transferred. A short count is not an error: a read at or past end-of-file
// returns 0, nil. Get can only succeed once, after that it returns ErrNoState.
func (f *Future) Get() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.wait(-1); err != nil {
		return 0, err
	}
	res := f.res
	f.consume()
	if res.err != nil {
		return 0, pathErr(f.op, f.path, res.err)
	}
	return res.n, nil
}

// Discard is Get without the result. It blocks until the request completes so
// neither the job structure nor the buffer is reclaimed under the kernel.
// Errors are dropped; on a Future without state it does nothing.
func (f *Future) Discard() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.job == nil {
		return
	}
	if _, err := f.wait(-1); err != nil {
		// Completion was never observed so the job can't be released. Park it
		// where the GC can't reclaim it under the kernel.
		stranded.Lock()
		stranded.jobs = append(stranded.jobs, strandedJob{job: f.job, keep: f.keep})
		stranded.Unlock()
		f.job, f.keep = nil, nil
		runtime.SetFinalizer(f, nil)
		return
	}
	f.consume()
}

// Move transfers the request to a new Future and leaves f without state.
func (f *Future) Move() *Future {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := &Future{op: f.op, path: f.path, job: f.job, done: f.done, res: f.res, keep: f.keep}
	if m.job != nil {
		runtime.SetFinalizer(m, (*Future).Discard)
	}
	f.job, f.done, f.res, f.keep = nil, false, completion{}, nil
	runtime.SetFinalizer(f, nil)
	return m
}

func (f *Future) consume() {
	f.job.release()
	f.job, f.done, f.keep = nil, false, nil
	runtime.SetFinalizer(f, nil)
}
