// Package aio is an offset-addressed asynchronous file channel. Reads and
// writes are handed to the platform's native asynchronous I/O (io_uring on
// Linux, overlapped I/O on Windows) and return a Future right away; metadata
// operations are synchronous.
package aio

import (
	"errors"
	"io/fs"
	"log/slog"
	"runtime"
	"time"
)

// noCopy makes go vet's copylocks check flag copies of the types embedding it.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// what every backend's sysFile provides
var _ interface {
	open(path string, opt OpenOption) error
	close() error
	size() (int64, error)
	resize(n int64) error
	blockSize() (int, error)
	read(off int64, buf []byte) job
	write(off int64, buf []byte) job
	sync(meta bool) error
} = (*sysFile)(nil)

// Channel owns one open file. The zero value is a closed channel.
//
// Reads and writes may be issued from many goroutines at once. Open, Close and
// Move must not race with anything else, and a channel must not be closed
// while Futures it issued are still unwaited.
type Channel struct {
	_ noCopy
	f *file
}

type file struct {
	sys  sysFile
	path string
	opt  OpenOption
	log  *slog.Logger
}

// Open opens path with the given options.
func Open(path string, opt OpenOption) (*Channel, error) {
	c := &Channel{}
	if err := c.Open(path, opt); err != nil {
		return nil, err
	}
	return c, nil
}

// Open closes whatever c had open, then opens path.
func (c *Channel) Open(path string, opt OpenOption) error {
	c.Close()

	f := &file{path: path, opt: opt, log: slog.With("src", "Channel", "path", path)}
	if err := f.sys.open(path, opt); err != nil {
		return pathErr("open", path, err)
	}
	runtime.SetFinalizer(f, (*file).close)
	c.f = f

	f.log.Debug("open", "opt", opt)
	return nil
}

func (c *Channel) IsOpen() bool {
	return c.f != nil
}

// Path is the path c was opened with, empty if closed.
func (c *Channel) Path() string {
	if c.f == nil {
		return ""
	}
	return c.f.path
}

func (c *Channel) Options() OpenOption {
	if c.f == nil {
		return OpenRead
	}
	return c.f.opt
}

// Size is the file's current length in bytes.
func (c *Channel) Size() (int64, error) {
	if c.f == nil {
		return 0, ErrNotOpen
	}
	n, err := c.f.sys.size()
	return n, pathErr("stat", c.f.path, err)
}

// Resize grows or shrinks the file to n bytes. Growing keeps the existing
// bytes, shrinking drops everything past n.
func (c *Channel) Resize(n int64) error {
	if c.f == nil {
		return ErrNotOpen
	}
	if n < 0 {
		return pathErr("truncate", c.f.path, fs.ErrInvalid)
	}
	return pathErr("truncate", c.f.path, c.f.sys.resize(n))
}

// BlockSize is the device's preferred I/O size. Buffers, offsets and lengths
// used with OpenDirect should be multiples of it.
func (c *Channel) BlockSize() (int, error) {
	if c.f == nil {
		return 0, ErrNotOpen
	}
	n, err := c.f.sys.blockSize()
	return n, pathErr("stat", c.f.path, err)
}

// Read issues one read of up to len(buf) bytes at off and returns without
// waiting for it. buf belongs to the request until the Future is waited on.
func (c *Channel) Read(off int64, buf []byte) *Future {
	if c.f == nil {
		return failedFuture("read", "", ErrNotOpen)
	}
	if off < 0 {
		return failedFuture("read", c.f.path, fs.ErrInvalid)
	}
	return c.f.future("read", c.f.sys.read(off, buf))
}

// Write issues one write of buf at off and returns without waiting for it.
// With OpenAppend the data lands at end-of-file whatever off is. buf belongs
// to the request until the Future is waited on.
func (c *Channel) Write(off int64, buf []byte) *Future {
	if c.f == nil {
		return failedFuture("write", "", ErrNotOpen)
	}
	if off < 0 {
		return failedFuture("write", c.f.path, fs.ErrInvalid)
	}
	return c.f.future("write", c.f.sys.write(off, buf))
}

// Sync blocks until written data is durable, and metadata too when meta is
// set. Platforms that can't flush data alone always flush both.
func (c *Channel) Sync(meta bool) error {
	if c.f == nil {
		return ErrNotOpen
	}
	op := "datasync"
	if meta {
		op = "sync"
	}
	return pathErr(op, c.f.path, c.f.sys.sync(meta))
}

// Close flushes data and metadata, then releases the file. It never fails:
// errors are logged and dropped, call Sync first to observe them. Closing a closed channel does
// nothing.
func (c *Channel) Close() {
	f := c.f
	if f == nil {
		return
	}
	c.f = nil
	runtime.SetFinalizer(f, nil)
	f.close()
}

// Move hands the open file to a new Channel and leaves c closed.
func (c *Channel) Move() *Channel {
	m := &Channel{f: c.f}
	c.f = nil
	return m
}

// The file stays reachable from the Future until the request is released, so
// the finalizer never closes an fd that still has requests queued on it.
func (f *file) future(op string, j job) *Future {
	fut := newFuture(op, f.path, j)
	fut.keep = f
	return fut
}

func (f *file) close() error {
	start := time.Now()
	syncErr := f.sys.sync(true)
	if syncErr != nil {
		f.log.Warn("close: sync", "err", syncErr)
	}
	closeErr := f.sys.close()
	if closeErr != nil {
		f.log.Warn("close", "err", closeErr)
	}
	f.log.Debug("closed", "took", time.Since(start))
	return errors.Join(syncErr, closeErr)
}
