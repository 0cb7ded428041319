//go:build linux

package iomgr

import (
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"moooio/internal/util"

	"github.com/aethne0/giouring"
	"github.com/negrel/assert"
	"golang.org/x/sys/unix"
)

// PERF:
// 1. read/write fixed
// 2. register buffer
// 3. register file
// Completion interrupts are most of the kernel time once the ring is busy, the
// other two are GUP on every buffer and FD table lookups.

const RING_ENTRIES 	= 0x80
const RING_DPTHTRG	= 0x40
const OP_Q_SIZE		= 0x100

// IORING_FSYNC_DATASYNC
const fsyncDatasync = 1

var ErrClosed = errors.New("iomgr: closed")

type Config struct {
	Entries			uint32 			// SQ size, also the cap on in-flight ops
	DepthTrigger	uint 			// above this many queued+inflight SQEs we wait for CQEs while submitting
	CPU				int 			// core the ring goroutine is pinned to, -1 leaves it to the scheduler
	IdleWait		time.Duration 	// how long we sleep in the kernel when only waiting for completions
}

func DefaultConfig() Config {
	return Config {
		Entries: 		RING_ENTRIES,
		DepthTrigger: 	RING_DPTHTRG,
		CPU: 			-1,
		IdleWait: 		time.Millisecond,
	}
}

type IoMgr struct {
	log			*slog.Logger
	cfg			Config
	ring 		*giouring.Ring
	opQueue		chan *Op
	opSem		chan struct{}

	// owned by ringlord: sqe.UserData is a ticket into here, which also keeps
	// the op (and the buffer it points at) reachable while the kernel has it
	slots		util.TicketQueue[*Op]

	closeMu		sync.RWMutex
	closed		bool
	exited		chan struct{}
}

var (
	defaultOnce	sync.Once
	defaultMgr	*IoMgr
	defaultErr	error
)

// Default returns the process-wide ring, creating it on first use. It is
// never closed.
func Default() (*IoMgr, error) {
	defaultOnce.Do(func() {
		defaultMgr, defaultErr = CreateIoMgr(DefaultConfig())
	})
	return defaultMgr, defaultErr
}

func CreateIoMgr(cfg Config) (*IoMgr, error) {
	log := slog.With("src", "IoMgr")

	if cfg.Entries == 0 { cfg.Entries = RING_ENTRIES }
	if cfg.DepthTrigger == 0 { cfg.DepthTrigger = uint(cfg.Entries) / 2 }

	ring, err := giouring.CreateRing(cfg.Entries)
	if err != nil { return nil, err }

	iomgr := IoMgr {
		log: 		log,
		cfg: 		cfg,
		ring: 		ring,
		opQueue: 	make(chan *Op, OP_Q_SIZE),
		opSem: 		make(chan struct{}, cfg.Entries),
		slots: 		util.CreateTicketQueue[*Op](int(cfg.Entries)),
		exited: 	make(chan struct{}),
	}

	log.Debug("CreateIoMgr", "entries", cfg.Entries, "cpu", cfg.CPU)
	go iomgr.ringlord()
	return &iomgr, nil
}

// Close stops accepting ops, waits for everything in flight to complete and
// tears down the ring.
func (m *IoMgr) Close() {
	m.closeMu.Lock()
	if m.closed {
		m.closeMu.Unlock()
		<- m.exited
		return
	}
	m.closed = true
	m.opQueue <- nil
	m.closeMu.Unlock()
	<- m.exited
}

type OpCode uint16
const (
	OpNop 	OpCode = iota
	OpWrite
	OpRead
	OpSync
	OpAllocate
)

// One native request. The caller owns the Op, the manager borrows it (and Buf)
// from Submit until Done is closed.
type Op struct {
	Fd			int
	Buf			[]byte
	Off			uint64
	Size		uint64 // OpAllocate length
	Opcode		OpCode
	Datasync	bool // OpSync: fdatasync instead of fsync

	res			int32
	done 		chan struct{}
	pin			runtime.Pinner
}

// Done is closed once the kernel has completed the op.
func (op *Op) Done() <-chan struct{} {
	return op.done
}

// Result is the raw CQE result: bytes transferred, or a negated errno.
// Only meaningful after Done is closed.
func (op *Op) Result() int32 {
	return atomic.LoadInt32(&op.res)
}

// Err returns the errno carried by a completed op, if any.
func (op *Op) Err() error {
	if res := op.Result(); res < 0 {
		return unix.Errno(-res)
	}
	return nil
}

// Submit hands op to the ring. It only blocks when Entries ops are already in
// flight. op must not be touched until Done is closed.
func (m *IoMgr) Submit(op *Op) error {
	m.closeMu.RLock()
	defer m.closeMu.RUnlock()
	if m.closed { return ErrClosed }

	op.done = make(chan struct{})
	op.res = 0
	if len(op.Buf) > 0 {
		op.pin.Pin(unsafe.SliceData(op.Buf))
	}

	m.opSem <- struct{}{}
	m.opQueue <- op
	return nil
}

func (m *IoMgr) complete(op *Op, res int32) {
	op.pin.Unpin()
	atomic.StoreInt32(&op.res, res)
	close(op.done)
	<- m.opSem
}

func bufPtr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

// io_uring lengths are 32 bit, longer buffers are issued short
func bufLen(b []byte) uint32 {
	if uint64(len(b)) > uint64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(len(b))
}

// returns false if nothing was queued
func (m *IoMgr) prepSQE(op *Op) bool {
	sqe := m.ring.GetSQE()
	assert.True(sqe != nil, "opSem should keep the SQ from filling up")
	if sqe == nil {
		m.complete(op, -int32(unix.EBUSY))
		return false
	}

	switch op.Opcode {
	case OpNop:
		sqe.PrepareNop()
	case OpWrite:
		sqe.PrepareWrite(op.Fd, bufPtr(op.Buf), bufLen(op.Buf), op.Off)
	case OpRead:
		sqe.PrepareRead(op.Fd, bufPtr(op.Buf), bufLen(op.Buf), op.Off)
	case OpSync:
		if op.Datasync {
			sqe.PrepareFsync(op.Fd, fsyncDatasync)
		} else {
			sqe.PrepareFsync(op.Fd, 0)
		}
	case OpAllocate:
		sqe.PrepareFallocate(op.Fd, 0, op.Off, op.Size)
	default:
		m.log.Warn("Invalid opcode", "opcode", op.Opcode)
		sqe.PrepareNop()
		sqe.UserData = uint64(m.slots.Acq(nil))
		m.complete(op, -int32(unix.EINVAL))
		return true
	}

	sqe.UserData = uint64(m.slots.Acq(op))
	return true
}

// "Those who sow the good seed
// Shall surely reap"
func (m *IoMgr) ringlord() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if m.cfg.CPU >= 0 {
		var cpuSet unix.CPUSet
		cpuSet.Zero()
		cpuSet.Set(m.cfg.CPU)
		err := unix.SchedSetaffinity(0, &cpuSet)
		if err != nil { m.log.Warn("Couldn't set core affinity for ring manager", "cpu", m.cfg.CPU) }
	}

	stime := syscall.NsecToTimespec(m.cfg.IdleWait.Nanoseconds())
	var sigset unix.Sigset_t

	var queued   uint = 0 // SQEs that we have "got" and prepared from the opQueue
	var inflight uint = 0 // SQEs that have been SUBMITTED
	quitting := false

	take := func(op *Op) {
		if op == nil {
			quitting = true
			return
		}
		if m.prepSQE(op) { queued++ }
	}

	// 1. collect submitted ops from opQueue and prepare SQEs
	// 2. submit
	// 3. reap CQEs
	// Latency vs. throughput vs. cpu is decided by DepthTrigger and IdleWait.
	for {
		// STAGE 1
		if inflight == 0 && queued == 0 {
			if quitting {
				m.ring.QueueExit()
				m.log.Debug("ring exited")
				close(m.exited)
				return
			}
			// nothing to reap, block for work
			take(<- m.opQueue)
		}
		COLLECT: for {
			select {
			case op := <- m.opQueue:
				take(op)
			default:
				break COLLECT
			}
		}

		// STAGE 2
		if queued > 0 {
			var submitted uint
			var err error
			if inflight + queued > m.cfg.DepthTrigger {
				submitted, err = m.ring.SubmitAndWait(1)
			} else {
				submitted, err = m.ring.Submit()
			}
			if err != nil && err != unix.ETIME && err != unix.EINTR {
				m.log.Error("Submit", "err", err)
			}
			queued   -= submitted
			inflight += submitted
		}

		// STAGE 3
		reaped := 0
		for inflight > 0 {
			cqe, err := m.ring.PeekCQE()
			if err == unix.EAGAIN || err == unix.EINTR || err == unix.ETIME {
				break
			} else if err != nil {
				m.log.Error("Peek cqe fatal error", "err", err)
				panic("iomgr: io_uring completion queue is broken")
			}
			if cqe == nil { break }

			inflight--
			reaped++

			slot := int(cqe.UserData)
			op := m.slots.Get(slot)
			m.slots.Rel(slot)
			if op != nil {
				m.complete(op, cqe.Res)
			}
			m.ring.CQESeen(cqe)
		}

		// Only completions to wait for: sleep in the kernel instead of spinning.
		// Bounded so new ops on opQueue are not starved.
		if reaped == 0 && queued == 0 && inflight > 0 && len(m.opQueue) == 0 {
			_, err := m.ring.SubmitAndWaitTimeout(1, &stime, &sigset)
			if err != nil && err != unix.ETIME && err != unix.EINTR && err != unix.EAGAIN {
				m.log.Error("SubmitAndWaitTimeout", "err", err)
			}
		}
	}
}
