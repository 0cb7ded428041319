package aio

import (
	"errors"
	"io/fs"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJob completes when the test says so
type fakeJob struct {
	done     chan struct{}
	res      completion
	awaits   atomic.Int32
	released atomic.Int32
}

func newFakeJob() *fakeJob {
	return &fakeJob{done: make(chan struct{})}
}

func (j *fakeJob) finish(n int, err error) {
	j.res = completion{n: n, err: err}
	close(j.done)
}

func (j *fakeJob) await(timeout time.Duration) (completion, bool, error) {
	if !waitChan(j.done, timeout) {
		return completion{}, false, nil
	}
	j.awaits.Add(1)
	return j.res, true, nil
}

func (j *fakeJob) release() {
	j.released.Add(1)
}

func Test_Future_Get_Once(t *testing.T) {
	j := newFakeJob()
	f := newFuture("read", "moo", j)
	assert.True(t, f.Valid())

	go j.finish(10, nil)
	n, err := f.Get()
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, int32(1), j.released.Load())
	assert.False(t, f.Valid())

	_, err = f.Get()
	assert.ErrorIs(t, err, ErrNoState)
	assert.Equal(t, int32(1), j.released.Load())
}

func Test_Future_Native_Error(t *testing.T) {
	boom := errors.New("boom")
	j := newFakeJob()
	j.finish(0, boom)
	f := newFuture("write", "moo", j)

	n, err := f.Get()
	assert.Zero(t, n)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNoState)

	var pe *fs.PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "write", pe.Op)
	assert.Equal(t, "moo", pe.Path)

	// the request is consumed even though it failed
	assert.False(t, f.Valid())
	assert.Equal(t, int32(1), j.released.Load())
}

func Test_Future_WaitFor_Zero_Timeout(t *testing.T) {
	j := newFakeJob()
	f := newFuture("read", "moo", j)

	st, err := f.WaitFor(0)
	require.NoError(t, err)
	assert.Equal(t, StatusTimeout, st)
	assert.True(t, f.Valid())

	st, err = f.WaitFor(-time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusTimeout, st)

	j.finish(3, nil)
	st, err = f.WaitFor(0)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, st)

	n, err := f.Get()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func Test_Future_WaitFor_Bounded(t *testing.T) {
	j := newFakeJob()
	f := newFuture("read", "moo", j)

	start := time.Now()
	st, err := f.WaitFor(20 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, StatusTimeout, st)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	st, err = f.WaitUntil(time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, StatusTimeout, st)

	go func() {
		time.Sleep(10 * time.Millisecond)
		j.finish(1, nil)
	}()
	st, err = f.WaitUntil(time.Now().Add(10 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, StatusReady, st)
	f.Discard()
}

func Test_Future_Completion_Cached(t *testing.T) {
	j := newFakeJob()
	j.finish(7, nil)
	f := newFuture("read", "moo", j)

	require.NoError(t, f.Wait())
	require.NoError(t, f.Wait())
	for range 3 {
		st, err := f.WaitFor(0)
		require.NoError(t, err)
		assert.Equal(t, StatusReady, st)
	}
	assert.Equal(t, int32(1), j.awaits.Load())
	assert.Zero(t, j.released.Load())

	n, err := f.Get()
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, int32(1), j.awaits.Load())
}

func Test_Future_Invalid_Usage(t *testing.T) {
	j := newFakeJob()
	j.finish(0, nil)
	f := newFuture("read", "moo", j)
	_, err := f.Get()
	require.NoError(t, err)

	assert.ErrorIs(t, f.Wait(), ErrNoState)
	_, err = f.WaitFor(time.Second)
	assert.ErrorIs(t, err, ErrNoState)
	_, err = f.WaitUntil(time.Now())
	assert.ErrorIs(t, err, ErrNoState)
	f.Discard()
}

func Test_Future_Discard_Blocks(t *testing.T) {
	j := newFakeJob()
	f := newFuture("write", "moo", j)

	const delay = 50 * time.Millisecond
	go func() {
		time.Sleep(delay)
		j.finish(0, errors.New("dropped"))
	}()

	start := time.Now()
	f.Discard()
	assert.GreaterOrEqual(t, time.Since(start), delay)
	assert.Equal(t, int32(1), j.released.Load())
	assert.False(t, f.Valid())

	f.Discard()
	assert.Equal(t, int32(1), j.released.Load())
}

func Test_Future_Move(t *testing.T) {
	j := newFakeJob()
	f := newFuture("read", "moo", j)

	m := f.Move()
	assert.False(t, f.Valid())
	assert.True(t, m.Valid())
	assert.ErrorIs(t, f.Wait(), ErrNoState)

	j.finish(4, nil)
	n, err := m.Get()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, int32(1), j.released.Load())

	// moving an empty future yields an empty future
	e := f.Move()
	assert.False(t, e.Valid())
}

func Test_Future_Many_Waiters(t *testing.T) {
	j := newFakeJob()
	f := newFuture("read", "moo", j)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.Wait())
		}()
	}
	time.Sleep(5 * time.Millisecond)
	j.finish(9, nil)
	wg.Wait()

	n, err := f.Get()
	require.NoError(t, err)
	assert.Equal(t, 9, n)
}

func Test_Future_Failed_Before_Issue(t *testing.T) {
	f := failedFuture("read", "", ErrNotOpen)
	st, err := f.WaitFor(0)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, st)

	_, err = f.Get()
	assert.ErrorIs(t, err, ErrNotOpen)
}

func Test_Status_String(t *testing.T) {
	assert.Equal(t, "ready", StatusReady.String())
	assert.Equal(t, "timeout", StatusTimeout.String())
}
