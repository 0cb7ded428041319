//go:build windows

package iomgr

import (
	"testing"
	"unsafe"

	c "moooio/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Slab_Windows(t *testing.T) {
	buf, err := AllocSlab(100)
	require.NoError(t, err)
	assert.Len(t, buf, 100)
	assert.Equal(t, c.ALIGN, cap(buf))
	assert.Zero(t, uintptr(unsafe.Pointer(&buf[0]))%uintptr(c.ALIGN))

	buf[0], buf[99] = 1, 2
	assert.Equal(t, byte(2), buf[99])
	assert.NoError(t, DeallocSlab(buf))
}
