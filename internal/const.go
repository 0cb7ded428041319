// Constants
package internal

// Every platform we build for has 4KiB pages. DIRECT callers should still ask
// the channel for its block size, this is only the allocation granularity.
const OS_PAGE		= 0x1000

// Slab allocations are rounded up to this.
const ALIGN			= OS_PAGE

func AlignUp(n int) int {
	return (n + ALIGN - 1) &^ (ALIGN - 1)
}
