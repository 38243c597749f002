package stego

import (
	"runtime"
	"sync"
)

// minBlocksPerWorker keeps small signals on a single goroutine.
const minBlocksPerWorker = 64

// forEachBlock calls fn for every block index in [0, n), splitting the range
// into contiguous chunks handled by separate goroutines. fn must only touch
// the samples of the block it is given.
func forEachBlock(n int, fn func(i int)) {
	workers := min(runtime.GOMAXPROCS(0), n/minBlocksPerWorker)
	if workers <= 1 {
		for i := range n {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Go(func() {
			for i := lo; i < hi; i++ {
				fn(i)
			}
		})
	}
	wg.Wait()
}
