package stego

import (
	"sync/atomic"
	"testing"
)

func TestForEachBlockVisitsEveryIndexOnce(t *testing.T) {
	for _, n := range []int{0, 1, minBlocksPerWorker - 1, 10 * minBlocksPerWorker, 10*minBlocksPerWorker + 7} {
		visits := make([]atomic.Int32, n)
		forEachBlock(n, func(i int) { visits[i].Add(1) })
		for i := range visits {
			if got := visits[i].Load(); got != 1 {
				t.Fatalf("n=%d: block %d visited %d times", n, i, got)
			}
		}
	}
}
