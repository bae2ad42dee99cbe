package sparse

import "sort"

// insertionCrossover is the length below which SortPairs uses a plain
// insertion sort instead of handing off to sort.Sort.
const insertionCrossover = 16

// SortPairs sorts the parallel (idx, val) slices in place by ascending
// idx. Below insertionCrossover elements it uses insertion sort directly;
// above it, it defers to the standard library's sort.Sort, which since Go
// 1.19 implements pattern-defeating quicksort (quicksort with an
// insertion-sort fallback for small partitions and a heapsort fallback to
// bound worst-case behavior) — exactly the introsort-style guarantee this
// routine needs, so there is no reason to hand-roll it a second time here.
func SortPairs(idx []int, val []float64) {
	n := len(idx)
	if n != len(val) {
		panic(ErrDimMismatch)
	}
	if n < insertionCrossover {
		insertionSortPairs(idx, val)
		return
	}
	sort.Sort(pairs{idx, val})
}

func insertionSortPairs(idx []int, val []float64) {
	for i := 1; i < len(idx); i++ {
		ki, kv := idx[i], val[i]
		j := i - 1
		for j >= 0 && idx[j] > ki {
			idx[j+1] = idx[j]
			val[j+1] = val[j]
			j--
		}
		idx[j+1] = ki
		val[j+1] = kv
	}
}

// pairs implements sort.Interface over parallel index/value slices.
type pairs struct {
	idx []int
	val []float64
}

func (p pairs) Len() int           { return len(p.idx) }
func (p pairs) Less(i, j int) bool { return p.idx[i] < p.idx[j] }
func (p pairs) Swap(i, j int) {
	p.idx[i], p.idx[j] = p.idx[j], p.idx[i]
	p.val[i], p.val[j] = p.val[j], p.val[i]
}
