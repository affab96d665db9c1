package tracks

import (
	"math/rand/v2"
	"slices"
)

// Shuffle returns a uniformly random permutation of items in a new slice.
//
// The top-level math/rand/v2 source is seeded from OS entropy, so results are not reproducible across runs.
func Shuffle[T any](items []T) []T {
	out := slices.Clone(items)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// ShuffleWith is [Shuffle] with an explicit random source.
func ShuffleWith[T any](r *rand.Rand, items []T) []T {
	out := slices.Clone(items)
	r.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// Chunk splits items into consecutive slices of at most size elements.
//
// The chunks share storage with items. size must be positive.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		panic("tracks: chunk size must be positive")
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}
