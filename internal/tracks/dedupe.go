package tracks

// DedupePreservingOrder keeps the first occurrence of every value in its original relative order.
func DedupePreservingOrder[T comparable](items []T) []T {
	seen := make(map[T]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// DedupeUnordered returns every distinct value once.
//
// The output follows map iteration order and differs between calls; use [DedupePreservingOrder] when order matters.
func DedupeUnordered[T comparable](items []T) []T {
	set := make(map[T]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	out := make([]T, 0, len(set))
	for item := range set {
		out = append(out, item)
	}
	return out
}
