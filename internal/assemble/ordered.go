package assemble

import "golang.org/x/sync/errgroup"

// Ordered runs fn for every item, at most limit at a time (no limit when
// limit < 1), waits for all of them and returns the results in item order.
func Ordered[T, R any](items []T, limit int, fn func(T) R) []R {
	out := make([]R, len(items))
	var eg errgroup.Group
	if limit > 0 {
		eg.SetLimit(limit)
	}
	for i, item := range items {
		i, item := i, item
		eg.Go(func() error {
			out[i] = fn(item)
			return nil
		})
	}
	_ = eg.Wait()
	return out
}
