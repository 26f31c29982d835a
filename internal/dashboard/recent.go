// Package dashboard orders and summarizes already-fetched reminders,
// announcements and today's classes for overview screens.
package dashboard

import (
	"slices"
	"time"
)

// Dated is anything with a "most recent first" key. ok is false when the
// item carries no usable timestamp; such items sort as the oldest.
type Dated interface {
	RecencyKey() (t time.Time, ok bool)
}

// MostRecent returns up to n items ordered newest first. Items with equal
// keys keep their input order. n <= 0 returns all items. The input slice is
// not modified.
func MostRecent[T Dated](items []T, n int) []T {
	type keyed struct {
		item T
		key  time.Time
	}
	ks := make([]keyed, len(items))
	for i, it := range items {
		k, ok := it.RecencyKey()
		if !ok {
			k = time.Time{}
		}
		ks[i] = keyed{item: it, key: k}
	}

	slices.SortStableFunc(ks, func(a, b keyed) int {
		return b.key.Compare(a.key)
	})

	if n <= 0 || n > len(ks) {
		n = len(ks)
	}
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = ks[i].item
	}
	return out
}
