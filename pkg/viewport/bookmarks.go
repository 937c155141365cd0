package viewport

import (
	"slices"
)

// Bookmarks is a set of sequence indices. Membership does not depend on
// the active filter.
type Bookmarks struct {
	set map[int]struct{}
}

// NewBookmarks returns an empty set.
func NewBookmarks() *Bookmarks {
	return &Bookmarks{set: make(map[int]struct{})}
}

// Toggle flips the mark on seq and reports whether it is now marked.
func (b *Bookmarks) Toggle(seq int) bool {
	if _, ok := b.set[seq]; ok {
		delete(b.set, seq)
		return false
	}
	b.set[seq] = struct{}{}
	return true
}

// Has reports whether seq is marked.
func (b *Bookmarks) Has(seq int) bool {
	_, ok := b.set[seq]
	return ok
}

// Len is the number of marks, including marks on filtered-out lines.
func (b *Bookmarks) Len() int { return len(b.set) }

// Sorted returns the marked sequence indices in ascending order.
func (b *Bookmarks) Sorted() []int {
	out := make([]int, 0, len(b.set))
	for seq := range b.set {
		out = append(out, seq)
	}
	slices.Sort(out)
	return out
}

// Next returns the view position of the nearest bookmark after the line
// at fromPos. Bookmarks on lines outside the view are skipped.
func (b *Bookmarks) Next(idx Index, fromPos int) (int, bool) {
	cur, ok := idx.At(fromPos)
	if !ok {
		return 0, false
	}
	for _, seq := range b.Sorted() {
		if seq <= cur {
			continue
		}
		if pos, ok := idx.Position(seq); ok {
			return pos, true
		}
	}
	return 0, false
}

// Prev returns the view position of the nearest bookmark before the line
// at fromPos.
func (b *Bookmarks) Prev(idx Index, fromPos int) (int, bool) {
	cur, ok := idx.At(fromPos)
	if !ok {
		return 0, false
	}
	sorted := b.Sorted()
	for i := len(sorted) - 1; i >= 0; i-- {
		seq := sorted[i]
		if seq >= cur {
			continue
		}
		if pos, ok := idx.Position(seq); ok {
			return pos, true
		}
	}
	return 0, false
}
