////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package collective

// Set is an add-biased replicated set. Removal is local; a concurrent add on
// another replica survives the merge (union semantics).
type Set[T comparable] map[T]struct{}

// NewSet returns a set containing the given items.
func NewSet[T comparable](items ...T) Set[T] {
	s := make(Set[T], len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Insert adds the item. Inserting an existing item is a no-op.
func (s Set[T]) Insert(item T) {
	s[item] = struct{}{}
}

// Remove deletes the item if present.
func (s Set[T]) Remove(item T) {
	delete(s, item)
}

// Has reports whether the item is in the set.
func (s Set[T]) Has(item T) bool {
	_, ok := s[item]
	return ok
}

// Len returns the number of items.
func (s Set[T]) Len() int {
	return len(s)
}

// Items returns the members in map order.
func (s Set[T]) Items() []T {
	items := make([]T, 0, len(s))
	for item := range s {
		items = append(items, item)
	}
	return items
}

// MergeSets unions src into dst. dst must be non-nil.
func MergeSets[T comparable](dst, src Set[T]) {
	for item := range src {
		dst[item] = struct{}{}
	}
}
