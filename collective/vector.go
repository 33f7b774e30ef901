////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package collective

import "sort"

// Vector is an append-only replicated sequence. Elements are never removed;
// deletion of domain data is expressed as a tombstone inside the element so
// positions stay stable across replicas.
type Vector[T any] []T

// Push appends v and returns its index.
func (v *Vector[T]) Push(item T) int {
	*v = append(*v, item)
	return len(*v) - 1
}

// At returns the element at index i and whether it exists.
func (v Vector[T]) At(i int) (T, bool) {
	if i < 0 || i >= len(v) {
		var zero T
		return zero, false
	}
	return v[i], true
}

// Update overwrites the element at index i. Out-of-range updates are
// rejected.
func (v Vector[T]) Update(i int, item T) bool {
	if i < 0 || i >= len(v) {
		return false
	}
	v[i] = item
	return true
}

// Len returns the sequence length.
func (v Vector[T]) Len() int {
	return len(v)
}

// MergeVectors reconciles two copies of a sequence whose shared positions
// hold the same logical element. Shared positions are merged element-wise
// with mergeElem; whichever side grew longer contributes its tail. Both
// inputs may be nil. Sequences where both sides can append independently
// must merge with MergeVectorsBy instead, since positions alone cannot
// match their elements up.
func MergeVectors[T any](dst, src Vector[T], mergeElem func(T, T) T) Vector[T] {
	shared := len(dst)
	if len(src) < shared {
		shared = len(src)
	}

	out := make(Vector[T], 0, max(len(dst), len(src)))
	for i := 0; i < shared; i++ {
		out = append(out, mergeElem(dst[i], src[i]))
	}
	if len(dst) > shared {
		out = append(out, dst[shared:]...)
	} else if len(src) > shared {
		out = append(out, src[shared:]...)
	}
	return out
}

// MergeVectorsBy reconciles two copies of a sequence whose elements carry a
// stable identity. Elements whose keys appear on both sides merge with
// mergeElem; elements only one side holds are kept, so concurrent appends
// on different replicas both survive the merge. The result is ordered by
// less, which must be a total order over the elements' immutable fields so
// both replicas settle on the same sequence regardless of merge direction.
func MergeVectorsBy[T any, K comparable](dst, src Vector[T], key func(T) K,
	mergeElem func(T, T) T, less func(a, b T) bool) Vector[T] {

	out := make(Vector[T], len(dst))
	copy(out, dst)

	index := make(map[K]int, len(out))
	for i := range out {
		index[key(out[i])] = i
	}
	for i := range src {
		if j, ok := index[key(src[i])]; ok {
			out[j] = mergeElem(out[j], src[i])
		} else {
			index[key(src[i])] = len(out)
			out = append(out, src[i])
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
