////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package collective

// Map is a replicated key/value collection. Keys present on either replica
// survive a merge; values present on both are reconciled with a caller
// supplied merge function, recursing into nested collections.
type Map[K comparable, V any] map[K]V

// NewMap returns an empty map.
func NewMap[K comparable, V any]() Map[K, V] {
	return make(Map[K, V])
}

// Get returns the value for key and whether it exists.
func (m Map[K, V]) Get(key K) (V, bool) {
	v, ok := m[key]
	return v, ok
}

// Insert stores value under key, replacing any existing entry.
func (m Map[K, V]) Insert(key K, value V) {
	m[key] = value
}

// Remove deletes the entry for key if present.
func (m Map[K, V]) Remove(key K) {
	delete(m, key)
}

// Has reports whether key is present.
func (m Map[K, V]) Has(key K) bool {
	_, ok := m[key]
	return ok
}

// Len returns the number of entries.
func (m Map[K, V]) Len() int {
	return len(m)
}

// Keys returns the keys in map order.
func (m Map[K, V]) Keys() []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// MergeMaps folds src into dst. Keys only in src are copied; keys in both
// are resolved with mergeV. dst must be non-nil.
func MergeMaps[K comparable, V any](dst, src Map[K, V], mergeV func(V, V) V) {
	for k, sv := range src {
		if dv, ok := dst[k]; ok {
			dst[k] = mergeV(dv, sv)
		} else {
			dst[k] = sv
		}
	}
}
