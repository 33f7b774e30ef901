////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

// Package versioned layers schema-versioned objects on top of an ekv
// key/value store. Keys are namespaced with slash-separated prefixes and
// suffixed with the object version, so the same key can hold multiple
// schema generations side by side during a migration.
package versioned

import (
	"fmt"

	"gitlab.com/elixxir/ekv"
)

const PrefixSeparator = "/"

type root struct {
	data ekv.KeyValue
}

// KV stores and retrieves versioned objects under a prefix.
type KV struct {
	r      *root
	prefix string
}

// NewKV creates a versioned key/value store backed by anything implementing
// ekv.KeyValue.
func NewKV(data ekv.KeyValue) *KV {
	return &KV{r: &root{data: data}}
}

// Get returns the object stored under key at the given version. Inspect the
// version on the returned object before trusting its layout.
func (v *KV) Get(key string, version uint64) (*Object, error) {
	result := &Object{}
	if err := v.r.data.Get(v.makeKey(key, version), result); err != nil {
		return nil, err
	}
	return result, nil
}

// Set upserts the object under key at the object's own version.
func (v *KV) Set(key string, object *Object) error {
	return v.r.data.Set(v.makeKey(key, object.Version), object)
}

// Delete removes the object stored under key at the given version.
func (v *KV) Delete(key string, version uint64) error {
	return v.r.data.Delete(v.makeKey(key, version))
}

// Prefix returns a new KV with prefix appended to the namespace.
func (v *KV) Prefix(prefix string) *KV {
	return &KV{
		r:      v.r,
		prefix: v.prefix + prefix + PrefixSeparator,
	}
}

// GetPrefix returns the full current prefix.
func (v *KV) GetPrefix() string {
	return v.prefix
}

// IsMemStore reports whether the backing store is an in-memory ekv.
func (v *KV) IsMemStore() bool {
	_, ok := v.r.data.(*ekv.Memstore)
	return ok
}

// Exists returns false if the error indicates the element does not exist.
func (v *KV) Exists(err error) bool {
	return ekv.Exists(err)
}

func (v *KV) makeKey(key string, version uint64) string {
	return fmt.Sprintf("%s%s_%d", v.prefix, key, version)
}
