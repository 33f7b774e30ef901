////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package versioned

import (
	"bytes"
	"testing"
	"time"

	"gitlab.com/elixxir/ekv"
)

// Getting a key that was never set should return an error and no data.
func TestKV_Get_Err(t *testing.T) {
	vkv := NewKV(ekv.MakeMemstore())

	result, err := vkv.Get("missing", 0)
	if err == nil {
		t.Error("Getting a key that didn't exist should have " +
			"returned an error")
	}
	if result != nil {
		t.Error("Getting a key that didn't exist shouldn't have " +
			"returned data")
	}
}

// Set followed by Get should return the same object.
func TestKV_SetGet(t *testing.T) {
	vkv := NewKV(ekv.MakeMemstore())
	original := &Object{
		Version:   0,
		Timestamp: time.Now(),
		Data:      []byte("stored data"),
	}

	if err := vkv.Set("test", original); err != nil {
		t.Fatalf("Failed to set: %+v", err)
	}

	result, err := vkv.Get("test", 0)
	if err != nil {
		t.Fatalf("Error getting something that should have been in: %+v",
			err)
	}
	if !bytes.Equal(result.Data, original.Data) {
		t.Errorf("Data mismatch.\nExpected: %q\nReceived: %q",
			original.Data, result.Data)
	}
	if result.Version != original.Version {
		t.Errorf("Version mismatch.\nExpected: %d\nReceived: %d",
			original.Version, result.Version)
	}
}

// Objects stored at different versions of the same key must not collide.
func TestKV_VersionedKeys(t *testing.T) {
	vkv := NewKV(ekv.MakeMemstore())

	v0 := &Object{Version: 0, Timestamp: time.Now(), Data: []byte("old")}
	v1 := &Object{Version: 1, Timestamp: time.Now(), Data: []byte("new")}
	if err := vkv.Set("test", v0); err != nil {
		t.Fatalf("Failed to set v0: %+v", err)
	}
	if err := vkv.Set("test", v1); err != nil {
		t.Fatalf("Failed to set v1: %+v", err)
	}

	result, err := vkv.Get("test", 0)
	if err != nil {
		t.Fatalf("Failed to get v0: %+v", err)
	}
	if !bytes.Equal(result.Data, []byte("old")) {
		t.Errorf("v0 overwritten.\nExpected: %q\nReceived: %q",
			"old", result.Data)
	}
}

// Delete should remove the object so a following Get fails.
func TestKV_Delete(t *testing.T) {
	vkv := NewKV(ekv.MakeMemstore())
	obj := &Object{Version: 0, Timestamp: time.Now(), Data: []byte("gone")}

	if err := vkv.Set("test", obj); err != nil {
		t.Fatalf("Failed to set: %+v", err)
	}
	if err := vkv.Delete("test", 0); err != nil {
		t.Fatalf("Failed to delete: %+v", err)
	}

	_, err := vkv.Get("test", 0)
	if vkv.Exists(err) {
		t.Errorf("Object still exists after delete: %+v", err)
	}
}

// Prefixed KVs must namespace their keys away from the root and from each
// other.
func TestKV_Prefix(t *testing.T) {
	vkv := NewKV(ekv.MakeMemstore())
	sub := vkv.Prefix("sub")

	if sub.GetPrefix() != "sub"+PrefixSeparator {
		t.Errorf("Unexpected prefix.\nExpected: %q\nReceived: %q",
			"sub"+PrefixSeparator, sub.GetPrefix())
	}

	obj := &Object{Version: 0, Timestamp: time.Now(), Data: []byte("scoped")}
	if err := sub.Set("test", obj); err != nil {
		t.Fatalf("Failed to set: %+v", err)
	}

	_, err := vkv.Get("test", 0)
	if vkv.Exists(err) {
		t.Errorf("Prefixed write visible at the root")
	}
	if _, err = sub.Get("test", 0); err != nil {
		t.Errorf("Prefixed read failed: %+v", err)
	}
}

// IsMemStore should detect an in-memory backing store.
func TestKV_IsMemStore(t *testing.T) {
	vkv := NewKV(ekv.MakeMemstore())
	if !vkv.IsMemStore() {
		t.Errorf("Memstore not detected")
	}
}

// An object must survive a marshal/unmarshal round trip.
func TestObject_MarshalUnmarshal(t *testing.T) {
	original := Object{
		Version:   3,
		Timestamp: time.Now().Round(0),
		Data:      []byte("payload"),
	}

	var result Object
	if err := result.Unmarshal(original.Marshal()); err != nil {
		t.Fatalf("Failed to unmarshal: %+v", err)
	}
	if result.Version != original.Version ||
		!bytes.Equal(result.Data, original.Data) {
		t.Errorf("Round trip mismatch.\nExpected: %+v\nReceived: %+v",
			original, result)
	}
}
