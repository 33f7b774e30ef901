////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

// Package collective provides the replicated collection primitives the chat
// core stores its state in: a last-writer-wins register, a set, an
// append-only vector, and a map. Each type carries an explicit merge so that
// two divergent replicas of the same structure reconcile deterministically
// regardless of merge order. Business logic never resolves conflicts itself;
// it composes these types and calls State.Merge at the replication boundary.
package collective

import (
	"bytes"
	"encoding/json"
)

// Register is a last-writer-wins scalar. Time is the logical timestamp of
// the last write; on merge the later write wins, and a timestamp tie is
// broken on the serialized value so both replicas settle on the same side.
type Register[T any] struct {
	Value T      `json:"value"`
	Time  uint64 `json:"time"`
}

// NewRegister returns a register holding v written at time now.
func NewRegister[T any](v T, now uint64) Register[T] {
	return Register[T]{Value: v, Time: now}
}

// Get returns the current value.
func (r *Register[T]) Get() T {
	return r.Value
}

// Set overwrites the value, recording now as the write time.
func (r *Register[T]) Set(v T, now uint64) {
	r.Value = v
	r.Time = now
}

// Merge accepts the other register's value if its write time is later. On
// equal write times the pair converges on the greater serialized value, so
// a.Merge(b) and b.Merge(a) pick the same side.
func (r *Register[T]) Merge(other Register[T]) {
	if other.Time > r.Time {
		r.Value = other.Value
		r.Time = other.Time
		return
	}
	if other.Time == r.Time && CompareValues(other.Value, r.Value) > 0 {
		r.Value = other.Value
	}
}

// CompareValues orders two values by their serialized form. The ordering
// carries no meaning; it is a merge tie-breaker that only has to be total
// and identical on every replica.
func CompareValues[T any](a, b T) int {
	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	return bytes.Compare(aj, bj)
}
