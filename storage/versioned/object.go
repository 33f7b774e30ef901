////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package versioned

import (
	"encoding/json"
	"fmt"
	"time"
)

// Object wraps stored data with its schema version and the wall-clock time
// it was written, so stored records can be migrated if their layout changes.
type Object struct {
	// Used to determine schema upgrades, if any
	Version uint64

	// Set when this object is written
	Timestamp time.Time

	// Serialized version of the original object
	Data []byte
}

// Unmarshal deserializes an Object from a byte slice so it is storable in a
// KeyValue. All fields are exported with simple types, so json works fine.
func (o *Object) Unmarshal(data []byte) error {
	return json.Unmarshal(data, o)
}

// Marshal serializes an Object into a byte slice so it is storable in a
// KeyValue.
func (o *Object) Marshal() []byte {
	d, err := json.Marshal(o)
	// Failure to marshal this simple object means something is really wrong
	if err != nil {
		panic(fmt.Sprintf("Could not marshal: %+v", o))
	}
	return d
}
