////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package chat

import (
	"github.com/pkg/errors"
	"gitlab.com/xx_network/primitives/netTime"
)

// UserID is a member's opaque, string-representable identifier. It is
// supplied by the host's identity layer and persists for the chat's
// lifetime.
type UserID string

// MessageID identifies a message. Top-level messages are keyed
// "{channel}:{index}", thread replies "{parentID}:{threadIndex}".
type MessageID string

// MaxUsernameLength is the maximum length of a member's display name.
const MaxUsernameLength = 50

// Environment bundles the host collaborators each operation consumes: who
// is calling, what time it is, and where notifications go.
type Environment struct {
	// Caller returns the identity of the member invoking the current
	// operation. Required.
	Caller func() UserID

	// Now returns the current logical timestamp in nanoseconds. Defaults to
	// netTime.
	Now func() uint64

	// Events receives one notification per state-changing operation. May be
	// nil.
	Events func(Event)
}

func (e Environment) validate() (Environment, error) {
	if e.Caller == nil {
		return e, errors.New("chat: Environment.Caller is required")
	}
	if e.Now == nil {
		e.Now = func() uint64 { return uint64(netTime.Now().UnixNano()) }
	}
	return e, nil
}

func (e Environment) emit(ev Event) {
	if e.Events != nil {
		e.Events(ev)
	}
}
