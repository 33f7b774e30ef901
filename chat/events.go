////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package chat

import "fmt"

// EventType enumerates the notifications emitted by state-changing
// operations. Exactly one event is emitted per successful mutation.
type EventType uint8

const (
	ChatJoined EventType = iota
	ChannelCreated
	ChannelJoined
	ChannelLeft
	ChannelInvited
	MessageSent
	MessageSentThread
	MessageEdited
	MessageDeleted
	ReactionUpdated
	DMCreated
	NewIdentityUpdated
	InvitationPayloadUpdated
	InvitationAccepted
	DMDeleted
	DMRead
)

// String returns a human-readable name for the event type.
func (et EventType) String() string {
	switch et {
	case ChatJoined:
		return "ChatJoined"
	case ChannelCreated:
		return "ChannelCreated"
	case ChannelJoined:
		return "ChannelJoined"
	case ChannelLeft:
		return "ChannelLeft"
	case ChannelInvited:
		return "ChannelInvited"
	case MessageSent:
		return "MessageSent"
	case MessageSentThread:
		return "MessageSentThread"
	case MessageEdited:
		return "MessageEdited"
	case MessageDeleted:
		return "MessageDeleted"
	case ReactionUpdated:
		return "ReactionUpdated"
	case DMCreated:
		return "DMCreated"
	case NewIdentityUpdated:
		return "NewIdentityUpdated"
	case InvitationPayloadUpdated:
		return "InvitationPayloadUpdated"
	case InvitationAccepted:
		return "InvitationAccepted"
	case DMDeleted:
		return "DMDeleted"
	case DMRead:
		return "DMRead"
	default:
		return fmt.Sprintf("EventType(%d)", et)
	}
}

// Event is the notification payload handed to the host's event facility.
// Payload identifies the affected entity (channel name, message id, user or
// context id depending on the type).
type Event struct {
	Type    EventType
	Payload string
}
