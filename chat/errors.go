////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package chat

import "github.com/pkg/errors"

// The error taxonomy is closed: every operation fails with one of the
// variables below so callers can surface or match outcomes directly.
var (
	// ErrAlreadyMember is returned when joining a chat the caller is already
	// a member of.
	ErrAlreadyMember = errors.New("already a member of the chat")

	// ErrNotChatMember is returned when an operation references a user who
	// has not joined the chat.
	ErrNotChatMember = errors.New("user is not a member of the chat")

	// ErrNotChannelMember is returned when the caller is not a member of the
	// channel an operation requires membership of.
	ErrNotChannelMember = errors.New("you are not a member of this channel")

	// ErrChannelNotFound is returned when a channel name does not resolve.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrChannelExists is returned when creating a channel whose name is
	// already taken.
	ErrChannelExists = errors.New("channel already exists")

	// ErrAlreadyChannelMember is returned on a self-join of a channel the
	// caller already belongs to.
	ErrAlreadyChannelMember = errors.New("already a member of this channel")

	// ErrAlreadyChannelMemberInvite is returned when inviting a user who is
	// already in the channel.
	ErrAlreadyChannelMemberInvite = errors.New(
		"user is already a member of this channel")

	// ErrJoinRestricted is returned on a self-join of a non-public channel.
	ErrJoinRestricted = errors.New("can only join public channels")

	// ErrCannotLeaveDefault is returned when leaving a default channel.
	ErrCannotLeaveDefault = errors.New("cannot leave default channel")

	// ErrForbiddenInDM is returned for channel lifecycle operations inside a
	// DM chat.
	ErrForbiddenInDM = errors.New("operation is not allowed in a DM chat")

	// ErrUsernameEmpty is returned when joining with an empty display name.
	ErrUsernameEmpty = errors.New("username cannot be empty")

	// ErrUsernameTooLong is returned when the display name exceeds
	// MaxUsernameLength characters.
	ErrUsernameTooLong = errors.Errorf(
		"username cannot be longer than %d characters", MaxUsernameLength)

	// ErrUsernameTaken is returned when the display name duplicates another
	// member's name in a non-DM chat.
	ErrUsernameTaken = errors.New("username is already taken")

	// ErrMessageNotFound is returned when a message id does not resolve to
	// any top-level or thread message.
	ErrMessageNotFound = errors.New("message not found")

	// ErrThreadNotFound is returned when a parent message id does not
	// resolve to a top-level message.
	ErrThreadNotFound = errors.New("thread not found")

	// ErrNotOwnMessage is returned when editing a message the caller did not
	// send. Editing has no moderator override.
	ErrNotOwnMessage = errors.New("you can only edit your own messages")

	// ErrNoDeletePermission is returned when the caller is neither the
	// sender, a moderator, nor the chat owner.
	ErrNoDeletePermission = errors.New(
		"you don't have permission to delete this message")

	// ErrSelfDM is returned when creating a DM with oneself.
	ErrSelfDM = errors.New("cannot create DM with yourself")

	// ErrDMExists is returned when a DM record already exists for the pair.
	ErrDMExists = errors.New("DM already exists")

	// ErrDMNotFound is returned when no DM record exists for the pair.
	ErrDMNotFound = errors.New("DM does not exist")

	// ErrNotInviter is returned when a handshake step reserved for one side
	// is called by the other.
	ErrNotInviter = errors.New("operation reserved for the DM inviter")
)
