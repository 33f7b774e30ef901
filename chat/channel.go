////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package chat

import (
	"fmt"

	"gitlab.com/hearth/hearth/collective"
)

// ChannelType classifies a channel's membership rules. The type is
// immutable after creation.
type ChannelType uint8

const (
	// Default channels are created at chat initialization, auto-joined by
	// every new member, and cannot be left.
	Default ChannelType = iota
	// Public channels can be self-joined by any chat member.
	Public
	// Private channels are invite-only.
	Private
)

// String returns a human-readable name for the channel type.
func (ct ChannelType) String() string {
	switch ct {
	case Default:
		return "default"
	case Public:
		return "public"
	case Private:
		return "private"
	default:
		return fmt.Sprintf("ChannelType(%d)", ct)
	}
}

// ChannelInfo owns everything scoped to one channel: its metadata, member
// set, message sequence, and per-member tracking. There is no global
// cross-channel membership table; membership is decided solely by this
// channel's own set.
type ChannelInfo struct {
	Type              ChannelType `json:"type"`
	ReadOnly          bool        `json:"readOnly"`
	CreatedAt         uint64      `json:"createdAt"`
	CreatedBy         UserID      `json:"createdBy"`
	CreatedByUsername string      `json:"createdByUsername"`
	LinksAllowed      bool        `json:"linksAllowed"`

	Moderators collective.Set[UserID]     `json:"moderators"`
	Members    collective.Set[UserID]     `json:"members"`
	Messages   collective.Vector[Message] `json:"messages"`

	Unread   collective.Map[UserID, UnreadRecord]                     `json:"unread"`
	Mentions collective.Map[UserID, collective.Vector[MentionRecord]] `json:"mentions"`
}

func newChannelInfo(chType ChannelType, readOnly bool, createdBy UserID,
	createdByUsername string, linksAllowed bool, createdAt uint64,
) *ChannelInfo {
	return &ChannelInfo{
		Type:              chType,
		ReadOnly:          readOnly,
		CreatedAt:         createdAt,
		CreatedBy:         createdBy,
		CreatedByUsername: createdByUsername,
		LinksAllowed:      linksAllowed,
		Moderators:        collective.NewSet[UserID](),
		Members:           collective.NewSet[UserID](),
		Messages:          collective.Vector[Message]{},
		Unread:            collective.NewMap[UserID, UnreadRecord](),
		Mentions: collective.NewMap[UserID,
			collective.Vector[MentionRecord]](),
	}
}

// mergeChannelInfo reconciles two replicas of a channel. The type and
// creator are immutable and kept as-is; the boolean attributes are
// monotonic (once true, they stay true); createdAt is LWW; a missing
// creator username is filled from the other side; everything the channel
// owns merges recursively.
func mergeChannelInfo(a, b *ChannelInfo) *ChannelInfo {
	a.ReadOnly = a.ReadOnly || b.ReadOnly
	a.LinksAllowed = a.LinksAllowed || b.LinksAllowed
	if b.CreatedAt > a.CreatedAt {
		a.CreatedAt = b.CreatedAt
	}
	if a.CreatedByUsername == "" {
		a.CreatedByUsername = b.CreatedByUsername
	}

	collective.MergeSets(a.Moderators, b.Moderators)
	collective.MergeSets(a.Members, b.Members)
	a.Messages = mergeMessageVectors(a.Messages, b.Messages)
	collective.MergeMaps(a.Unread, b.Unread, mergeUnread)
	collective.MergeMaps(a.Mentions, b.Mentions, mergeMentionVectors)

	return a
}

// seedTracking initializes a member's unread and mention records for this
// channel. The unread count starts at the channel's current message count
// so history sent before the member arrived still reads as unread.
func (ci *ChannelInfo) seedTracking(user UserID) {
	ci.Unread.Insert(user, UnreadRecord{
		LastRead: 0,
		Count:    uint32(ci.Messages.Len()),
	})
	ci.Mentions.Insert(user, collective.Vector[MentionRecord]{})
}

func (ci *ChannelInfo) clearTracking(user UserID) {
	ci.Unread.Remove(user)
	ci.Mentions.Remove(user)
}

// ChannelSummary is the per-channel listing entry returned to the caller,
// combining channel metadata with the caller's own tracking state.
type ChannelSummary struct {
	Type              ChannelType `json:"type"`
	ReadOnly          bool        `json:"readOnly"`
	CreatedAt         uint64      `json:"createdAt"`
	CreatedBy         UserID      `json:"createdBy"`
	CreatedByUsername string      `json:"createdByUsername"`
	LinksAllowed      bool        `json:"linksAllowed"`
	UnreadCount       uint32      `json:"unreadCount"`
	LastRead          uint64      `json:"lastRead"`
	MentionCount      uint32      `json:"mentionCount"`
}

// ChannelMetadata is the public metadata projection of a single channel.
type ChannelMetadata struct {
	CreatedAt         uint64 `json:"createdAt"`
	CreatedBy         UserID `json:"createdBy"`
	CreatedByUsername string `json:"createdByUsername"`
	LinksAllowed      bool   `json:"linksAllowed"`
}

// CreateChannel creates a channel and registers the creator and the given
// moderators as its initial members, seeding their tracking records.
func (m *Manager) CreateChannel(name string, chType ChannelType,
	readOnly bool, moderators []UserID, linksAllowed bool) (string, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	if m.st.IsDM {
		return "", ErrForbiddenInDM
	}
	if m.st.Channels.Has(name) {
		return "", ErrChannelExists
	}

	caller := m.env.Caller()
	now := m.env.Now()

	ci := newChannelInfo(chType, readOnly, caller, m.usernameUnsafe(caller),
		linksAllowed, now)
	ci.Members.Insert(caller)
	ci.seedTracking(caller)
	for _, mod := range moderators {
		ci.Moderators.Insert(mod)
		ci.Members.Insert(mod)
		ci.seedTracking(mod)
	}
	m.st.Channels.Insert(name, ci)

	if err := m.saveUnsafe(); err != nil {
		return "", err
	}
	m.env.emit(Event{Type: ChannelCreated, Payload: name})
	return fmt.Sprintf("Channel '%s' created successfully", name), nil
}

// JoinChannel adds the caller to a public channel.
func (m *Manager) JoinChannel(name string) (string, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	caller := m.env.Caller()

	ci, ok := m.st.Channels.Get(name)
	if !ok {
		return "", ErrChannelNotFound
	}
	if ci.Type != Public {
		return "", ErrJoinRestricted
	}
	if ci.Members.Has(caller) {
		return "", ErrAlreadyChannelMember
	}

	ci.Members.Insert(caller)
	ci.seedTracking(caller)

	if err := m.saveUnsafe(); err != nil {
		return "", err
	}
	m.env.emit(Event{Type: ChannelJoined, Payload: name})
	return fmt.Sprintf("Joined channel '%s' successfully", name), nil
}

// InviteToChannel adds an existing chat member to the channel.
func (m *Manager) InviteToChannel(name string, user UserID) (string, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	if m.st.IsDM {
		return "", ErrForbiddenInDM
	}
	if !m.st.Members.Has(user) {
		return "", ErrNotChatMember
	}

	ci, ok := m.st.Channels.Get(name)
	if !ok {
		return "", ErrChannelNotFound
	}
	if ci.Members.Has(user) {
		return "", ErrAlreadyChannelMemberInvite
	}

	ci.Members.Insert(user)
	ci.seedTracking(user)

	if err := m.saveUnsafe(); err != nil {
		return "", err
	}
	m.env.emit(Event{Type: ChannelInvited, Payload: string(user)})
	return fmt.Sprintf("User %s invited to channel %s", user, name), nil
}

// LeaveChannel removes the caller from the channel and clears their
// tracking records. Default channels cannot be left.
func (m *Manager) LeaveChannel(name string) (string, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	if m.st.IsDM {
		return "", ErrForbiddenInDM
	}

	caller := m.env.Caller()

	ci, ok := m.st.Channels.Get(name)
	if !ok {
		return "", ErrChannelNotFound
	}
	if ci.Type == Default {
		return "", ErrCannotLeaveDefault
	}
	if !ci.Members.Has(caller) {
		return "", ErrNotChannelMember
	}

	ci.Members.Remove(caller)
	ci.clearTracking(caller)

	if err := m.saveUnsafe(); err != nil {
		return "", err
	}
	m.env.emit(Event{Type: ChannelLeft, Payload: name})
	return fmt.Sprintf("Left channel '%s' successfully", name), nil
}

// MyChannels returns a summary of every channel the caller belongs to.
func (m *Manager) MyChannels() map[string]ChannelSummary {
	m.mux.RLock()
	defer m.mux.RUnlock()

	caller := m.env.Caller()
	result := make(map[string]ChannelSummary)
	for name, ci := range m.st.Channels {
		if ci.Members.Has(caller) {
			result[name] = m.summaryUnsafe(caller, name, ci)
		}
	}
	return result
}

// AllChannels returns every channel visible to the caller: default and
// public channels always, private channels only when the caller belongs to
// them.
func (m *Manager) AllChannels() map[string]ChannelSummary {
	m.mux.RLock()
	defer m.mux.RUnlock()

	caller := m.env.Caller()
	result := make(map[string]ChannelSummary)
	for name, ci := range m.st.Channels {
		if ci.Type == Private && !ci.Members.Has(caller) {
			continue
		}
		result[name] = m.summaryUnsafe(caller, name, ci)
	}
	return result
}

// ChannelMembers returns the channel's member ids mapped to display names.
func (m *Manager) ChannelMembers(name string) (map[UserID]string, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()

	ci, ok := m.st.Channels.Get(name)
	if !ok {
		return nil, ErrChannelNotFound
	}

	result := make(map[UserID]string, ci.Members.Len())
	for member := range ci.Members {
		result[member] = m.usernameUnsafe(member)
	}
	return result, nil
}

// NonMembers returns the chat members who are not in the channel,
// candidates for an invite.
func (m *Manager) NonMembers(name string) (map[UserID]string, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()

	ci, ok := m.st.Channels.Get(name)
	if !ok {
		return nil, ErrChannelNotFound
	}

	result := make(map[UserID]string)
	for member := range m.st.Members {
		if !ci.Members.Has(member) {
			result[member] = m.usernameUnsafe(member)
		}
	}
	return result, nil
}

// ChannelInfo returns the channel's public metadata.
func (m *Manager) ChannelInfo(name string) (ChannelMetadata, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()

	ci, ok := m.st.Channels.Get(name)
	if !ok {
		return ChannelMetadata{}, ErrChannelNotFound
	}

	return ChannelMetadata{
		CreatedAt:         ci.CreatedAt,
		CreatedBy:         ci.CreatedBy,
		CreatedByUsername: m.displayNameUnsafe(ci),
		LinksAllowed:      ci.LinksAllowed,
	}, nil
}

func (m *Manager) summaryUnsafe(caller UserID, name string,
	ci *ChannelInfo) ChannelSummary {
	count, lastRead := m.unreadInfoUnsafe(caller, name)
	return ChannelSummary{
		Type:              ci.Type,
		ReadOnly:          ci.ReadOnly,
		CreatedAt:         ci.CreatedAt,
		CreatedBy:         ci.CreatedBy,
		CreatedByUsername: m.displayNameUnsafe(ci),
		LinksAllowed:      ci.LinksAllowed,
		UnreadCount:       count,
		LastRead:          lastRead,
		MentionCount:      m.mentionCountUnsafe(caller, name),
	}
}

func (m *Manager) displayNameUnsafe(ci *ChannelInfo) string {
	if ci.CreatedByUsername != "" {
		return ci.CreatedByUsername
	}
	return unknownUsername
}
