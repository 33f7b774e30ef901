////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package chat

import (
	"encoding/base64"

	"golang.org/x/crypto/blake2b"

	"gitlab.com/hearth/hearth/collective"
)

// DMChatInfo is one participant's record of a direct-message conversation.
// Both participants hold their own copy (there is no shared record); the
// handshake drives each side's copy through create, identity rotation,
// invitation exchange, and acceptance. Merged whole-record: the record with
// the later creation time wins.
type DMChatInfo struct {
	CreatedAt uint64 `json:"createdAt"`
	ContextID string `json:"contextId"`

	// CreatedBy is the inviter's chat-wide identity.
	CreatedBy UserID `json:"createdBy"`

	// OwnOld is this side's chat-wide identity; OwnNew its rotated,
	// conversation-scoped identity, empty until rotation completes.
	OwnOld      UserID `json:"ownOld"`
	OwnNew      UserID `json:"ownNew"`
	OwnUsername string `json:"ownUsername"`

	OtherOld      UserID `json:"otherOld"`
	OtherNew      UserID `json:"otherNew"`
	OtherUsername string `json:"otherUsername"`

	// DidJoin is true once this side has completed the handshake. The
	// inviter starts joined.
	DidJoin    bool   `json:"didJoin"`
	Invitation string `json:"invitation"`

	// OldHash/NewHash detect new messages by content comparison: the
	// conversation has unseen content while they differ.
	OldHash string `json:"oldHash"`
	NewHash string `json:"newHash"`

	Unread uint32 `json:"unread"`
}

// mergeDM keeps the record with the later creation time; a creation-time
// tie is broken on the serialized record so both replicas keep the same
// one.
func mergeDM(a, b DMChatInfo) DMChatInfo {
	if b.CreatedAt != a.CreatedAt {
		if b.CreatedAt > a.CreatedAt {
			return b
		}
		return a
	}
	if collective.CompareValues(b, a) > 0 {
		return b
	}
	return a
}

// mergeDMVectors reconciles one member's DM list across replicas. Records
// are matched by the conversation pair: two replicas concurrently starting
// conversations with different peers both survive, while duplicate records
// for the same pair collapse to one, re-establishing the
// one-record-per-pair rule after every merge.
func mergeDMVectors(a, b collective.Vector[DMChatInfo],
) collective.Vector[DMChatInfo] {
	pair := func(dm DMChatInfo) UserID { return dm.OtherOld }
	less := func(x, y DMChatInfo) bool {
		if x.CreatedAt != y.CreatedAt {
			return x.CreatedAt < y.CreatedAt
		}
		return x.OtherOld < y.OtherOld
	}
	return collective.MergeVectorsBy(a, b, pair, mergeDM, less)
}

// matches reports whether this record is the conversation with the given
// peer, identified by either their chat-wide or rotated identity.
func (dm *DMChatInfo) matches(peer UserID) bool {
	return dm.OtherOld == peer || (dm.OtherNew != "" && dm.OtherNew == peer)
}

// HashContent returns the content hash used for DM new-message detection.
func HashContent(data []byte) string {
	sum := blake2b.Sum256(data)
	return base64.RawStdEncoding.EncodeToString(sum[:])
}

// CreateDMChat starts the handshake with another member: a record of the
// conversation is stored under both participants' own views, carrying the
// shared context id and a shared starting content hash. The inviter's side
// starts joined; the invitee's does not until AcceptInvitation.
func (m *Manager) CreateDMChat(other UserID, contextID, invitation string,
	createdAt uint64) (string, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	caller := m.env.Caller()
	if caller == other {
		return "", ErrSelfDM
	}
	if m.findDMUnsafe(caller, other) != nil ||
		m.findDMUnsafe(other, caller) != nil {
		return "", ErrDMExists
	}
	if createdAt == 0 {
		createdAt = m.env.Now()
	}

	startHash := HashContent([]byte(contextID))
	callerName := m.usernameUnsafe(caller)
	otherName := m.usernameUnsafe(other)

	inviterSide := DMChatInfo{
		CreatedAt:     createdAt,
		ContextID:     contextID,
		CreatedBy:     caller,
		OwnOld:        caller,
		OwnUsername:   callerName,
		OtherOld:      other,
		OtherUsername: otherName,
		DidJoin:       true,
		Invitation:    invitation,
		OldHash:       startHash,
		NewHash:       startHash,
	}
	inviteeSide := DMChatInfo{
		CreatedAt:     createdAt,
		ContextID:     contextID,
		CreatedBy:     caller,
		OwnOld:        other,
		OwnUsername:   otherName,
		OtherOld:      caller,
		OtherUsername: callerName,
		DidJoin:       false,
		Invitation:    invitation,
		OldHash:       startHash,
		NewHash:       startHash,
	}

	m.pushDMUnsafe(caller, inviterSide)
	m.pushDMUnsafe(other, inviteeSide)

	if err := m.saveUnsafe(); err != nil {
		return "", err
	}
	m.env.emit(Event{Type: DMCreated, Payload: contextID})
	return "DM chat created successfully", nil
}

// UpdateNewIdentity records the caller's rotated, conversation-scoped
// identity: on the caller's own record as OwnNew, and on the peer's record
// as OtherNew. The peer's record is located by the caller's old identity.
func (m *Manager) UpdateNewIdentity(other, newIdentity UserID) (
	string, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	caller := m.env.Caller()

	own := m.findDMUnsafe(caller, other)
	if own == nil {
		return "", ErrDMNotFound
	}
	own.OwnNew = newIdentity
	m.putDMUnsafe(caller, *own)

	if peer := m.findDMUnsafe(other, caller); peer != nil {
		peer.OtherNew = newIdentity
		m.putDMUnsafe(other, *peer)
	}

	if err := m.saveUnsafe(); err != nil {
		return "", err
	}
	m.env.emit(Event{Type: NewIdentityUpdated, Payload: string(newIdentity)})
	return "Identity updated successfully", nil
}

// UpdateInvitationPayload propagates an invitation payload into both sides'
// records. Only the inviter may do this; it is used once the invitee's
// rotated identity is known so the invitation can address them directly.
func (m *Manager) UpdateInvitationPayload(other UserID, payload string) (
	string, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	caller := m.env.Caller()

	own := m.findDMUnsafe(caller, other)
	if own == nil {
		return "", ErrDMNotFound
	}
	if own.CreatedBy != caller {
		return "", ErrNotInviter
	}

	own.Invitation = payload
	m.putDMUnsafe(caller, *own)

	if peer := m.findDMUnsafe(other, caller); peer != nil {
		peer.Invitation = payload
		m.putDMUnsafe(other, *peer)
	}

	if err := m.saveUnsafe(); err != nil {
		return "", err
	}
	m.env.emit(Event{Type: InvitationPayloadUpdated, Payload: own.ContextID})
	return "Invitation payload updated", nil
}

// AcceptInvitation completes the handshake on the caller's side. It only
// touches the caller's own record; the inviter's side was joined at
// creation. Re-accepting is a no-op, so the step is safe to retry.
func (m *Manager) AcceptInvitation(other UserID) (string, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	caller := m.env.Caller()

	own := m.findDMUnsafe(caller, other)
	if own == nil {
		return "", ErrDMNotFound
	}

	own.DidJoin = true
	m.putDMUnsafe(caller, *own)

	if err := m.saveUnsafe(); err != nil {
		return "", err
	}
	m.env.emit(Event{Type: InvitationAccepted, Payload: own.ContextID})
	return "Invitation accepted", nil
}

// DeleteDM removes the conversation record from both participants' views,
// along with any channel carrying the pair's messages (DM traffic routes
// through ordinary channels keyed by the peer's identity string).
func (m *Manager) DeleteDM(other UserID) (string, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	caller := m.env.Caller()

	if m.findDMUnsafe(caller, other) == nil {
		return "", ErrDMNotFound
	}

	m.removeDMUnsafe(caller, other)
	m.removeDMUnsafe(other, caller)
	m.st.Channels.Remove(string(other))
	m.st.Channels.Remove(string(caller))

	if err := m.saveUnsafe(); err != nil {
		return "", err
	}
	m.env.emit(Event{Type: DMDeleted, Payload: string(other)})
	return "DM deleted successfully", nil
}

// DMs returns the caller's DM conversation records.
func (m *Manager) DMs() []DMChatInfo {
	m.mux.RLock()
	defer m.mux.RUnlock()

	dms, _ := m.st.DMs.Get(m.env.Caller())
	out := make([]DMChatInfo, dms.Len())
	copy(out, dms)
	return out
}

// DMWithStatus returns the given member's record of their conversation
// with the peer.
func (m *Manager) DMWithStatus(user, other UserID) (DMChatInfo, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()

	dm := m.findDMUnsafe(user, other)
	if dm == nil {
		return DMChatInfo{}, ErrDMNotFound
	}
	return *dm, nil
}

// DMIdentityByContext resolves the peer's current identity for the
// conversation with the given context id, preferring the rotated identity
// when rotation has completed.
func (m *Manager) DMIdentityByContext(contextID string) (UserID, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()

	dms, _ := m.st.DMs.Get(m.env.Caller())
	for i := range dms {
		if dms[i].ContextID == contextID {
			if dms[i].OtherNew != "" {
				return dms[i].OtherNew, nil
			}
			return dms[i].OtherOld, nil
		}
	}
	return "", ErrDMNotFound
}

// UpdateDMHashes rolls the conversation's content-hash pair forward for
// the given member: the previous new hash becomes the old hash and the
// passed hash the new one. A hash change counts one more unread message.
func (m *Manager) UpdateDMHashes(user, other UserID, newHash string) error {
	m.mux.Lock()
	defer m.mux.Unlock()

	dm := m.findDMUnsafe(user, other)
	if dm == nil {
		return ErrDMNotFound
	}

	if dm.NewHash != newHash {
		dm.Unread++
	}
	dm.OldHash = dm.NewHash
	dm.NewHash = newHash
	m.putDMUnsafe(user, *dm)

	return m.saveUnsafe()
}

// DMHasNewMessages reports whether the peer has sent something since the
// given member last looked, detected by hash comparison.
func (m *Manager) DMHasNewMessages(user, other UserID) bool {
	m.mux.RLock()
	defer m.mux.RUnlock()

	if dm := m.findDMUnsafe(user, other); dm != nil {
		return dm.OldHash != dm.NewHash
	}
	return false
}

// MarkDMAsRead clears the caller's unread counter for the conversation and
// aligns the hash pair.
func (m *Manager) MarkDMAsRead(other UserID) (string, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	caller := m.env.Caller()

	dm := m.findDMUnsafe(caller, other)
	if dm == nil {
		return "", ErrDMNotFound
	}

	dm.Unread = 0
	dm.OldHash = dm.NewHash
	m.putDMUnsafe(caller, *dm)

	if err := m.saveUnsafe(); err != nil {
		return "", err
	}
	m.env.emit(Event{Type: DMRead, Payload: string(other)})
	return "DM marked as read", nil
}

// DMUnreadCount returns the caller's unread counter for the conversation
// with the peer, zero if none exists.
func (m *Manager) DMUnreadCount(other UserID) uint32 {
	m.mux.RLock()
	defer m.mux.RUnlock()

	if dm := m.findDMUnsafe(m.env.Caller(), other); dm != nil {
		return dm.Unread
	}
	return 0
}

// TotalDMUnreadCount sums the caller's unread counters across all DM
// conversations.
func (m *Manager) TotalDMUnreadCount() uint32 {
	m.mux.RLock()
	defer m.mux.RUnlock()

	dms, _ := m.st.DMs.Get(m.env.Caller())
	var total uint32
	for i := range dms {
		total += dms[i].Unread
	}
	return total
}

// MarkAllDMsAsRead clears the caller's unread counters and aligns the hash
// pair on every conversation.
func (m *Manager) MarkAllDMsAsRead() (string, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	caller := m.env.Caller()

	dms, _ := m.st.DMs.Get(caller)
	for i := range dms {
		dms[i].Unread = 0
		dms[i].OldHash = dms[i].NewHash
	}
	m.st.DMs.Insert(caller, dms)

	if err := m.saveUnsafe(); err != nil {
		return "", err
	}
	return "All DMs marked as read", nil
}

// findDMUnsafe returns a copy of user's record of their conversation with
// peer, or nil when none exists. Mutations must be written back with
// putDMUnsafe.
func (m *Manager) findDMUnsafe(user, peer UserID) *DMChatInfo {
	dms, _ := m.st.DMs.Get(user)
	for i := range dms {
		if dms[i].matches(peer) {
			dm := dms[i]
			return &dm
		}
	}
	return nil
}

func (m *Manager) putDMUnsafe(user UserID, dm DMChatInfo) {
	dms, _ := m.st.DMs.Get(user)
	for i := range dms {
		if dms[i].matches(dm.OtherOld) {
			dms[i] = dm
			m.st.DMs.Insert(user, dms)
			return
		}
	}
}

func (m *Manager) pushDMUnsafe(user UserID, dm DMChatInfo) {
	dms, _ := m.st.DMs.Get(user)
	dms.Push(dm)
	m.st.DMs.Insert(user, dms)
}

func (m *Manager) removeDMUnsafe(user, peer UserID) {
	dms, _ := m.st.DMs.Get(user)
	kept := make(collective.Vector[DMChatInfo], 0, dms.Len())
	for i := range dms {
		if !dms[i].matches(peer) {
			kept = append(kept, dms[i])
		}
	}
	m.st.DMs.Insert(user, kept)
}
