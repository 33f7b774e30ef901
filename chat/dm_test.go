////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package chat

import "testing"

// newDMPair creates a chat with alice and bob joined and a DM conversation
// started by alice. Returns the manager and rig with alice as the caller.
func newDMPair(t *testing.T) (*Manager, *testRig) {
	t.Helper()

	m, rig := newTestManager(t)
	joinAs(t, m, rig, "bob", "bob")

	rig.caller = "alice"
	_, err := m.CreateDMChat("bob", "ctx-1", "invite-payload", 0)
	if err != nil {
		t.Fatalf("Failed to create DM: %+v", err)
	}
	return m, rig
}

// Tests that creating a DM stores a record under both participants with
// mirrored identities, the inviter joined and the invitee not, and both
// sides sharing the starting content hash.
func Test_CreateDMChat_Symmetric(t *testing.T) {
	m, _ := newDMPair(t)

	inviter, err := m.DMWithStatus("alice", "bob")
	if err != nil {
		t.Fatalf("Failed to get inviter record: %+v", err)
	}
	invitee, err := m.DMWithStatus("bob", "alice")
	if err != nil {
		t.Fatalf("Failed to get invitee record: %+v", err)
	}

	if !inviter.DidJoin {
		t.Errorf("Inviter not joined at creation: %+v", inviter)
	}
	if invitee.DidJoin {
		t.Errorf("Invitee joined before accepting: %+v", invitee)
	}
	if inviter.CreatedBy != "alice" || invitee.CreatedBy != "alice" {
		t.Errorf("CreatedBy not mirrored.\nInviter: %s\nInvitee: %s",
			inviter.CreatedBy, invitee.CreatedBy)
	}
	if inviter.OtherOld != "bob" || invitee.OtherOld != "alice" {
		t.Errorf("Peer identities not mirrored.\nInviter: %+v\nInvitee: %+v",
			inviter, invitee)
	}

	startHash := HashContent([]byte("ctx-1"))
	if inviter.OldHash != startHash || inviter.NewHash != startHash ||
		invitee.OldHash != startHash || invitee.NewHash != startHash {
		t.Errorf("Starting hashes wrong.\nExpected: %s\nInviter: %s/%s"+
			"\nInvitee: %s/%s", startHash, inviter.OldHash, inviter.NewHash,
			invitee.OldHash, invitee.NewHash)
	}
}

// Tests the self-DM and duplicate rejections, including a duplicate
// attempted from the other side.
func Test_CreateDMChat_Rejections(t *testing.T) {
	m, rig := newDMPair(t)

	if _, err := m.CreateDMChat("alice", "ctx-2", "", 0); err != ErrSelfDM {
		t.Errorf("Self DM accepted.\nExpected: %v\nReceived: %v",
			ErrSelfDM, err)
	}
	if _, err := m.CreateDMChat("bob", "ctx-2", "", 0); err != ErrDMExists {
		t.Errorf("Duplicate DM accepted.\nExpected: %v\nReceived: %v",
			ErrDMExists, err)
	}

	rig.caller = "bob"
	if _, err := m.CreateDMChat("alice", "ctx-2", "", 0); err != ErrDMExists {
		t.Errorf("Reverse duplicate DM accepted."+
			"\nExpected: %v\nReceived: %v", ErrDMExists, err)
	}
}

// Tests identity rotation: the caller's rotated identity lands on their own
// record as OwnNew and on the peer's record as OtherNew, and context lookup
// prefers the rotated identity afterward.
func Test_UpdateNewIdentity(t *testing.T) {
	m, rig := newDMPair(t)

	if _, err := m.UpdateNewIdentity("bob", "alice-rot"); err != nil {
		t.Fatalf("Failed to rotate identity: %+v", err)
	}

	own, _ := m.DMWithStatus("alice", "bob")
	if own.OwnNew != "alice-rot" {
		t.Errorf("OwnNew not recorded.\nExpected: %s\nReceived: %s",
			"alice-rot", own.OwnNew)
	}
	peer, _ := m.DMWithStatus("bob", "alice")
	if peer.OtherNew != "alice-rot" {
		t.Errorf("Peer OtherNew not recorded.\nExpected: %s\nReceived: %s",
			"alice-rot", peer.OtherNew)
	}

	rig.caller = "bob"
	id, err := m.DMIdentityByContext("ctx-1")
	if err != nil {
		t.Fatalf("Failed to resolve context: %+v", err)
	}
	if id != "alice-rot" {
		t.Errorf("Context lookup ignored rotation."+
			"\nExpected: %s\nReceived: %s", "alice-rot", id)
	}

	if _, err = m.UpdateNewIdentity("nobody", "x"); err != ErrDMNotFound {
		t.Errorf("Rotation without DM accepted."+
			"\nExpected: %v\nReceived: %v", ErrDMNotFound, err)
	}
}

// Tests that only the inviter may update the invitation payload and that
// the update lands on both records.
func Test_UpdateInvitationPayload(t *testing.T) {
	m, rig := newDMPair(t)

	rig.caller = "bob"
	if _, err := m.UpdateInvitationPayload("alice", "forged"); err !=
		ErrNotInviter {
		t.Errorf("Invitee updated invitation.\nExpected: %v\nReceived: %v",
			ErrNotInviter, err)
	}

	rig.caller = "alice"
	if _, err := m.UpdateInvitationPayload("bob", "v2"); err != nil {
		t.Fatalf("Inviter failed to update invitation: %+v", err)
	}

	own, _ := m.DMWithStatus("alice", "bob")
	peer, _ := m.DMWithStatus("bob", "alice")
	if own.Invitation != "v2" || peer.Invitation != "v2" {
		t.Errorf("Invitation not propagated.\nInviter: %s\nInvitee: %s",
			own.Invitation, peer.Invitation)
	}
}

// Tests that accepting marks only the caller's record joined and that
// re-accepting is a harmless no-op.
func Test_AcceptInvitation(t *testing.T) {
	m, rig := newDMPair(t)

	rig.caller = "bob"
	if _, err := m.AcceptInvitation("alice"); err != nil {
		t.Fatalf("Failed to accept invitation: %+v", err)
	}
	if _, err := m.AcceptInvitation("alice"); err != nil {
		t.Errorf("Re-accept failed: %+v", err)
	}

	invitee, _ := m.DMWithStatus("bob", "alice")
	if !invitee.DidJoin {
		t.Errorf("Acceptance not recorded: %+v", invitee)
	}

	if _, err := m.AcceptInvitation("nobody"); err != ErrDMNotFound {
		t.Errorf("Acceptance without DM accepted."+
			"\nExpected: %v\nReceived: %v", ErrDMNotFound, err)
	}
}

// Tests hash rolling and unread accounting: a changed hash counts one more
// unread message, an unchanged hash does not.
func Test_UpdateDMHashes(t *testing.T) {
	m, _ := newDMPair(t)
	start := HashContent([]byte("ctx-1"))
	next := HashContent([]byte("ctx-1 + msg"))

	if err := m.UpdateDMHashes("bob", "alice", next); err != nil {
		t.Fatalf("Failed to update hashes: %+v", err)
	}

	rec, _ := m.DMWithStatus("bob", "alice")
	if rec.OldHash != start || rec.NewHash != next {
		t.Errorf("Hashes not rolled.\nExpected: %s -> %s\nReceived: %s -> %s",
			start, next, rec.OldHash, rec.NewHash)
	}
	if rec.Unread != 1 {
		t.Errorf("Unread not counted.\nExpected: %d\nReceived: %d",
			1, rec.Unread)
	}
	if !m.DMHasNewMessages("bob", "alice") {
		t.Errorf("New messages not detected after hash change")
	}

	// Re-applying the same hash aligns the pair without counting.
	if err := m.UpdateDMHashes("bob", "alice", next); err != nil {
		t.Fatalf("Failed to update hashes: %+v", err)
	}
	rec, _ = m.DMWithStatus("bob", "alice")
	if rec.Unread != 1 {
		t.Errorf("Unchanged hash counted.\nExpected: %d\nReceived: %d",
			1, rec.Unread)
	}
	if m.DMHasNewMessages("bob", "alice") {
		t.Errorf("New messages reported with aligned hashes")
	}
}

// Tests marking a single conversation and all conversations read.
func Test_MarkDMAsRead(t *testing.T) {
	m, rig := newDMPair(t)
	joinAs(t, m, rig, "carol", "carol")
	rig.caller = "alice"
	if _, err := m.CreateDMChat("carol", "ctx-2", "", 0); err != nil {
		t.Fatalf("Failed to create second DM: %+v", err)
	}

	next := HashContent([]byte("new content"))
	if err := m.UpdateDMHashes("alice", "bob", next); err != nil {
		t.Fatalf("Failed to update hashes: %+v", err)
	}
	if err := m.UpdateDMHashes("alice", "carol", next); err != nil {
		t.Fatalf("Failed to update hashes: %+v", err)
	}

	if total := m.TotalDMUnreadCount(); total != 2 {
		t.Errorf("Total DM unread wrong.\nExpected: %d\nReceived: %d",
			2, total)
	}

	if _, err := m.MarkDMAsRead("bob"); err != nil {
		t.Fatalf("Failed to mark DM read: %+v", err)
	}
	if count := m.DMUnreadCount("bob"); count != 0 {
		t.Errorf("DM unread not cleared.\nExpected: %d\nReceived: %d",
			0, count)
	}
	if m.DMHasNewMessages("alice", "bob") {
		t.Errorf("Hashes not aligned by read")
	}

	if _, err := m.MarkAllDMsAsRead(); err != nil {
		t.Fatalf("Failed to mark all DMs read: %+v", err)
	}
	if total := m.TotalDMUnreadCount(); total != 0 {
		t.Errorf("Total DM unread not cleared."+
			"\nExpected: %d\nReceived: %d", 0, total)
	}
}

// Tests that deletion removes both participants' records.
func Test_DeleteDM(t *testing.T) {
	m, rig := newDMPair(t)

	if _, err := m.DeleteDM("bob"); err != nil {
		t.Fatalf("Failed to delete DM: %+v", err)
	}

	if _, err := m.DMWithStatus("alice", "bob"); err != ErrDMNotFound {
		t.Errorf("Inviter record survived deletion."+
			"\nExpected: %v\nReceived: %v", ErrDMNotFound, err)
	}
	if _, err := m.DMWithStatus("bob", "alice"); err != ErrDMNotFound {
		t.Errorf("Invitee record survived deletion."+
			"\nExpected: %v\nReceived: %v", ErrDMNotFound, err)
	}

	rig.caller = "bob"
	if len(m.DMs()) != 0 {
		t.Errorf("DM listing not empty after deletion: %v", m.DMs())
	}

	rig.caller = "alice"
	if _, err := m.DeleteDM("bob"); err != ErrDMNotFound {
		t.Errorf("Double delete accepted.\nExpected: %v\nReceived: %v",
			ErrDMNotFound, err)
	}
}
