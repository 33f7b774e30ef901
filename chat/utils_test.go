////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package chat

import (
	"testing"

	"gitlab.com/elixxir/ekv"

	"gitlab.com/hearth/hearth/storage/versioned"
)

// testRig drives a Manager with a swappable caller and a deterministic
// clock so a test can act as different members at known times.
type testRig struct {
	caller UserID
	now    uint64
	events []Event
}

func (r *testRig) env() Environment {
	return Environment{
		Caller: func() UserID { return r.caller },
		Now:    func() uint64 { r.now++; return r.now },
		Events: func(e Event) { r.events = append(r.events, e) },
	}
}

func newTestKV() *versioned.KV {
	return versioned.NewKV(ekv.MakeMemstore())
}

// newTestManager creates a chat owned by "alice" with the default channel
// "general" over an in-memory store.
func newTestManager(t *testing.T) (*Manager, *testRig) {
	t.Helper()

	rig := &testRig{caller: "alice"}
	m, err := NewChat(newTestKV(), Definition{
		Name:            "testChat",
		DefaultChannels: []string{"general"},
		OwnerUsername:   "alice",
	}, rig.env())
	if err != nil {
		t.Fatalf("Failed to create chat: %+v", err)
	}
	return m, rig
}

// joinAs joins the chat as the given member under the given display name.
func joinAs(t *testing.T, m *Manager, rig *testRig, user UserID, name string) {
	t.Helper()

	rig.caller = user
	if _, err := m.JoinChat(name); err != nil {
		t.Fatalf("Failed to join chat as %q: %+v", name, err)
	}
}

// sendAs sends a top-level message to the channel as the given member and
// returns its id.
func sendAs(t *testing.T, m *Manager, rig *testRig, user UserID,
	channel, text string) MessageID {
	t.Helper()

	rig.caller = user
	id, err := m.SendMessage(channel, text, nil, "")
	if err != nil {
		t.Fatalf("Failed to send %q to %q: %+v", text, channel, err)
	}
	return id
}
