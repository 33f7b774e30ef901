////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package chat

import (
	"fmt"
	"reflect"
	"testing"
)

func fillChannel(t *testing.T, m *Manager, rig *testRig, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		sendAs(t, m, rig, "alice", "general", fmt.Sprintf("m%d", i))
	}
}

func texts(views []MessageView) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.Text
	}
	return out
}

// Tests the newest-first window: offset counts back from the most recent
// message and the window comes back in chronological order.
func Test_GetMessages_Window(t *testing.T) {
	m, rig := newTestManager(t)
	fillChannel(t, m, rig, 5)

	resp, err := m.GetMessages("general", "", 2, 1)
	if err != nil {
		t.Fatalf("Failed to get messages: %+v", err)
	}

	if resp.TotalCount != 5 || resp.StartPosition != 1 {
		t.Errorf("Unexpected window metadata.\nExpected: total %d, start %d"+
			"\nReceived: total %d, start %d",
			5, 1, resp.TotalCount, resp.StartPosition)
	}
	expected := []string{"m2", "m3"}
	if !reflect.DeepEqual(texts(resp.Messages), expected) {
		t.Errorf("Unexpected window contents.\nExpected: %v\nReceived: %v",
			expected, texts(resp.Messages))
	}
}

// Tests that an offset past the end yields an empty window, not an error.
func Test_GetMessages_OffsetPastEnd(t *testing.T) {
	m, rig := newTestManager(t)
	fillChannel(t, m, rig, 5)

	resp, err := m.GetMessages("general", "", 2, 10)
	if err != nil {
		t.Fatalf("Failed to get messages: %+v", err)
	}
	if len(resp.Messages) != 0 || resp.TotalCount != 5 ||
		resp.StartPosition != 10 {
		t.Errorf("Unexpected out-of-range window: %+v", resp)
	}
}

// Tests that a zero limit falls back to the default page size and a short
// sequence comes back whole.
func Test_GetMessages_DefaultLimit(t *testing.T) {
	m, rig := newTestManager(t)
	fillChannel(t, m, rig, 3)

	resp, err := m.GetMessages("general", "", 0, 0)
	if err != nil {
		t.Fatalf("Failed to get messages: %+v", err)
	}
	expected := []string{"m0", "m1", "m2"}
	if !reflect.DeepEqual(texts(resp.Messages), expected) {
		t.Errorf("Unexpected window contents.\nExpected: %v\nReceived: %v",
			expected, texts(resp.Messages))
	}

	if _, err = m.GetMessages("missing", "", 0, 0); err != ErrChannelNotFound {
		t.Errorf("Unknown channel accepted.\nExpected: %v\nReceived: %v",
			ErrChannelNotFound, err)
	}
}

// Tests thread retrieval through the parent id and the rejections for
// unknown or nested parents.
func Test_GetMessages_Thread(t *testing.T) {
	m, rig := newTestManager(t)
	parent := sendAs(t, m, rig, "alice", "general", "root")

	reply, err := m.SendMessage("general", "r0", nil, parent)
	if err != nil {
		t.Fatalf("Failed to send thread reply: %+v", err)
	}
	if _, err = m.SendMessage("general", "r1", nil, parent); err != nil {
		t.Fatalf("Failed to send thread reply: %+v", err)
	}

	resp, err := m.GetMessages("general", parent, 0, 0)
	if err != nil {
		t.Fatalf("Failed to get thread: %+v", err)
	}
	expected := []string{"r0", "r1"}
	if !reflect.DeepEqual(texts(resp.Messages), expected) {
		t.Errorf("Unexpected thread contents.\nExpected: %v\nReceived: %v",
			expected, texts(resp.Messages))
	}

	if _, err = m.GetMessages("general", "general:99", 0, 0); err !=
		ErrThreadNotFound {
		t.Errorf("Unknown parent accepted.\nExpected: %v\nReceived: %v",
			ErrThreadNotFound, err)
	}
	// A reply cannot parent its own thread.
	if _, err = m.GetMessages("general", reply, 0, 0); err !=
		ErrThreadNotFound {
		t.Errorf("Nested parent accepted.\nExpected: %v\nReceived: %v",
			ErrThreadNotFound, err)
	}
}

// Tests that reactions flatten to sorted reactor lists in the view.
func Test_GetMessages_ReactionView(t *testing.T) {
	m, rig := newTestManager(t)
	joinAs(t, m, rig, "bob", "bob")
	id := sendAs(t, m, rig, "alice", "general", "hello")

	rig.caller = "bob"
	if _, err := m.UpdateReaction(id, "👍"); err != nil {
		t.Fatalf("Failed to react: %+v", err)
	}
	rig.caller = "alice"
	if _, err := m.UpdateReaction(id, "👍"); err != nil {
		t.Fatalf("Failed to react: %+v", err)
	}

	resp, err := m.GetMessages("general", "", 0, 0)
	if err != nil {
		t.Fatalf("Failed to get messages: %+v", err)
	}
	expected := map[string][]string{"👍": {"alice", "bob"}}
	if !reflect.DeepEqual(resp.Messages[0].Reactions, expected) {
		t.Errorf("Unexpected reaction view.\nExpected: %v\nReceived: %v",
			expected, resp.Messages[0].Reactions)
	}
}
