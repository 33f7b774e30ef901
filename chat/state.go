////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package chat

import (
	"encoding/json"

	"gitlab.com/hearth/hearth/collective"
)

// State is one replica's copy of the whole chat aggregate. Replicas mutate
// their own copy independently and reconcile through Merge, which applies
// each entity's documented merge granularity. The zero value is not usable;
// build one with newState or load one from storage.
type State struct {
	Owner     UserID `json:"owner"`
	Name      string `json:"name"`
	CreatedAt uint64 `json:"createdAt"`
	IsDM      bool   `json:"isDM"`

	Members    collective.Set[UserID]         `json:"members"`
	Usernames  collective.Map[UserID, string] `json:"usernames"`
	Moderators collective.Set[UserID]         `json:"moderators"`

	Channels collective.Map[string, *ChannelInfo] `json:"channels"`

	// DMs holds each member's own view of their DM conversations, keyed by
	// that member's chat-wide identity. Storage is asymmetric: both
	// participants hold their own record of the same conversation.
	DMs collective.Map[UserID, collective.Vector[DMChatInfo]] `json:"dms"`
}

func newState(owner UserID, name string, createdAt uint64, isDM bool) *State {
	return &State{
		Owner:      owner,
		Name:       name,
		CreatedAt:  createdAt,
		IsDM:       isDM,
		Members:    collective.NewSet[UserID](),
		Usernames:  collective.NewMap[UserID, string](),
		Moderators: collective.NewSet[UserID](),
		Channels:   collective.NewMap[string, *ChannelInfo](),
		DMs: collective.NewMap[UserID,
			collective.Vector[DMChatInfo]](),
	}
}

// Merge folds a remote replica's state into this one. Member and moderator
// sets merge by union; usernames are write-once, so the local value wins
// and missing entries are filled; channels merge recursively per
// mergeChannelInfo; DM lists merge per conversation pair, whole-record LWW
// by creation time within a pair. Merging is idempotent and
// order-insensitive, so it is safe to re-apply after every reconciliation.
func (s *State) Merge(remote *State) {
	if remote == nil {
		return
	}

	collective.MergeSets(s.Members, remote.Members)
	collective.MergeSets(s.Moderators, remote.Moderators)
	collective.MergeMaps(s.Usernames, remote.Usernames,
		func(local, _ string) string { return local })
	collective.MergeMaps(s.Channels, remote.Channels, mergeChannelInfo)
	collective.MergeMaps(s.DMs, remote.DMs, mergeDMVectors)
}

// copy returns a deep copy through a JSON round trip. State is plain data,
// so this is both correct and cheap enough for snapshot export.
func (s *State) copy() (*State, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	out := &State{}
	if err = json.Unmarshal(data, out); err != nil {
		return nil, err
	}
	out.normalize()
	return out, nil
}

// normalize replaces nil collections with empty ones after deserialization
// so merge and mutation paths never see nil maps.
func (s *State) normalize() {
	if s.Members == nil {
		s.Members = collective.NewSet[UserID]()
	}
	if s.Usernames == nil {
		s.Usernames = collective.NewMap[UserID, string]()
	}
	if s.Moderators == nil {
		s.Moderators = collective.NewSet[UserID]()
	}
	if s.Channels == nil {
		s.Channels = collective.NewMap[string, *ChannelInfo]()
	}
	if s.DMs == nil {
		s.DMs = collective.NewMap[UserID, collective.Vector[DMChatInfo]]()
	}
	for _, ci := range s.Channels {
		if ci.Moderators == nil {
			ci.Moderators = collective.NewSet[UserID]()
		}
		if ci.Members == nil {
			ci.Members = collective.NewSet[UserID]()
		}
		if ci.Unread == nil {
			ci.Unread = collective.NewMap[UserID, UnreadRecord]()
		}
		if ci.Mentions == nil {
			ci.Mentions = collective.NewMap[UserID,
				collective.Vector[MentionRecord]]()
		}
	}
}
