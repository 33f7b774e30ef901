////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package chat

import "gitlab.com/hearth/hearth/collective"

// UnreadRecord tracks one member's read position in one channel. Merged
// whole-record: the record with the later read timestamp supersedes the
// other, since a later read reflects everything an earlier one did. Equal
// read times keep the larger count, so both replicas settle on the side
// that still has something unread.
type UnreadRecord struct {
	// LastRead is the timestamp of the member's last explicit read.
	LastRead uint64 `json:"lastRead"`
	// Count is the number of messages the member has not read.
	Count uint32 `json:"count"`
}

func mergeUnread(a, b UnreadRecord) UnreadRecord {
	if b.LastRead != a.LastRead {
		if b.LastRead > a.LastRead {
			return b
		}
		return a
	}
	if b.Count > a.Count {
		return b
	}
	return a
}

// MentionRecord is one entry in a member's per-channel mention sequence,
// appended for every message that mentions them.
type MentionRecord struct {
	MessageID MessageID `json:"messageId"`
	Count     uint32    `json:"count"`
	// Types holds the mention markers that matched (@user, @here, ...).
	Types     []string `json:"types"`
	Timestamp uint64   `json:"timestamp"`
}

func mergeMention(a, b MentionRecord) MentionRecord {
	if b.Timestamp > a.Timestamp {
		return b
	}
	return a
}

// mentionKey identifies a record by the mentioning message's id and send
// time, so concurrent mentions appended on different replicas both survive.
type mentionKey struct {
	id MessageID
	ts uint64
}

func mergeMentionVectors(a, b collective.Vector[MentionRecord],
) collective.Vector[MentionRecord] {
	key := func(rec MentionRecord) mentionKey {
		return mentionKey{id: rec.MessageID, ts: rec.Timestamp}
	}
	less := func(x, y MentionRecord) bool {
		if x.Timestamp != y.Timestamp {
			return x.Timestamp < y.Timestamp
		}
		return x.MessageID < y.MessageID
	}
	return collective.MergeVectorsBy(a, b, key, mergeMention, less)
}

// MarkChannelRead records that the caller has read the channel up to the
// given timestamp. The unread count becomes the number of messages newer
// than that timestamp rather than unconditionally zero, so a client can
// mark read "up to here". The caller's mention record is cleared.
func (m *Manager) MarkChannelRead(channel string, timestamp uint64) (
	string, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	caller := m.env.Caller()

	ci, ok := m.st.Channels.Get(channel)
	if !ok {
		return "", ErrChannelNotFound
	}

	var newer uint32
	for i := 0; i < ci.Messages.Len(); i++ {
		if ci.Messages[i].Timestamp.Get() > timestamp {
			newer++
		}
	}

	ci.Unread.Insert(caller, UnreadRecord{
		LastRead: timestamp,
		Count:    newer,
	})
	ci.Mentions.Insert(caller, collective.Vector[MentionRecord]{})

	if err := m.saveUnsafe(); err != nil {
		return "", err
	}

	return "Messages marked as read", nil
}

// ChannelUnreadCount returns the caller's unread count for the channel.
// Unknown channels and untracked members read as zero.
func (m *Manager) ChannelUnreadCount(channel string) uint32 {
	m.mux.RLock()
	defer m.mux.RUnlock()

	count, _ := m.unreadInfoUnsafe(m.env.Caller(), channel)
	return count
}

// ChannelLastRead returns the caller's last-read timestamp for the channel.
func (m *Manager) ChannelLastRead(channel string) uint64 {
	m.mux.RLock()
	defer m.mux.RUnlock()

	_, lastRead := m.unreadInfoUnsafe(m.env.Caller(), channel)
	return lastRead
}

// ChannelMentionCount returns the number of pending mentions the caller has
// in the channel.
func (m *Manager) ChannelMentionCount(channel string) uint32 {
	m.mux.RLock()
	defer m.mux.RUnlock()

	return m.mentionCountUnsafe(m.env.Caller(), channel)
}

// TotalUnreadCount sums the caller's unread counts across every channel.
// Nothing aggregated is stored; this is computed on demand.
func (m *Manager) TotalUnreadCount() uint32 {
	m.mux.RLock()
	defer m.mux.RUnlock()

	caller := m.env.Caller()
	var total uint32
	for name := range m.st.Channels {
		count, _ := m.unreadInfoUnsafe(caller, name)
		total += count
	}
	return total
}

// TotalMentionCount sums the caller's pending mentions across every channel.
func (m *Manager) TotalMentionCount() uint32 {
	m.mux.RLock()
	defer m.mux.RUnlock()

	caller := m.env.Caller()
	var total uint32
	for name := range m.st.Channels {
		total += m.mentionCountUnsafe(caller, name)
	}
	return total
}

func (m *Manager) unreadInfoUnsafe(user UserID, channel string) (
	count uint32, lastRead uint64) {
	if ci, ok := m.st.Channels.Get(channel); ok {
		if rec, ok := ci.Unread.Get(user); ok {
			return rec.Count, rec.LastRead
		}
	}
	return 0, 0
}

func (m *Manager) mentionCountUnsafe(user UserID, channel string) uint32 {
	if ci, ok := m.st.Channels.Get(channel); ok {
		if mentions, ok := ci.Mentions.Get(user); ok {
			return uint32(mentions.Len())
		}
	}
	return 0
}
