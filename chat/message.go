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

// Message is one entry in a channel's append-only sequence. Every scalar
// field is an independent LWW register: divergent replicas reconcile each
// field on its own write time, not as a whole-record overwrite. A message
// owns its reply thread and reaction map, and is tombstoned rather than
// removed so sequence positions stay stable.
type Message struct {
	Timestamp      collective.Register[uint64]    `json:"timestamp"`
	Sender         collective.Register[UserID]    `json:"sender"`
	SenderUsername collective.Register[string]    `json:"senderUsername"`
	Mentions       collective.Vector[UserID]      `json:"mentions"`
	MentionNames   collective.Vector[string]      `json:"mentionNames"`
	ID             collective.Register[MessageID] `json:"id"`
	Text           collective.Register[string]    `json:"text"`
	EditedOn       collective.Register[uint64]    `json:"editedOn"`
	Deleted        collective.Register[bool]      `json:"deleted"`
	Channel        collective.Register[string]    `json:"channel"`

	// Thread holds direct replies; replies cannot themselves have threads.
	Thread collective.Vector[Message] `json:"thread"`

	// Reactions maps a reaction label to the set of member names that
	// applied it.
	Reactions collective.Map[string, collective.Set[string]] `json:"reactions"`
}

func newMessage(id MessageID, channel string, sender UserID, username,
	text string, mentions []UserID, mentionNames []string, now uint64,
) Message {
	return Message{
		Timestamp:      collective.NewRegister(now, now),
		Sender:         collective.NewRegister(sender, now),
		SenderUsername: collective.NewRegister(username, now),
		Mentions:       append(collective.Vector[UserID]{}, mentions...),
		MentionNames:   append(collective.Vector[string]{}, mentionNames...),
		ID:             collective.NewRegister(id, now),
		Text:           collective.NewRegister(text, now),
		EditedOn:       collective.NewRegister(uint64(0), now),
		Deleted:        collective.NewRegister(false, now),
		Channel:        collective.NewRegister(channel, now),
		Thread:         collective.Vector[Message]{},
		Reactions:      collective.NewMap[string, collective.Set[string]](),
	}
}

// messageKey identifies a message across replicas by its immutable creation
// fields. Two replicas can mint the same positional id concurrently, so the
// id alone is not identity; the sender and creation timestamp disambiguate
// and keep both concurrent sends alive through a merge.
type messageKey struct {
	id     MessageID
	sender UserID
	ts     uint64
}

func messageKeyOf(msg Message) messageKey {
	return messageKey{
		id:     msg.ID.Get(),
		sender: msg.Sender.Get(),
		ts:     msg.Timestamp.Get(),
	}
}

// messageLess orders merged sequences chronologically, with the id and
// sender breaking timestamp ties so every replica lands on the same order.
func messageLess(a, b Message) bool {
	if at, bt := a.Timestamp.Get(), b.Timestamp.Get(); at != bt {
		return at < bt
	}
	if ai, bi := a.ID.Get(), b.ID.Get(); ai != bi {
		return ai < bi
	}
	return a.Sender.Get() < b.Sender.Get()
}

func mergeMessageVectors(a, b collective.Vector[Message],
) collective.Vector[Message] {
	return collective.MergeVectorsBy(a, b, messageKeyOf, mergeMessage,
		messageLess)
}

func mergeMessage(a, b Message) Message {
	a.Timestamp.Merge(b.Timestamp)
	a.Sender.Merge(b.Sender)
	a.SenderUsername.Merge(b.SenderUsername)
	a.ID.Merge(b.ID)
	a.Text.Merge(b.Text)
	a.EditedOn.Merge(b.EditedOn)
	a.Deleted.Merge(b.Deleted)
	a.Channel.Merge(b.Channel)

	// Mention lists are fixed at creation, so two copies of the same
	// message hold the same elements at the same positions.
	keepFirst := func(x, _ UserID) UserID { return x }
	a.Mentions = collective.MergeVectors(a.Mentions, b.Mentions, keepFirst)
	a.MentionNames = collective.MergeVectors(a.MentionNames, b.MentionNames,
		func(x, _ string) string { return x })

	a.Thread = mergeMessageVectors(a.Thread, b.Thread)

	if a.Reactions == nil {
		a.Reactions = collective.NewMap[string, collective.Set[string]]()
	}
	collective.MergeMaps(a.Reactions, b.Reactions,
		func(x, y collective.Set[string]) collective.Set[string] {
			if x == nil {
				x = collective.NewSet[string]()
			}
			collective.MergeSets(x, y)
			return x
		})

	return a
}

// SendMessage appends a message to the channel, or to a top-level message's
// thread when parentID is non-empty. Top-level sends increment every other
// channel member's unread count and append mention records for mentioned
// members; thread replies do neither, since threads are pulled by readers
// rather than pushed at them. Returns the new message's id.
func (m *Manager) SendMessage(channel, text string, mentions []UserID,
	parentID MessageID) (MessageID, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	caller := m.env.Caller()
	now := m.env.Now()
	username := m.usernameUnsafe(caller)

	ci, ok := m.st.Channels.Get(channel)
	if !ok {
		return "", ErrChannelNotFound
	}

	mentionNames := make([]string, 0, len(mentions))
	for _, mentioned := range mentions {
		mentionNames = append(mentionNames, m.usernameUnsafe(mentioned))
	}

	if parentID != "" {
		parentIdx := findMessageIndex(ci.Messages, parentID)
		if parentIdx < 0 {
			return "", ErrThreadNotFound
		}
		parent, ok := ci.Messages.At(parentIdx)
		if !ok {
			return "", ErrThreadNotFound
		}

		id := MessageID(fmt.Sprintf("%s:%d", parentID, parent.Thread.Len()))
		parent.Thread.Push(newMessage(id, channel, caller, username, text,
			mentions, mentionNames, now))
		ci.Messages.Update(parentIdx, parent)

		if err := m.saveUnsafe(); err != nil {
			return "", err
		}
		m.env.emit(Event{Type: MessageSentThread, Payload: string(id)})
		return id, nil
	}

	id := MessageID(fmt.Sprintf("%s:%d", channel, ci.Messages.Len()))
	ci.Messages.Push(newMessage(id, channel, caller, username, text,
		mentions, mentionNames, now))

	m.bumpUnreadUnsafe(ci, caller)
	m.trackMentionsUnsafe(ci, id, mentions, now)

	if err := m.saveUnsafe(); err != nil {
		return "", err
	}
	m.env.emit(Event{Type: MessageSent, Payload: string(id)})
	return id, nil
}

// EditMessage overwrites a message's text and stamps its edited-on time.
// Only the original sender may edit; there is no moderator override.
func (m *Manager) EditMessage(id MessageID, newText string) (string, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	caller := m.env.Caller()
	now := m.env.Now()

	loc, found := m.locateMessageUnsafe(id)
	if !found {
		return "", ErrMessageNotFound
	}
	if loc.message.Sender.Get() != caller {
		return "", ErrNotOwnMessage
	}

	loc.message.Text.Set(newText, now)
	loc.message.EditedOn.Set(now, now)
	loc.put()

	if err := m.saveUnsafe(); err != nil {
		return "", err
	}
	m.env.emit(Event{Type: MessageEdited, Payload: string(id)})
	return "Message edited successfully", nil
}

// DeleteMessage tombstones a message: the text is cleared and the deleted
// flag set, but the message keeps its position so history indices and
// derived ids stay valid. Permitted for the sender, moderators, and the
// chat owner.
func (m *Manager) DeleteMessage(id MessageID) (string, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	caller := m.env.Caller()
	now := m.env.Now()

	loc, found := m.locateMessageUnsafe(id)
	if !found {
		return "", ErrMessageNotFound
	}
	if !m.canDeleteUnsafe(loc, caller) {
		return "", ErrNoDeletePermission
	}

	loc.message.Text.Set("", now)
	loc.message.Deleted.Set(true, now)
	loc.put()

	if err := m.saveUnsafe(); err != nil {
		return "", err
	}
	m.env.emit(Event{Type: MessageDeleted, Payload: string(id)})
	return "Message deleted successfully", nil
}

func (m *Manager) canDeleteUnsafe(loc messageLocation, user UserID) bool {
	if loc.message.Sender.Get() == user || m.st.Owner == user ||
		m.st.Moderators.Has(user) {
		return true
	}
	return loc.channel.Moderators.Has(user)
}

// messageLocation pins a message inside the state so a mutation can be
// written back through the owning vectors. threadIdx is -1 for top-level
// messages.
type messageLocation struct {
	channel   *ChannelInfo
	msgIdx    int
	threadIdx int
	message   Message
	parent    Message
}

// put writes the (possibly mutated) message back into its owning sequence.
func (loc *messageLocation) put() {
	if loc.threadIdx >= 0 {
		loc.parent.Thread.Update(loc.threadIdx, loc.message)
		loc.channel.Messages.Update(loc.msgIdx, loc.parent)
		return
	}
	loc.channel.Messages.Update(loc.msgIdx, loc.message)
}

// locateMessageUnsafe resolves a message id across every channel's
// top-level messages first, then across every thread.
func (m *Manager) locateMessageUnsafe(id MessageID) (messageLocation, bool) {
	for _, name := range m.st.Channels.Keys() {
		ci, _ := m.st.Channels.Get(name)
		if idx := findMessageIndex(ci.Messages, id); idx >= 0 {
			msg, _ := ci.Messages.At(idx)
			return messageLocation{
				channel: ci, msgIdx: idx, threadIdx: -1, message: msg,
			}, true
		}
	}

	for _, name := range m.st.Channels.Keys() {
		ci, _ := m.st.Channels.Get(name)
		for i := 0; i < ci.Messages.Len(); i++ {
			parent, _ := ci.Messages.At(i)
			if tIdx := findMessageIndex(parent.Thread, id); tIdx >= 0 {
				msg, _ := parent.Thread.At(tIdx)
				return messageLocation{
					channel: ci, msgIdx: i, threadIdx: tIdx,
					message: msg, parent: parent,
				}, true
			}
		}
	}

	return messageLocation{}, false
}

func findMessageIndex(messages collective.Vector[Message], id MessageID) int {
	for i := 0; i < messages.Len(); i++ {
		if messages[i].ID.Get() == id {
			return i
		}
	}
	return -1
}

func (m *Manager) bumpUnreadUnsafe(ci *ChannelInfo, sender UserID) {
	for member := range ci.Members {
		if member == sender {
			continue
		}
		rec, _ := ci.Unread.Get(member)
		rec.Count++
		ci.Unread.Insert(member, rec)
	}
}

func (m *Manager) trackMentionsUnsafe(ci *ChannelInfo, id MessageID,
	mentions []UserID, now uint64) {
	for _, mentioned := range mentions {
		records, _ := ci.Mentions.Get(mentioned)
		records.Push(MentionRecord{
			MessageID: id,
			Count:     1,
			Types:     []string{"@user"},
			Timestamp: now,
		})
		ci.Mentions.Insert(mentioned, records)
	}
}
