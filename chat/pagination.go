////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package chat

import "sort"

// DefaultPageSize is the window size used when GetMessages is called with
// a zero limit.
const DefaultPageSize = 50

// MessageView is the read-side projection of a message, with register
// values unwrapped and reactions flattened to sorted reactor lists.
type MessageView struct {
	Timestamp      uint64    `json:"timestamp"`
	Sender         UserID    `json:"sender"`
	SenderUsername string    `json:"senderUsername"`
	Mentions       []UserID  `json:"mentions"`
	MentionNames   []string  `json:"mentionNames"`
	ID             MessageID `json:"id"`
	Text           string    `json:"text"`
	EditedOn       uint64    `json:"editedOn"`
	Deleted        bool      `json:"deleted"`
	Channel        string    `json:"channel"`

	Reactions map[string][]string `json:"reactions,omitempty"`

	ThreadCount         uint32 `json:"threadCount"`
	ThreadLastTimestamp uint64 `json:"threadLastTimestamp"`
}

// MessageResponse is a retrieval window over a message sequence.
// StartPosition echoes the requested offset.
type MessageResponse struct {
	TotalCount    uint32        `json:"totalCount"`
	Messages      []MessageView `json:"messages"`
	StartPosition uint32        `json:"startPosition"`
}

// GetMessages returns a window over the channel's top-level sequence, or
// over a message's thread when parentID is non-empty. Windowing is
// newest-first: offset counts back from the most recent message, and the
// window [max(0, total-offset-limit), total-offset) is returned in
// chronological order. An offset beyond the sequence yields an empty
// window, not an error.
func (m *Manager) GetMessages(channel string, parentID MessageID,
	limit, offset int) (MessageResponse, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()

	if parentID != "" {
		loc, found := m.locateMessageUnsafe(parentID)
		if !found || loc.threadIdx >= 0 {
			return MessageResponse{}, ErrThreadNotFound
		}
		return m.windowUnsafe(loc.message.Thread, limit, offset, false), nil
	}

	ci, ok := m.st.Channels.Get(channel)
	if !ok {
		return MessageResponse{}, ErrChannelNotFound
	}
	return m.windowUnsafe(ci.Messages, limit, offset, true), nil
}

func (m *Manager) windowUnsafe(messages []Message, limit, offset int,
	withThreads bool) MessageResponse {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	total := len(messages)
	resp := MessageResponse{
		TotalCount:    uint32(total),
		Messages:      []MessageView{},
		StartPosition: uint32(offset),
	}
	if offset >= total {
		return resp
	}

	end := total - offset
	start := end - limit
	if start < 0 {
		start = 0
	}

	for i := start; i < end; i++ {
		resp.Messages = append(resp.Messages,
			viewOf(&messages[i], withThreads))
	}
	return resp
}

// viewOf flattens a stored message into its read-side projection. Thread
// summaries are only attached to top-level messages; replies cannot nest.
func viewOf(msg *Message, withThreads bool) MessageView {
	view := MessageView{
		Timestamp:      msg.Timestamp.Get(),
		Sender:         msg.Sender.Get(),
		SenderUsername: msg.SenderUsername.Get(),
		Mentions:       append([]UserID{}, msg.Mentions...),
		MentionNames:   append([]string{}, msg.MentionNames...),
		ID:             msg.ID.Get(),
		Text:           msg.Text.Get(),
		EditedOn:       msg.EditedOn.Get(),
		Deleted:        msg.Deleted.Get(),
		Channel:        msg.Channel.Get(),
		Reactions:      flattenReactions(msg),
	}

	if withThreads && msg.Thread.Len() > 0 {
		view.ThreadCount = uint32(msg.Thread.Len())
		last, _ := msg.Thread.At(msg.Thread.Len() - 1)
		view.ThreadLastTimestamp = last.Timestamp.Get()
	}
	return view
}

func flattenReactions(msg *Message) map[string][]string {
	if msg.Reactions.Len() == 0 {
		return nil
	}

	out := make(map[string][]string)
	for label, reactors := range msg.Reactions {
		if reactors.Len() == 0 {
			continue
		}
		names := reactors.Items()
		sort.Strings(names)
		out[label] = names
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
