////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package chat

import "strings"

// unknownUsername stands in for members whose display name has not
// replicated yet.
const unknownUsername = "Unknown"

// JoinChat registers the caller as a chat member under the given display
// name, auto-enrolls them in every default channel, and seeds their
// tracking records there. Display names are write-once per member except
// via re-join, and must be unique outside DM chats.
func (m *Manager) JoinChat(username string) (string, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	caller := m.env.Caller()

	if m.st.Members.Has(caller) {
		return "", ErrAlreadyMember
	}
	if err := m.validateUsernameUnsafe(username); err != nil {
		return "", err
	}

	m.st.Members.Insert(caller)
	m.st.Usernames.Insert(caller, username)

	for _, name := range m.st.Channels.Keys() {
		ci, _ := m.st.Channels.Get(name)
		if ci.Type != Default {
			continue
		}
		ci.Members.Insert(caller)
		ci.seedTracking(caller)
	}

	if err := m.saveUnsafe(); err != nil {
		return "", err
	}
	m.env.emit(Event{Type: ChatJoined, Payload: string(caller)})
	return "Successfully joined the chat", nil
}

// ChatName returns the chat's name.
func (m *Manager) ChatName() string {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return m.st.Name
}

// ChatMembers returns the ids of every chat member.
func (m *Manager) ChatMembers() []UserID {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return m.st.Members.Items()
}

// ChatUsernames returns every member's id mapped to their display name.
func (m *Manager) ChatUsernames() map[UserID]string {
	m.mux.RLock()
	defer m.mux.RUnlock()

	result := make(map[UserID]string, m.st.Usernames.Len())
	for user, name := range m.st.Usernames {
		result[user] = name
	}
	return result
}

// Username returns the display name for the given member, or "Unknown" if
// none is recorded.
func (m *Manager) Username(user UserID) string {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return m.usernameUnsafe(user)
}

func (m *Manager) usernameUnsafe(user UserID) string {
	if name, ok := m.st.Usernames.Get(user); ok {
		return name
	}
	return unknownUsername
}

func (m *Manager) validateUsernameUnsafe(username string) error {
	if strings.TrimSpace(username) == "" {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	if m.st.IsDM {
		// DM participants keep whatever name they arrived with; uniqueness
		// is only enforced chat-wide.
		return nil
	}
	for _, existing := range m.st.Usernames {
		if existing == username {
			return ErrUsernameTaken
		}
	}
	return nil
}
