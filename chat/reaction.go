////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package chat

import (
	"gitlab.com/hearth/hearth/collective"
	"gitlab.com/hearth/hearth/emoji"
)

// UpdateReaction toggles the caller's membership in the reactor set for
// the given label on the message: added if absent, removed if present.
// The label must be a single emoji. Toggling is idempotent-safe to retry
// in the sense that applying it twice restores the original state.
func (m *Manager) UpdateReaction(id MessageID, reaction string) (
	string, error) {
	if err := emoji.ValidateReaction(reaction); err != nil {
		return "", err
	}

	m.mux.Lock()
	defer m.mux.Unlock()

	username := m.usernameUnsafe(m.env.Caller())

	loc, found := m.locateMessageUnsafe(id)
	if !found {
		return "", ErrMessageNotFound
	}

	if loc.message.Reactions == nil {
		loc.message.Reactions =
			collective.NewMap[string, collective.Set[string]]()
	}
	reactors, _ := loc.message.Reactions.Get(reaction)
	if reactors == nil {
		reactors = collective.NewSet[string]()
	}
	if reactors.Has(username) {
		reactors.Remove(username)
	} else {
		reactors.Insert(username)
	}
	loc.message.Reactions.Insert(reaction, reactors)
	loc.put()

	if err := m.saveUnsafe(); err != nil {
		return "", err
	}
	m.env.emit(Event{Type: ReactionUpdated, Payload: string(id)})
	return "Reaction updated successfully", nil
}
