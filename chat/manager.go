////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

// Package chat is the domain and consistency core of a replicated
// group-chat: channels, threaded messages, reactions, per-member unread and
// mention tracking, and the four-step handshake that establishes private
// direct-message conversations between rotating pseudonymous identities.
//
// Each replica runs one Manager against its local store; replicas converge
// by exchanging State snapshots and folding them in with Manager.Merge.
// Replication transport, persistence encryption, and identity verification
// belong to the host.
package chat

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/xx_network/primitives/netTime"

	"gitlab.com/hearth/hearth/storage/versioned"
)

const (
	chatStateKey     = "chatState"
	chatStateVersion = 0
)

// Definition describes a chat at creation time.
type Definition struct {
	Name            string
	DefaultChannels []string
	CreatedAt       uint64
	IsDM            bool
	OwnerUsername   string

	// Invitee seeds the second participant of a DM chat. Ignored when IsDM
	// is false.
	Invitee         UserID
	InviteeUsername string
}

// Manager executes chat operations against the local replica. Operations
// run to completion one at a time: each loads nothing, mutates the
// in-memory state, and saves before returning, so the stored aggregate
// always reflects a whole operation or none of it.
type Manager struct {
	mux sync.RWMutex
	kv  *versioned.KV
	st  *State
	env Environment
}

// NewChat initializes a chat aggregate in the given store. The caller
// becomes the owner and a moderator, is enrolled in every default channel
// with tracking seeded, and, for DM chats, the invitee is enrolled
// alongside them.
func NewChat(kv *versioned.KV, def Definition, env Environment) (
	*Manager, error) {
	env, err := env.validate()
	if err != nil {
		return nil, err
	}

	owner := env.Caller()
	createdAt := def.CreatedAt
	if createdAt == 0 {
		createdAt = env.Now()
	}

	st := newState(owner, def.Name, createdAt, def.IsDM)
	st.Members.Insert(owner)
	st.Moderators.Insert(owner)
	if def.OwnerUsername != "" {
		st.Usernames.Insert(owner, def.OwnerUsername)
	}
	if def.IsDM && def.Invitee != "" {
		st.Members.Insert(def.Invitee)
		if def.InviteeUsername != "" {
			st.Usernames.Insert(def.Invitee, def.InviteeUsername)
		}
	}

	for _, name := range def.DefaultChannels {
		ci := newChannelInfo(Default, false, owner, def.OwnerUsername,
			true, createdAt)
		ci.Members.Insert(owner)
		ci.seedTracking(owner)
		if def.IsDM && def.Invitee != "" {
			ci.Members.Insert(def.Invitee)
			ci.seedTracking(def.Invitee)
		}
		st.Channels.Insert(name, ci)
	}

	m := &Manager{kv: kv, st: st, env: env}
	if err = m.saveUnsafe(); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadChat loads an existing chat aggregate from the store.
func LoadChat(kv *versioned.KV, env Environment) (*Manager, error) {
	env, err := env.validate()
	if err != nil {
		return nil, err
	}

	obj, err := kv.Get(chatStateKey, chatStateVersion)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to load chat state")
	}

	st := &State{}
	if err = json.Unmarshal(obj.Data, st); err != nil {
		return nil, errors.WithMessage(err, "failed to decode chat state")
	}
	st.normalize()

	return &Manager{kv: kv, st: st, env: env}, nil
}

// Merge folds a remote replica's state into the local one and persists the
// result. The host calls this after receiving a snapshot from another
// replica; all conflict resolution happens inside State.Merge.
func (m *Manager) Merge(remote *State) error {
	m.mux.Lock()
	defer m.mux.Unlock()

	m.st.Merge(remote)
	return m.saveUnsafe()
}

// Snapshot exports a deep copy of the local state for the host to ship to
// other replicas.
func (m *Manager) Snapshot() (*State, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return m.st.copy()
}

// Owner returns the chat owner's identity.
func (m *Manager) Owner() UserID {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return m.st.Owner
}

// IsDM reports whether this chat is a direct-message conversation.
func (m *Manager) IsDM() bool {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return m.st.IsDM
}

// saveUnsafe persists the whole aggregate. It must be called with the
// write lock held.
func (m *Manager) saveUnsafe() error {
	data, err := json.Marshal(m.st)
	if err != nil {
		jww.ERROR.Printf("[CHAT] Failed to marshal chat state: %+v", err)
		return errors.WithMessage(err, "failed to marshal chat state")
	}

	return m.kv.Set(chatStateKey, &versioned.Object{
		Version:   chatStateVersion,
		Timestamp: netTime.Now(),
		Data:      data,
	})
}
