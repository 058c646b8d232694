package app

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/DocRelay/internal/core"
	"github.com/dkeye/DocRelay/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrAlreadyJoined  = errors.New("session already joined a room")
)

type sessionEntry struct {
	Session domain.Session
	Signal  core.SignalConnection
	Cancel  context.CancelFunc
}

// Registry binds live connections to their sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
	}
}

// Connect creates an empty session for a new connection.
func (r *Registry) Connect(sid core.SessionID, sig core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Signal: sig, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound signal")
}

// Join sets room and name exactly once.
func (r *Registry) Join(sid core.SessionID, room domain.RoomName, name domain.DisplayName) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return ErrUnknownSession
	}
	if e.Session.Joined() {
		return ErrAlreadyJoined
	}
	e.Session = domain.Session{Room: room, Name: name}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(room)).Str("user", string(name)).Msg("joined room")
	return nil
}

// Disconnect destroys the session and returns what it held.
func (r *Registry) Disconnect(sid core.SessionID) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return domain.Session{}, false
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
	return e.Session, true
}

func (r *Registry) Get(sid core.SessionID) (domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return domain.Session{}, false
	}
	return e.Session, true
}

func (r *Registry) Signal(sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil, false
	}
	return e.Signal, true
}

func (r *Registry) RoomOf(sid core.SessionID) (domain.RoomName, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || !e.Session.Joined() {
		return "", false
	}
	return e.Session.Room, true
}

type regSnap struct {
	SID    core.SessionID
	Signal core.SignalConnection
}

func (r *Registry) MembersOfRoom(name domain.RoomName) []regSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]regSnap, 0, len(r.sessions))
	for sid, e := range r.sessions {
		if e.Session.Joined() && e.Session.Room == name {
			out = append(out, regSnap{SID: sid, Signal: e.Signal})
		}
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
