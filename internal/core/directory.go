package core

import (
	"sort"
	"sync"

	"github.com/dkeye/DocRelay/internal/domain"
	"github.com/rs/zerolog/log"
)

// memDirectory is a threadsafe in-memory RoomDirectory.
type memDirectory struct {
	mu    sync.RWMutex
	rooms map[domain.RoomName]*roster
}

func NewRoomDirectory() RoomDirectory {
	return &memDirectory{rooms: make(map[domain.RoomName]*roster)}
}

func (d *memDirectory) AddMember(room domain.RoomName, name domain.DisplayName) []domain.DisplayName {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rooms[room]
	if !ok {
		r = &roster{}
		d.rooms[room] = r
		log.Info().Str("module", "core.directory").Str("room", string(room)).Msg("room created")
	}
	r.add(name)
	log.Debug().Str("module", "core.directory").Str("room", string(room)).Str("user", string(name)).Int("members", r.len()).Msg("member added")
	return r.snapshot()
}

func (d *memDirectory) RemoveMember(room domain.RoomName, name domain.DisplayName) ([]domain.DisplayName, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rooms[room]
	if !ok {
		return nil, false
	}
	if !r.removeFirst(name) {
		log.Warn().Str("module", "core.directory").Str("room", string(room)).Str("user", string(name)).Msg("member not in roster")
		return nil, false
	}
	if r.len() == 0 {
		delete(d.rooms, room)
		log.Info().Str("module", "core.directory").Str("room", string(room)).Msg("room deleted")
		return nil, false
	}
	return r.snapshot(), true
}

func (d *memDirectory) Snapshot(room domain.RoomName) []domain.DisplayName {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.rooms[room]
	if !ok {
		return []domain.DisplayName{}
	}
	return r.snapshot()
}

func (d *memDirectory) List() []RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]RoomInfo, 0, len(d.rooms))
	for name, r := range d.rooms {
		out = append(out, RoomInfo{Name: name, MemberCount: r.len()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (d *memDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}
