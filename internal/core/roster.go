package core

import "github.com/dkeye/DocRelay/internal/domain"

// roster is the ordered member sequence of one room. Not threadsafe;
// the directory guards it.
type roster struct {
	names []domain.DisplayName
}

func (r *roster) add(name domain.DisplayName) {
	r.names = append(r.names, name)
}

// removeFirst excises one occurrence, keeping the order of the rest.
func (r *roster) removeFirst(name domain.DisplayName) bool {
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			return true
		}
	}
	return false
}

func (r *roster) len() int { return len(r.names) }

func (r *roster) snapshot() []domain.DisplayName {
	out := make([]domain.DisplayName, len(r.names))
	copy(out, r.names)
	return out
}
