package demonlistdomain

import (
	"slices"
	"strings"
	"unicode"
)

// SanitizePlayerName lowercases raw and keeps only [a-z0-9_]. Spaces and dashes become
// underscores; every other character is dropped.
func SanitizePlayerName(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '-', unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "", NewValidationError("player", "name must contain at least one letter or digit")
	}
	return name, nil
}

// Roster is the ordered set of players tracked on every level.
type Roster struct {
	players []string
}

// NewRoster builds a roster from already sanitized names, dropping duplicates.
func NewRoster(players []string) Roster {
	out := make([]string, 0, len(players))
	for _, p := range players {
		if p == "" || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}
	return Roster{players: out}
}

// Players returns a copy of the roster in join order.
func (r Roster) Players() []string {
	return slices.Clone(r.players)
}

// Len is the number of players.
func (r Roster) Len() int {
	return len(r.players)
}

// Contains reports whether name is on the roster.
func (r Roster) Contains(name string) bool {
	return slices.Contains(r.players, name)
}

// Add returns a roster with name appended.
func (r Roster) Add(name string) (Roster, error) {
	if r.Contains(name) {
		return r, ErrDuplicatePlayer
	}
	return Roster{players: append(slices.Clone(r.players), name)}, nil
}

// Remove returns a roster without name. The roster never becomes empty.
func (r Roster) Remove(name string) (Roster, error) {
	idx := slices.Index(r.players, name)
	if idx < 0 {
		return r, ErrUnknownPlayer
	}
	if len(r.players) == 1 {
		return r, ErrLastPlayer
	}
	return Roster{players: slices.Delete(slices.Clone(r.players), idx, idx+1)}, nil
}

// FillProgress gives level a zero entry for every roster player it lacks.
func (r Roster) FillProgress(level *Level) {
	if level.Progress == nil {
		level.Progress = make(map[string]ProgressEntry, len(r.players))
	}
	for _, p := range r.players {
		if _, ok := level.Progress[p]; !ok {
			level.Progress[p] = ProgressEntry{}
		}
	}
}
