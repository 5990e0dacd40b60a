package model

import (
	"fmt"
	"strings"
)

// Participant is a roster member who can be assigned to present.
type Participant struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"omitempty,email"`
}

// Validate checks the participant name is usable in a presenter field.
func (p Participant) Validate() error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidParticipant)
	}
	if name == EmptyMarker || strings.HasPrefix(name, "[") {
		return fmt.Errorf("%w: name %q collides with field markup", ErrInvalidParticipant, p.Name)
	}
	return nil
}

// Roster is an ordered list of participants.
type Roster []Participant

// Names returns roster names in order with duplicates and blanks removed.
func (r Roster) Names() []string {
	seen := make(map[string]struct{}, len(r))
	out := make([]string, 0, len(r))
	for _, p := range r {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Lookup returns the participant with the given name.
func (r Roster) Lookup(name string) (Participant, bool) {
	for _, p := range r {
		if p.Name == name {
			return p, true
		}
	}
	return Participant{}, false
}
