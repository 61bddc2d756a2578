package colab

import (
	"errors"
	"sort"
)

var ErrModuleNotActive = errors.New("module is not selected")

// Selector holds the operator's in-progress selection, one user per module.
// It has a single writer and is not safe for concurrent use.
type Selector struct {
	roster      *Roster
	suggestions Suggestions
	desired     map[int64]int64
}

func NewSelector(roster *Roster, suggestions Suggestions) *Selector {
	if roster == nil {
		roster = BuildRoster(nil)
	}
	return &Selector{
		roster:      roster,
		suggestions: suggestions.clone(),
		desired:     make(map[int64]int64),
	}
}

// Activate selects a module, seeding it with DefaultUser. Activating an
// already selected module keeps its user. It returns false when the module
// has no default user and therefore stays unselected.
func (s *Selector) Activate(moduleID int64) bool {
	if _, ok := s.desired[moduleID]; ok {
		return true
	}
	entry, ok := s.roster.Entry(moduleID)
	if !ok {
		return false
	}
	user, ok := DefaultUser(entry, s.suggestions)
	if !ok {
		return false
	}
	s.desired[moduleID] = user.ID
	return true
}

func (s *Selector) Deactivate(moduleID int64) {
	delete(s.desired, moduleID)
}

// Reassign changes the user of a selected module. Roster membership is the
// caller's concern.
func (s *Selector) Reassign(moduleID, userID int64) error {
	if _, ok := s.desired[moduleID]; !ok {
		return ErrModuleNotActive
	}
	s.desired[moduleID] = userID
	return nil
}

// UseSuggestions replaces the suggestions future activations are seeded
// with. Selected modules are left as they are.
func (s *Selector) UseSuggestions(suggestions Suggestions) {
	s.suggestions = suggestions.clone()
}

func (s *Selector) IsActive(moduleID int64) bool {
	_, ok := s.desired[moduleID]
	return ok
}

// Load replaces the selection with the given assignments.
func (s *Selector) Load(assignments []Assignment) {
	s.desired = make(map[int64]int64, len(assignments))
	for _, a := range assignments {
		if _, dup := s.desired[a.ModuleID]; dup {
			continue
		}
		s.desired[a.ModuleID] = a.UserID
	}
}

func (s *Selector) Reset() {
	s.desired = make(map[int64]int64)
}

// Snapshot returns the selection sorted by module ID.
func (s *Selector) Snapshot() []Assignment {
	out := make([]Assignment, 0, len(s.desired))
	for moduleID, userID := range s.desired {
		out = append(out, Assignment{ModuleID: moduleID, UserID: userID})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModuleID < out[j].ModuleID })
	return out
}
