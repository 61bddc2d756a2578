package colab

import (
	"sort"
	"strconv"
	"strings"
)

// RosterEntry lists the users eligible for one module.
type RosterEntry struct {
	Module Module `json:"module"`
	Users  []User `json:"users"`
}

// HasUser reports whether userID is eligible for the entry's module.
func (e RosterEntry) HasUser(userID int64) bool {
	for _, u := range e.Users {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// Roster maps each module to its eligible users.
type Roster struct {
	entries  []RosterEntry
	byModule map[int64]int
}

// BuildRoster derives module eligibility from access profiles. A user is
// eligible for a module when at least one profile grants both; users are
// deduplicated by ID and keep first-seen order. Entries are sorted by module
// name, then ID.
func BuildRoster(profiles []Profile) *Roster {
	type building struct {
		entry RosterEntry
		seen  map[int64]struct{}
	}

	byModule := make(map[int64]*building)
	order := make([]int64, 0)

	for _, p := range profiles {
		if len(p.Modules) == 0 || len(p.Users) == 0 {
			continue
		}
		for _, m := range p.Modules {
			b, ok := byModule[m.ID]
			if !ok {
				b = &building{
					entry: RosterEntry{Module: m, Users: make([]User, 0, len(p.Users))},
					seen:  make(map[int64]struct{}, len(p.Users)),
				}
				byModule[m.ID] = b
				order = append(order, m.ID)
			}
			for _, u := range p.Users {
				if _, dup := b.seen[u.ID]; dup {
					continue
				}
				b.seen[u.ID] = struct{}{}
				b.entry.Users = append(b.entry.Users, u)
			}
		}
	}

	entries := make([]RosterEntry, 0, len(order))
	for _, id := range order {
		entries = append(entries, byModule[id].entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Module.Name != entries[j].Module.Name {
			return entries[i].Module.Name < entries[j].Module.Name
		}
		return entries[i].Module.ID < entries[j].Module.ID
	})

	r := &Roster{entries: entries, byModule: make(map[int64]int, len(entries))}
	for i, e := range entries {
		r.byModule[e.Module.ID] = i
	}
	return r
}

// Entries returns the roster in display order.
func (r *Roster) Entries() []RosterEntry {
	out := make([]RosterEntry, len(r.entries))
	for i, e := range r.entries {
		out[i] = RosterEntry{Module: e.Module, Users: append([]User(nil), e.Users...)}
	}
	return out
}

func (r *Roster) Modules() []Module {
	modules := make([]Module, len(r.entries))
	for i, e := range r.entries {
		modules[i] = e.Module
	}
	return modules
}

func (r *Roster) Entry(moduleID int64) (RosterEntry, bool) {
	i, ok := r.byModule[moduleID]
	if !ok {
		return RosterEntry{}, false
	}
	return r.entries[i], true
}

func (r *Roster) IsEligible(moduleID, userID int64) bool {
	e, ok := r.Entry(moduleID)
	return ok && e.HasUser(userID)
}

// Find resolves a module given either its numeric ID or its name, compared
// case-insensitively.
func (r *Roster) Find(ref string) (Module, bool) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		e, ok := r.Entry(id)
		return e.Module, ok
	}
	for _, e := range r.entries {
		if strings.EqualFold(e.Module.Name, ref) {
			return e.Module, true
		}
	}
	return Module{}, false
}
