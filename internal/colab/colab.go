// Package colab computes and applies dossier collaborator assignments.
//
// A dossier has at most one active responsible user per business module.
// The package derives who may be assigned (Roster), proposes defaults from
// past collaborations (SuggestionResolver), holds the operator's selection
// (Selector), diffs it against the persisted state (Reconcile) and pushes the
// resulting writes (Executor). Persisted assignments are never mutated
// locally; the only way to observe a change is to reload the snapshot.
package colab

import (
	"context"
	"sort"
)

type Module struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Profile grants every member user access to every listed module.
type Profile struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Modules []Module `json:"modules"`
	Users   []User   `json:"users"`
}

// CurrentAssignment is one persisted row of a dossier snapshot. Inactive rows
// are history and are excluded before reconciliation.
type CurrentAssignment struct {
	ModuleID int64 `json:"module_id"`
	UserID   int64 `json:"user_id"`
	Active   bool  `json:"is_active"`
}

// Assignment is a (module, user) pair.
type Assignment struct {
	ModuleID int64 `json:"module_id"`
	UserID   int64 `json:"user_id"`
}

// Snapshot is the persisted assignment state of one dossier.
type Snapshot struct {
	DossierID       int64               `json:"dossier_id"`
	BillingClientID int64               `json:"billing_client_id"`
	Assignments     []CurrentAssignment `json:"assignments"`
}

// Active returns the active projection of the snapshot.
func (s *Snapshot) Active() []Assignment {
	if s == nil {
		return nil
	}
	return ActiveAssignments(s.Assignments)
}

// ActiveAssignments keeps only the live rows, sorted by module.
func ActiveAssignments(rows []CurrentAssignment) []Assignment {
	active := make([]Assignment, 0, len(rows))
	for _, row := range rows {
		if row.Active {
			active = append(active, Assignment{ModuleID: row.ModuleID, UserID: row.UserID})
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].ModuleID < active[j].ModuleID })
	return active
}

// ProfileSource lists the access profiles the roster is built from.
type ProfileSource interface {
	ListProfiles(ctx context.Context) ([]Profile, error)
}

// SuggestionLookup returns the historical collaborator for a module and
// billing client. found is false when there is no usable hint.
type SuggestionLookup interface {
	SuggestUser(ctx context.Context, moduleID, billingClientID int64) (userID int64, found bool, err error)
}

// AssignmentWriter performs the two write operations the engine emits.
type AssignmentWriter interface {
	CreateAssignment(ctx context.Context, dossierID, moduleID, userID int64) error
	ReplaceAssignment(ctx context.Context, dossierID, moduleID, newUserID int64) error
}

// SnapshotLoader refetches the full assignment state of a dossier.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, dossierID int64) (*Snapshot, error)
}
