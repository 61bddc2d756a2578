package colab

import (
	"fmt"
	"sort"
)

type OpKind string

const (
	OpCreate  OpKind = "create"
	OpReplace OpKind = "replace"
)

// Op is one write needed to converge a dossier to the desired selection.
// OldUserID is only set for OpReplace.
type Op struct {
	Kind      OpKind `json:"kind"`
	ModuleID  int64  `json:"module_id"`
	OldUserID int64  `json:"old_user_id,omitempty"`
	NewUserID int64  `json:"new_user_id"`
}

func (o Op) String() string {
	if o.Kind == OpReplace {
		return fmt.Sprintf("REPLACE(module=%d, %d->%d)", o.ModuleID, o.OldUserID, o.NewUserID)
	}
	return fmt.Sprintf("CREATE(module=%d, user=%d)", o.ModuleID, o.NewUserID)
}

func CreateOp(moduleID, userID int64) Op {
	return Op{Kind: OpCreate, ModuleID: moduleID, NewUserID: userID}
}

func ReplaceOp(moduleID, oldUserID, newUserID int64) Op {
	return Op{Kind: OpReplace, ModuleID: moduleID, OldUserID: oldUserID, NewUserID: newUserID}
}

// Reconcile returns the writes that bring current to desired. current must
// hold active assignments only.
//
// A module in desired yields CREATE when it has no active assignment and
// REPLACE when the active user differs; converged modules yield nothing.
// Modules present only in current are left alone: no removal is ever
// emitted. The result is ordered by module ID whatever the input order; when
// an input repeats a module its first occurrence wins.
func Reconcile(desired, current []Assignment) []Op {
	active := make(map[int64]int64, len(current))
	for _, c := range current {
		if _, dup := active[c.ModuleID]; !dup {
			active[c.ModuleID] = c.UserID
		}
	}

	seen := make(map[int64]struct{}, len(desired))
	ops := make([]Op, 0, len(desired))
	for _, d := range desired {
		if _, dup := seen[d.ModuleID]; dup {
			continue
		}
		seen[d.ModuleID] = struct{}{}

		currentUser, ok := active[d.ModuleID]
		switch {
		case !ok:
			ops = append(ops, CreateOp(d.ModuleID, d.UserID))
		case currentUser != d.UserID:
			ops = append(ops, ReplaceOp(d.ModuleID, currentUser, d.UserID))
		}
	}

	sort.Slice(ops, func(i, j int) bool { return ops[i].ModuleID < ops[j].ModuleID })
	return ops
}
