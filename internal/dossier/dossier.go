package dossier

import (
	"time"

	"github.com/frahmantamala/travel-agency/internal/colab"
	dossierDatamodel "github.com/frahmantamala/travel-agency/internal/core/datamodel/dossier"
)

type Dossier struct {
	ID              int64        `json:"id"`
	Reference       string       `json:"reference"`
	BillingClientID int64        `json:"billing_client_id"`
	CreatedBy       *int64       `json:"created_by,omitempty"`
	Assignments     []Assignment `json:"assignments"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

type Assignment struct {
	ID            int64      `json:"id"`
	ModuleID      int64      `json:"module_id"`
	UserID        int64      `json:"user_id"`
	IsActive      bool       `json:"is_active"`
	AssignedBy    *int64     `json:"assigned_by,omitempty"`
	AssignedAt    time.Time  `json:"assigned_at"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

// ActiveAssignment returns the live assignment of a module, if any.
func (d *Dossier) ActiveAssignment(moduleID int64) (Assignment, bool) {
	for _, a := range d.Assignments {
		if a.ModuleID == moduleID && a.IsActive {
			return a, true
		}
	}
	return Assignment{}, false
}

// ToSnapshot projects the dossier onto the shape the colab engine reads.
func (d *Dossier) ToSnapshot() *colab.Snapshot {
	rows := make([]colab.CurrentAssignment, len(d.Assignments))
	for i, a := range d.Assignments {
		rows[i] = colab.CurrentAssignment{ModuleID: a.ModuleID, UserID: a.UserID, Active: a.IsActive}
	}
	return &colab.Snapshot{
		DossierID:       d.ID,
		BillingClientID: d.BillingClientID,
		Assignments:     rows,
	}
}

func NewDossier(dto CreateDossierDTO, createdBy *int64) *Dossier {
	return &Dossier{
		Reference:       dto.Reference,
		BillingClientID: dto.BillingClientID,
		CreatedBy:       createdBy,
	}
}

func ToDataModel(d *Dossier) *dossierDatamodel.Dossier {
	return &dossierDatamodel.Dossier{
		ID:              d.ID,
		Reference:       d.Reference,
		BillingClientID: d.BillingClientID,
		CreatedBy:       d.CreatedBy,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func FromDataModel(d *dossierDatamodel.Dossier) *Dossier {
	assignments := make([]Assignment, len(d.Assignments))
	for i := range d.Assignments {
		assignments[i] = AssignmentFromDataModel(&d.Assignments[i])
	}
	return &Dossier{
		ID:              d.ID,
		Reference:       d.Reference,
		BillingClientID: d.BillingClientID,
		CreatedBy:       d.CreatedBy,
		Assignments:     assignments,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func FromDataModelSlice(dossiers []*dossierDatamodel.Dossier) []*Dossier {
	result := make([]*Dossier, len(dossiers))
	for i, d := range dossiers {
		result[i] = FromDataModel(d)
	}
	return result
}

func AssignmentFromDataModel(a *dossierDatamodel.Assignment) Assignment {
	return Assignment{
		ID:            a.ID,
		ModuleID:      a.ModuleID,
		UserID:        a.UserID,
		IsActive:      a.IsActive,
		AssignedBy:    a.AssignedBy,
		AssignedAt:    a.AssignedAt,
		DeactivatedAt: a.DeactivatedAt,
	}
}
