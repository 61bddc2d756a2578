package dossier

import (
	"context"

	"github.com/frahmantamala/travel-agency/internal/colab"
)

// ColabAdapter exposes the dossier service to the colab engine when both run
// in the same process.
type ColabAdapter struct {
	service *Service
}

var (
	_ colab.SuggestionLookup = (*ColabAdapter)(nil)
	_ colab.AssignmentWriter = (*ColabAdapter)(nil)
	_ colab.SnapshotLoader   = (*ColabAdapter)(nil)
)

func NewColabAdapter(service *Service) *ColabAdapter {
	return &ColabAdapter{service: service}
}

func (a *ColabAdapter) SuggestUser(ctx context.Context, moduleID, billingClientID int64) (int64, bool, error) {
	return a.service.SuggestCollaborator(ctx, moduleID, billingClientID)
}

func (a *ColabAdapter) CreateAssignment(ctx context.Context, dossierID, moduleID, userID int64) error {
	_, err := a.service.AssignCollaborator(ctx, dossierID, CreateAssignmentDTO{ModuleID: moduleID, UserID: userID})
	return err
}

func (a *ColabAdapter) ReplaceAssignment(ctx context.Context, dossierID, moduleID, newUserID int64) error {
	_, err := a.service.ReplaceCollaborator(ctx, dossierID, moduleID, ReplaceAssignmentDTO{UserID: newUserID})
	return err
}

func (a *ColabAdapter) LoadSnapshot(ctx context.Context, dossierID int64) (*colab.Snapshot, error) {
	d, err := a.service.GetDossier(ctx, dossierID)
	if err != nil {
		return nil, err
	}
	return d.ToSnapshot(), nil
}
