package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeColabsReconciled = "dossier.colabs.reconciled"
	EventTypeAssignmentChange = "dossier.assignment.changed"
)

// ColabsReconciledEvent is published once per executed batch, whatever its
// outcome. Failed > 0 means the batch was partially applied or not at all.
type ColabsReconciledEvent struct {
	BaseEvent
	BatchID   string `json:"batch_id"`
	DossierID int64  `json:"dossier_id"`
	Creates   int    `json:"creates"`
	Replaces  int    `json:"replaces"`
	Failed    int    `json:"failed"`
}

func NewColabsReconciledEvent(batchID string, dossierID int64, creates, replaces, failed int) *ColabsReconciledEvent {
	return &ColabsReconciledEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeColabsReconciled,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"batch_id":   batchID,
				"dossier_id": dossierID,
				"creates":    creates,
				"replaces":   replaces,
				"failed":     failed,
			},
		},
		BatchID:   batchID,
		DossierID: dossierID,
		Creates:   creates,
		Replaces:  replaces,
		Failed:    failed,
	}
}

// AssignmentChangedEvent is published by the dossier API when a module's
// responsible user changes. PreviousUserID is zero for a first assignment.
type AssignmentChangedEvent struct {
	BaseEvent
	DossierID      int64 `json:"dossier_id"`
	ModuleID       int64 `json:"module_id"`
	UserID         int64 `json:"user_id"`
	PreviousUserID int64 `json:"previous_user_id,omitempty"`
}

func NewAssignmentChangedEvent(dossierID, moduleID, userID, previousUserID int64) *AssignmentChangedEvent {
	return &AssignmentChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeAssignmentChange,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"dossier_id":       dossierID,
				"module_id":        moduleID,
				"user_id":          userID,
				"previous_user_id": previousUserID,
			},
		},
		DossierID:      dossierID,
		ModuleID:       moduleID,
		UserID:         userID,
		PreviousUserID: previousUserID,
	}
}
