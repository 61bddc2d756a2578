package dossier

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/travel-agency/internal"
	dossierDatamodel "github.com/frahmantamala/travel-agency/internal/core/datamodel/dossier"
	"github.com/frahmantamala/travel-agency/internal/core/events"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// RepositoryAPI is the write model of dossiers and their assignment history.
type RepositoryAPI interface {
	Create(ctx context.Context, d *dossierDatamodel.Dossier) error
	GetByID(ctx context.Context, id int64) (*dossierDatamodel.Dossier, error)
	List(ctx context.Context, limit, offset int) ([]*dossierDatamodel.Dossier, error)
	BillingClientExists(ctx context.Context, id int64) (bool, error)
	ModuleExists(ctx context.Context, id int64) (bool, error)
	ActiveUserExists(ctx context.Context, id int64) (bool, error)
	CreateAssignment(ctx context.Context, a *dossierDatamodel.Assignment) error
	// ReplaceAssignment deactivates the live row of (dossierID, moduleID) and
	// inserts a new active one for newUserID in the same transaction. It
	// returns the deactivated row's user.
	ReplaceAssignment(ctx context.Context, dossierID, moduleID, newUserID int64, assignedBy *int64, at time.Time) (*dossierDatamodel.Assignment, int64, error)
}

// HistoryAPI answers "who handled this module for this client last".
type HistoryAPI interface {
	LatestCollaborator(ctx context.Context, moduleID, billingClientID int64) (int64, bool, error)
}

type Service struct {
	repo      RepositoryAPI
	history   HistoryAPI
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, history HistoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		history:   history,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) CreateDossier(ctx context.Context, dto CreateDossierDTO) (*Dossier, error) {
	exists, err := s.repo.BillingClientExists(ctx, dto.BillingClientID)
	if err != nil {
		s.logger.Error("failed to check billing client", "error", err, "billing_client_id", dto.BillingClientID)
		return nil, internal.NewInternalError("failed to create dossier", err)
	}
	if !exists {
		return nil, internal.NewValidationFieldError("billing_client_id", "billing client does not exist", internal.ErrCodeInvalidReference)
	}

	d := NewDossier(dto, internal.ActorIDFromContext(ctx))
	model := ToDataModel(d)
	if err := s.repo.Create(ctx, model); err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		s.logger.Error("failed to create dossier", "error", err, "reference", dto.Reference)
		return nil, internal.NewInternalError("failed to create dossier", err)
	}

	s.logger.Info("dossier created", "dossier_id", model.ID, "reference", model.Reference)
	return FromDataModel(model), nil
}

func (s *Service) GetDossier(ctx context.Context, id int64) (*Dossier, error) {
	model, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if _, ok := internal.IsAppError(err); !ok {
			s.logger.Error("failed to get dossier", "error", err, "dossier_id", id)
			return nil, internal.NewInternalError("failed to get dossier", err)
		}
		return nil, err
	}
	return FromDataModel(model), nil
}

func (s *Service) ListDossiers(ctx context.Context, limit, offset int) ([]*Dossier, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	models, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list dossiers", "error", err)
		return nil, internal.NewInternalError("failed to list dossiers", err)
	}
	return FromDataModelSlice(models), nil
}

// AssignCollaborator creates the first active assignment of a module.
func (s *Service) AssignCollaborator(ctx context.Context, dossierID int64, dto CreateAssignmentDTO) (*Assignment, error) {
	if err := s.checkAssignable(ctx, dossierID, dto.ModuleID, dto.UserID); err != nil {
		return nil, err
	}

	model := &dossierDatamodel.Assignment{
		DossierID:  dossierID,
		ModuleID:   dto.ModuleID,
		UserID:     dto.UserID,
		IsActive:   true,
		AssignedBy: internal.ActorIDFromContext(ctx),
		AssignedAt: s.now(),
	}
	if err := s.repo.CreateAssignment(ctx, model); err != nil {
		if _, ok := internal.IsAppError(err); ok {
			s.logger.Warn("assignment rejected", "error", err, "dossier_id", dossierID, "module_id", dto.ModuleID)
			return nil, err
		}
		s.logger.Error("failed to create assignment", "error", err, "dossier_id", dossierID, "module_id", dto.ModuleID)
		return nil, internal.NewInternalError("failed to create assignment", err)
	}

	s.logger.Info("collaborator assigned",
		"dossier_id", dossierID,
		"module_id", dto.ModuleID,
		"user_id", dto.UserID)
	s.publish(ctx, events.NewAssignmentChangedEvent(dossierID, dto.ModuleID, dto.UserID, 0))

	a := AssignmentFromDataModel(model)
	return &a, nil
}

// ReplaceCollaborator hands an active module over to another user. The
// previous row stays in the history, deactivated.
func (s *Service) ReplaceCollaborator(ctx context.Context, dossierID, moduleID int64, dto ReplaceAssignmentDTO) (*Assignment, error) {
	if err := s.checkAssignable(ctx, dossierID, moduleID, dto.UserID); err != nil {
		return nil, err
	}

	model, previous, err := s.repo.ReplaceAssignment(ctx, dossierID, moduleID, dto.UserID, internal.ActorIDFromContext(ctx), s.now())
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			s.logger.Warn("replacement rejected", "error", err, "dossier_id", dossierID, "module_id", moduleID)
			return nil, err
		}
		s.logger.Error("failed to replace assignment", "error", err, "dossier_id", dossierID, "module_id", moduleID)
		return nil, internal.NewInternalError("failed to replace assignment", err)
	}

	s.logger.Info("collaborator replaced",
		"dossier_id", dossierID,
		"module_id", moduleID,
		"user_id", dto.UserID,
		"previous_user_id", previous)
	s.publish(ctx, events.NewAssignmentChangedEvent(dossierID, moduleID, dto.UserID, previous))

	a := AssignmentFromDataModel(model)
	return &a, nil
}

// SuggestCollaborator returns the user who most recently held moduleID on any
// dossier of billingClientID, restricted to active users.
func (s *Service) SuggestCollaborator(ctx context.Context, moduleID, billingClientID int64) (int64, bool, error) {
	userID, ok, err := s.history.LatestCollaborator(ctx, moduleID, billingClientID)
	if err != nil {
		s.logger.Error("failed to look up collaborator history",
			"error", err,
			"module_id", moduleID,
			"billing_client_id", billingClientID)
		return 0, false, internal.NewInternalError("failed to look up suggestion", err)
	}
	return userID, ok, nil
}

func (s *Service) checkAssignable(ctx context.Context, dossierID, moduleID, userID int64) error {
	if _, err := s.repo.GetByID(ctx, dossierID); err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return err
		}
		return internal.NewInternalError("failed to load dossier", err)
	}

	moduleOK, err := s.repo.ModuleExists(ctx, moduleID)
	if err != nil {
		return internal.NewInternalError("failed to check module", err)
	}
	if !moduleOK {
		return internal.ErrModuleNotFound
	}

	userOK, err := s.repo.ActiveUserExists(ctx, userID)
	if err != nil {
		return internal.NewInternalError("failed to check user", err)
	}
	if !userOK {
		return internal.ErrUserNotFound
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
