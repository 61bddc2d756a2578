package user

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/travel-agency/internal"
	"github.com/frahmantamala/travel-agency/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/travel-agency/internal/core/datamodel/user"
)

type RepositoryAPI interface {
	// Create inserts the user and grants permissions by name, creating
	// unknown permissions on the way.
	Create(ctx context.Context, u *userDatamodel.User, permissions []string, grantedBy *int64) error
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	ListActive(ctx context.Context) ([]*userDatamodel.User, error)
	GetPermissions(ctx context.Context, userID int64) ([]string, error)
}

type Service struct {
	repo       RepositoryAPI
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, bcryptCost: bcryptCost, logger: logger}
}

func (s *Service) CreateUser(ctx context.Context, dto CreateUserDTO) (*User, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	model := &userDatamodel.User{
		Email:        dto.Email,
		Name:         dto.Name,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, model, dto.Permissions, internal.ActorIDFromContext(ctx)); err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		s.logger.Error("failed to create user", "error", err, "email", dto.Email)
		return nil, internal.NewInternalError("failed to create user", err)
	}

	s.logger.Info("user created", "user_id", model.ID, "permissions", dto.Permissions)
	u := FromDataModel(model)
	u.Permissions = append(u.Permissions, dto.Permissions...)
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, userID int64) (*User, error) {
	model, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		return nil, internal.NewInternalError("failed to get user", err)
	}

	perms, err := s.repo.GetPermissions(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to get user permissions", err)
	}

	u := FromDataModel(model)
	u.Permissions = perms
	return u, nil
}

// ListStaff returns the active users, the pool collaborators are drawn from.
func (s *Service) ListStaff(ctx context.Context) ([]*User, error) {
	models, err := s.repo.ListActive(ctx)
	if err != nil {
		s.logger.Error("failed to list staff", "error", err)
		return nil, internal.NewInternalError("failed to list users", err)
	}
	return FromDataModelSlice(models), nil
}
