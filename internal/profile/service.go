package profile

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/travel-agency/internal"
	"github.com/frahmantamala/travel-agency/internal/colab"
	profileDatamodel "github.com/frahmantamala/travel-agency/internal/core/datamodel/profile"
)

type RepositoryAPI interface {
	// ListProfiles returns every profile in id order with its modules and
	// its members in membership order.
	ListProfiles(ctx context.Context) ([]*profileDatamodel.Profile, error)
	ListModules(ctx context.Context) ([]*profileDatamodel.Module, error)
	// ActiveUserNames maps the active users among ids to their names.
	ActiveUserNames(ctx context.Context, ids []int64) (map[int64]string, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

var _ colab.ProfileSource = (*Service)(nil)

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ListProfiles projects stored profiles onto the colab model. Inactive users
// are left out so they never become eligible collaborators.
func (s *Service) ListProfiles(ctx context.Context) ([]colab.Profile, error) {
	models, err := s.repo.ListProfiles(ctx)
	if err != nil {
		s.logger.Error("failed to list profiles", "error", err)
		return nil, internal.NewInternalError("failed to list profiles", err)
	}

	var ids []int64
	seen := make(map[int64]bool)
	for _, p := range models {
		for _, u := range p.Users {
			if !seen[u.UserID] {
				seen[u.UserID] = true
				ids = append(ids, u.UserID)
			}
		}
	}

	names := map[int64]string{}
	if len(ids) > 0 {
		names, err = s.repo.ActiveUserNames(ctx, ids)
		if err != nil {
			s.logger.Error("failed to resolve profile members", "error", err)
			return nil, internal.NewInternalError("failed to list profiles", err)
		}
	}

	profiles := make([]colab.Profile, 0, len(models))
	for _, p := range models {
		profiles = append(profiles, toColabProfile(p, names))
	}
	return profiles, nil
}

func (s *Service) ListModules(ctx context.Context) ([]colab.Module, error) {
	models, err := s.repo.ListModules(ctx)
	if err != nil {
		s.logger.Error("failed to list modules", "error", err)
		return nil, internal.NewInternalError("failed to list modules", err)
	}
	modules := make([]colab.Module, len(models))
	for i, m := range models {
		modules[i] = colab.Module{ID: m.ID, Name: m.Name}
	}
	return modules, nil
}

func toColabProfile(p *profileDatamodel.Profile, names map[int64]string) colab.Profile {
	out := colab.Profile{
		ID:      p.ID,
		Name:    p.Name,
		Modules: make([]colab.Module, 0, len(p.Modules)),
		Users:   make([]colab.User, 0, len(p.Users)),
	}
	for _, m := range p.Modules {
		out.Modules = append(out.Modules, colab.Module{ID: m.Module.ID, Name: m.Module.Name})
	}
	for _, u := range p.Users {
		name, ok := names[u.UserID]
		if !ok {
			continue
		}
		out.Users = append(out.Users, colab.User{ID: u.UserID, Name: name})
	}
	return out
}
