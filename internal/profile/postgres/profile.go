package postgres

import (
	"context"

	"gorm.io/gorm"

	profileDatamodel "github.com/frahmantamala/travel-agency/internal/core/datamodel/profile"
	userDatamodel "github.com/frahmantamala/travel-agency/internal/core/datamodel/user"
	"github.com/frahmantamala/travel-agency/internal/profile"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) profile.RepositoryAPI {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) ListProfiles(ctx context.Context) ([]*profileDatamodel.Profile, error) {
	var profiles []*profileDatamodel.Profile
	err := r.db.WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("module_id ASC")
		}).
		Preload("Modules.Module").
		Preload("Users", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, user_id ASC")
		}).
		Order("id ASC").
		Find(&profiles).Error
	return profiles, err
}

func (r *ProfileRepository) ListModules(ctx context.Context) ([]*profileDatamodel.Module, error) {
	var modules []*profileDatamodel.Module
	err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&modules).Error
	return modules, err
}

func (r *ProfileRepository) ActiveUserNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	var users []userDatamodel.User
	err := r.db.WithContext(ctx).
		Select("id", "name").
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}
