package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/travel-agency/internal"
	userDatamodel "github.com/frahmantamala/travel-agency/internal/core/datamodel/user"
	"github.com/frahmantamala/travel-agency/internal/user"
)

var ErrEmailTaken = internal.NewConflictError("Email already registered", "EMAIL_TAKEN")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User, permissions []string, grantedBy *int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken.WithCause(err)
			}
			return err
		}

		for _, name := range permissions {
			perm := userDatamodel.Permission{Name: name}
			if err := tx.Where(userDatamodel.Permission{Name: name}).FirstOrCreate(&perm).Error; err != nil {
				return err
			}
			grant := userDatamodel.UserPermission{UserID: u.ID, PermissionID: perm.ID, GrantedBy: grantedBy}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&grant).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) ListActive(ctx context.Context) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC, id ASC").
		Find(&users).Error
	return users, err
}

func (r *UserRepository) GetPermissions(ctx context.Context, userID int64) ([]string, error) {
	permissions := []string{}
	err := r.db.WithContext(ctx).
		Model(&userDatamodel.Permission{}).
		Joins("JOIN user_permissions up ON up.permission_id = permissions.id").
		Where("up.user_id = ?", userID).
		Order("permissions.name ASC").
		Pluck("permissions.name", &permissions).Error
	return permissions, err
}
