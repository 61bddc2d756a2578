package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/travel-agency/internal"
	dossierDatamodel "github.com/frahmantamala/travel-agency/internal/core/datamodel/dossier"
	profileDatamodel "github.com/frahmantamala/travel-agency/internal/core/datamodel/profile"
	userDatamodel "github.com/frahmantamala/travel-agency/internal/core/datamodel/user"
	"github.com/frahmantamala/travel-agency/internal/dossier"
)

// DossierRepository implements dossier.RepositoryAPI using GORM. The db must
// be opened with TranslateError so unique violations surface as
// gorm.ErrDuplicatedKey.
type DossierRepository struct {
	db *gorm.DB
}

func NewDossierRepository(db *gorm.DB) dossier.RepositoryAPI {
	return &DossierRepository{db: db}
}

func (r *DossierRepository) Create(ctx context.Context, d *dossierDatamodel.Dossier) error {
	err := r.db.WithContext(ctx).Create(d).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return internal.ErrDossierReferenceTaken.WithCause(err)
	}
	return err
}

func (r *DossierRepository) GetByID(ctx context.Context, id int64) (*dossierDatamodel.Dossier, error) {
	var d dossierDatamodel.Dossier
	err := r.db.WithContext(ctx).
		Preload("Assignments", func(db *gorm.DB) *gorm.DB {
			return db.Order("module_id ASC, assigned_at ASC, id ASC")
		}).
		Where("id = ?", id).
		First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrDossierNotFound
		}
		return nil, err
	}
	return &d, nil
}

// List returns dossiers newest first, without their assignment history.
func (r *DossierRepository) List(ctx context.Context, limit, offset int) ([]*dossierDatamodel.Dossier, error) {
	var dossiers []*dossierDatamodel.Dossier
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&dossiers).Error
	return dossiers, err
}

func (r *DossierRepository) BillingClientExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, &dossierDatamodel.BillingClient{}, "id = ?", id)
}

func (r *DossierRepository) ModuleExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, &profileDatamodel.Module{}, "id = ?", id)
}

func (r *DossierRepository) ActiveUserExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, &userDatamodel.User{}, "id = ? AND is_active = ?", id, true)
}

// CreateAssignment inserts the first active row of a module. A live row,
// whether seen up front or caught by the partial unique index, is reported
// as ErrAssignmentAlreadyActive.
func (r *DossierRepository) CreateAssignment(ctx context.Context, a *dossierDatamodel.Assignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var live int64
		if err := tx.Model(&dossierDatamodel.Assignment{}).
			Where("dossier_id = ? AND module_id = ? AND is_active = ?", a.DossierID, a.ModuleID, true).
			Count(&live).Error; err != nil {
			return err
		}
		if live > 0 {
			return internal.ErrAssignmentAlreadyActive
		}

		a.IsActive = true
		if err := tx.Create(a).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return internal.ErrAssignmentAlreadyActive.WithCause(err)
			}
			return err
		}
		return nil
	})
}

func (r *DossierRepository) ReplaceAssignment(ctx context.Context, dossierID, moduleID, newUserID int64, assignedBy *int64, at time.Time) (*dossierDatamodel.Assignment, int64, error) {
	var (
		next     *dossierDatamodel.Assignment
		previous int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current dossierDatamodel.Assignment
		err := tx.Where("dossier_id = ? AND module_id = ? AND is_active = ?", dossierID, moduleID, true).
			First(&current).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.ErrAssignmentNotActive
			}
			return err
		}

		// The conditional update is the guard against a concurrent writer
		// that deactivated the same row first.
		res := tx.Model(&dossierDatamodel.Assignment{}).
			Where("id = ? AND is_active = ?", current.ID, true).
			Updates(map[string]interface{}{
				"is_active":      false,
				"deactivated_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrAssignmentNotActive
		}

		next = &dossierDatamodel.Assignment{
			DossierID:  dossierID,
			ModuleID:   moduleID,
			UserID:     newUserID,
			IsActive:   true,
			AssignedBy: assignedBy,
			AssignedAt: at,
		}
		if err := tx.Create(next).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return internal.ErrAssignmentAlreadyActive.WithCause(err)
			}
			return err
		}
		previous = current.UserID
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return next, previous, nil
}

func (r *DossierRepository) exists(ctx context.Context, model interface{}, query string, args ...interface{}) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(model).Where(query, args...).Limit(1).Count(&n).Error
	return n > 0, err
}
