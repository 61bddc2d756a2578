// Package seed loads a small travel agency data set for development.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/travel-agency/internal/auth"
	dossierDatamodel "github.com/frahmantamala/travel-agency/internal/core/datamodel/dossier"
	profileDatamodel "github.com/frahmantamala/travel-agency/internal/core/datamodel/profile"
	userDatamodel "github.com/frahmantamala/travel-agency/internal/core/datamodel/user"
	"github.com/frahmantamala/travel-agency/internal/user"
	userPostgres "github.com/frahmantamala/travel-agency/internal/user/postgres"
)

// DefaultPassword is shared by every seeded account.
const DefaultPassword = "password"

type staffSeed struct {
	Email       string
	Name        string
	Permissions []string
}

type profileSeed struct {
	Name    string
	Modules []string
	Users   []string
}

type dossierSeed struct {
	Reference   string
	Client      string
	Assignments map[string]string
}

var (
	permissions = []userDatamodel.Permission{
		{Name: auth.PermissionAdmin, Description: "full administrator"},
		{Name: auth.PermissionViewDossiers, Description: "Can view dossiers and collaborators"},
		{Name: auth.PermissionManageColabs, Description: "Can assign dossier collaborators"},
	}

	staff = []staffSeed{
		{Email: "padil@mail.com", Name: "Padil Admin", Permissions: []string{auth.PermissionAdmin}},
		{Email: "fadhil@mail.com", Name: "Fadhil", Permissions: []string{auth.PermissionManageColabs}},
		{Email: "nadia@mail.com", Name: "Nadia", Permissions: []string{auth.PermissionManageColabs}},
		{Email: "rizky@mail.com", Name: "Rizky", Permissions: []string{auth.PermissionViewDossiers}},
		{Email: "sari@mail.com", Name: "Sari", Permissions: []string{auth.PermissionViewDossiers}},
	}

	modules = []profileDatamodel.Module{
		{Code: "TICKETING", Name: "Ticketing"},
		{Code: "HOTEL", Name: "Hotel"},
		{Code: "TRANSFER", Name: "Transfer"},
		{Code: "VISA", Name: "Visa"},
		{Code: "INSURANCE", Name: "Insurance"},
	}

	profiles = []profileSeed{
		{Name: "Air desk", Modules: []string{"TICKETING", "TRANSFER"}, Users: []string{"fadhil@mail.com", "nadia@mail.com"}},
		{Name: "Land desk", Modules: []string{"HOTEL", "TRANSFER"}, Users: []string{"nadia@mail.com", "sari@mail.com"}},
		{Name: "Formalities", Modules: []string{"VISA", "INSURANCE"}, Users: []string{"rizky@mail.com", "sari@mail.com"}},
	}

	billingClients = []string{"Garuda Corporate", "Nusantara Events"}

	dossiers = []dossierSeed{
		{Reference: "DOS-2026-0001", Client: "Garuda Corporate", Assignments: map[string]string{
			"TICKETING": "nadia@mail.com",
			"HOTEL":     "sari@mail.com",
		}},
		{Reference: "DOS-2026-0002", Client: "Garuda Corporate"},
		{Reference: "DOS-2026-0003", Client: "Nusantara Events", Assignments: map[string]string{
			"VISA": "rizky@mail.com",
		}},
	}
)

// Summary counts what a run inserted; rows that already existed are skipped.
type Summary struct {
	Users          int
	Modules        int
	Profiles       int
	BillingClients int
	Dossiers       int
	Assignments    int
}

type Seeder struct {
	db     *gorm.DB
	users  *user.Service
	logger *slog.Logger
}

func New(db *gorm.DB, bcryptCost int, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		db:     db,
		users:  user.NewService(userPostgres.NewUserRepository(db), bcryptCost, logger),
		logger: logger,
	}
}

// Clear removes every row the seeder knows about, children first.
func (s *Seeder) Clear(ctx context.Context) error {
	tables := []interface{}{
		&dossierDatamodel.Assignment{},
		&dossierDatamodel.Dossier{},
		&dossierDatamodel.BillingClient{},
		&profileDatamodel.ProfileUser{},
		&profileDatamodel.ProfileModule{},
		&profileDatamodel.Profile{},
		&profileDatamodel.Module{},
		&userDatamodel.UserPermission{},
		&userDatamodel.User{},
		&userDatamodel.Permission{},
	}
	db := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range tables {
		if err := db.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	s.logger.Info("seed data cleared")
	return nil
}

// Run inserts the data set. It can be run repeatedly.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	var sum Summary

	for _, p := range permissions {
		p := p
		if err := s.db.WithContext(ctx).Where("name = ?", p.Name).FirstOrCreate(&p).Error; err != nil {
			return nil, fmt.Errorf("seed permission %s: %w", p.Name, err)
		}
	}

	userIDs, err := s.seedStaff(ctx, &sum)
	if err != nil {
		return nil, err
	}

	moduleIDs := make(map[string]int64, len(modules))
	for _, m := range modules {
		m := m
		res := s.db.WithContext(ctx).Where("code = ?", m.Code).FirstOrCreate(&m)
		if res.Error != nil {
			return nil, fmt.Errorf("seed module %s: %w", m.Code, res.Error)
		}
		sum.Modules += int(res.RowsAffected)
		moduleIDs[m.Code] = m.ID
	}

	if err := s.seedProfiles(ctx, &sum, moduleIDs, userIDs); err != nil {
		return nil, err
	}

	clientIDs := make(map[string]int64, len(billingClients))
	for _, name := range billingClients {
		c := dossierDatamodel.BillingClient{Name: name}
		res := s.db.WithContext(ctx).Where("name = ?", name).FirstOrCreate(&c)
		if res.Error != nil {
			return nil, fmt.Errorf("seed billing client %s: %w", name, res.Error)
		}
		sum.BillingClients += int(res.RowsAffected)
		clientIDs[name] = c.ID
	}

	if err := s.seedDossiers(ctx, &sum, clientIDs, moduleIDs, userIDs); err != nil {
		return nil, err
	}

	s.logger.Info("seed completed",
		"users", sum.Users,
		"modules", sum.Modules,
		"profiles", sum.Profiles,
		"billing_clients", sum.BillingClients,
		"dossiers", sum.Dossiers,
		"assignments", sum.Assignments)
	return &sum, nil
}

func (s *Seeder) seedStaff(ctx context.Context, sum *Summary) (map[string]int64, error) {
	ids := make(map[string]int64, len(staff))
	for _, st := range staff {
		created, err := s.users.CreateUser(ctx, user.CreateUserDTO{
			Email:       st.Email,
			Name:        st.Name,
			Password:    DefaultPassword,
			Permissions: st.Permissions,
		})
		switch {
		case err == nil:
			sum.Users++
			ids[st.Email] = created.ID
			continue
		case errors.Is(err, userPostgres.ErrEmailTaken):
			s.logger.Debug("user already seeded", "email", st.Email)
		default:
			return nil, fmt.Errorf("seed user %s: %w", st.Email, err)
		}

		var existing userDatamodel.User
		if err := s.db.WithContext(ctx).Where("email = ?", st.Email).First(&existing).Error; err != nil {
			return nil, fmt.Errorf("lookup user %s: %w", st.Email, err)
		}
		ids[st.Email] = existing.ID
	}
	return ids, nil
}

func (s *Seeder) seedProfiles(ctx context.Context, sum *Summary, moduleIDs, userIDs map[string]int64) error {
	for _, ps := range profiles {
		p := profileDatamodel.Profile{Name: ps.Name}
		res := s.db.WithContext(ctx).Where("name = ?", ps.Name).FirstOrCreate(&p)
		if res.Error != nil {
			return fmt.Errorf("seed profile %s: %w", ps.Name, res.Error)
		}
		sum.Profiles += int(res.RowsAffected)

		for _, code := range ps.Modules {
			pm := profileDatamodel.ProfileModule{ProfileID: p.ID, ModuleID: moduleIDs[code]}
			if err := s.db.WithContext(ctx).
				Where("profile_id = ? AND module_id = ?", pm.ProfileID, pm.ModuleID).
				FirstOrCreate(&pm).Error; err != nil {
				return fmt.Errorf("seed profile %s module %s: %w", ps.Name, code, err)
			}
		}
		for pos, email := range ps.Users {
			pu := profileDatamodel.ProfileUser{ProfileID: p.ID, UserID: userIDs[email], Position: pos}
			if err := s.db.WithContext(ctx).
				Where("profile_id = ? AND user_id = ?", pu.ProfileID, pu.UserID).
				FirstOrCreate(&pu).Error; err != nil {
				return fmt.Errorf("seed profile %s user %s: %w", ps.Name, email, err)
			}
		}
	}
	return nil
}

// seedDossiers only writes assignments for dossiers created by this run so a
// rerun never stacks history rows.
func (s *Seeder) seedDossiers(ctx context.Context, sum *Summary, clientIDs, moduleIDs, userIDs map[string]int64) error {
	at := time.Now().Add(-24 * time.Hour)
	for _, ds := range dossiers {
		d := dossierDatamodel.Dossier{Reference: ds.Reference, BillingClientID: clientIDs[ds.Client]}
		res := s.db.WithContext(ctx).Where("reference = ?", ds.Reference).FirstOrCreate(&d)
		if res.Error != nil {
			return fmt.Errorf("seed dossier %s: %w", ds.Reference, res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}
		sum.Dossiers++

		for code, email := range ds.Assignments {
			a := dossierDatamodel.Assignment{
				DossierID:  d.ID,
				ModuleID:   moduleIDs[code],
				UserID:     userIDs[email],
				IsActive:   true,
				AssignedAt: at,
			}
			if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
				return fmt.Errorf("seed assignment %s/%s: %w", ds.Reference, code, err)
			}
			sum.Assignments++
		}
	}
	return nil
}
