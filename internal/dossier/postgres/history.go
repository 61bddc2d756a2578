package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/travel-agency/internal/dossier"
)

// latestCollaboratorQuery considers active and historical rows alike; only
// the user must still be active.
const latestCollaboratorQuery = `
SELECT a.user_id
FROM dossier_assignments a
JOIN dossiers d ON d.id = a.dossier_id
JOIN users u ON u.id = a.user_id
WHERE a.module_id = ?
  AND d.billing_client_id = ?
  AND u.is_active = ?
ORDER BY a.assigned_at DESC, a.id DESC
LIMIT 1`

// HistoryRepository is the sqlx read model over the assignment history.
type HistoryRepository struct {
	db *sqlx.DB
}

func NewHistoryRepository(db *sqlx.DB) dossier.HistoryAPI {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) LatestCollaborator(ctx context.Context, moduleID, billingClientID int64) (int64, bool, error) {
	var userID int64
	err := r.db.GetContext(ctx, &userID, r.db.Rebind(latestCollaboratorQuery), moduleID, billingClientID, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return userID, true, nil
}
