package dossier

type CreateDossierDTO struct {
	Reference       string `json:"reference" validate:"required,min=3,max=64"`
	BillingClientID int64  `json:"billing_client_id" validate:"required,gt=0"`
}

type CreateAssignmentDTO struct {
	ModuleID int64 `json:"module_id" validate:"required,gt=0"`
	UserID   int64 `json:"user_id" validate:"required,gt=0"`
}

type ReplaceAssignmentDTO struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

type DossiersResponse struct {
	Dossiers []*Dossier `json:"dossiers"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

// SuggestionResponse omits suggested_user_id when there is no hint.
type SuggestionResponse struct {
	ModuleID        int64  `json:"module_id"`
	BillingClientID int64  `json:"billing_client_id"`
	SuggestedUserID *int64 `json:"suggested_user_id,omitempty"`
}
