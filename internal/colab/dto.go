package colab

// IntentDTO is one operator action. Active defaults to true; user_id is
// optional on activation.
type IntentDTO struct {
	ModuleID int64  `json:"module_id" validate:"required,gt=0"`
	UserID   *int64 `json:"user_id,omitempty" validate:"omitempty,gt=0"`
	Active   *bool  `json:"active,omitempty"`
}

type ColabRequestDTO struct {
	BillingClientID *int64      `json:"billing_client_id,omitempty" validate:"omitempty,gt=0"`
	Intents         []IntentDTO `json:"intents" validate:"dive"`
}

func (dto ColabRequestDTO) ToIntents() []Intent {
	intents := make([]Intent, len(dto.Intents))
	for i, in := range dto.Intents {
		active := true
		if in.Active != nil {
			active = *in.Active
		}
		intents[i] = Intent{ModuleID: in.ModuleID, UserID: in.UserID, Active: active}
	}
	return intents
}

type SessionResponse struct {
	DossierID       int64           `json:"dossier_id"`
	BillingClientID int64           `json:"billing_client_id"`
	Modules         []ModuleDefault `json:"modules"`
	Selection       []Assignment    `json:"selection"`
	Assignments     []Assignment    `json:"assignments"`
}

type PlanResponse struct {
	DossierID int64        `json:"dossier_id"`
	Selection []Assignment `json:"selection"`
	Ops       []Op         `json:"ops"`
}

type ApplyResponse struct {
	DossierID int64        `json:"dossier_id"`
	Ops       []Op         `json:"ops"`
	Result    *BatchResult `json:"result"`
}

// ApplyFailureResponse carries the error envelope plus the batch outcome so
// the operator sees what was committed before retrying.
type ApplyFailureResponse struct {
	Error  interface{}  `json:"error"`
	Ops    []Op         `json:"ops"`
	Result *BatchResult `json:"result,omitempty"`
}

func NewSessionResponse(ss *Session) SessionResponse {
	return SessionResponse{
		DossierID:       ss.DossierID,
		BillingClientID: ss.Snapshot.BillingClientID,
		Modules:         ss.Defaults(),
		Selection:       ss.Selector.Snapshot(),
		Assignments:     ss.Snapshot.Active(),
	}
}
