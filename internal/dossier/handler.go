package dossier

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/travel-agency/internal/transport"
)

type ServiceAPI interface {
	CreateDossier(ctx context.Context, dto CreateDossierDTO) (*Dossier, error)
	GetDossier(ctx context.Context, id int64) (*Dossier, error)
	ListDossiers(ctx context.Context, limit, offset int) ([]*Dossier, error)
	AssignCollaborator(ctx context.Context, dossierID int64, dto CreateAssignmentDTO) (*Assignment, error)
	ReplaceCollaborator(ctx context.Context, dossierID, moduleID int64, dto ReplaceAssignmentDTO) (*Assignment, error)
	SuggestCollaborator(ctx context.Context, moduleID, billingClientID int64) (int64, bool, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(base *transport.BaseHandler, service ServiceAPI) *Handler {
	if base == nil {
		base = transport.NewBaseHandler(nil)
	}
	return &Handler{BaseHandler: base, Service: service}
}

func (h *Handler) CreateDossier(w http.ResponseWriter, r *http.Request) {
	var dto CreateDossierDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	d, err := h.Service.CreateDossier(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) ListDossiers(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", DefaultListLimit)
	offset := queryInt(r, "offset", 0)

	dossiers, err := h.Service.ListDossiers(r.Context(), limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, DossiersResponse{Dossiers: dossiers, Limit: limit, Offset: offset})
}

func (h *Handler) GetDossier(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	d, err := h.Service.GetDossier(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, d)
}

// CreateAssignment handles POST /dossiers/{id}/assignments.
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	dossierID, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto CreateAssignmentDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	a, err := h.Service.AssignCollaborator(r.Context(), dossierID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, a)
}

// ReplaceAssignment handles PATCH /dossiers/{id}/assignments/{moduleId}.
func (h *Handler) ReplaceAssignment(w http.ResponseWriter, r *http.Request) {
	dossierID, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	moduleID, err := h.IDParam(r, "moduleId")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto ReplaceAssignmentDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	a, err := h.Service.ReplaceCollaborator(r.Context(), dossierID, moduleID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, a)
}

// Suggest handles GET /suggestions?module_id=&billing_client_id=.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	moduleID, err := h.QueryID(r, "module_id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	billingClientID, err := h.QueryID(r, "billing_client_id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	userID, ok, err := h.Service.SuggestCollaborator(r.Context(), moduleID, billingClientID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp := SuggestionResponse{ModuleID: moduleID, BillingClientID: billingClientID}
	if ok {
		resp.SuggestedUserID = &userID
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
