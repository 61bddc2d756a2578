package colab

import (
	"context"
	"errors"
	"net/http"

	"github.com/frahmantamala/travel-agency/internal"
	"github.com/frahmantamala/travel-agency/internal/transport"
)

type ServiceAPI interface {
	Prepare(ctx context.Context, dossierID int64) (*Session, error)
	Submit(ctx context.Context, ss *Session) (*BatchResult, error)
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

// GetSession handles GET /dossiers/{id}/colabs.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	dossierID, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	ss, err := h.Service.Prepare(r.Context(), dossierID)
	if err != nil {
		h.Logger.Error("GetSession: prepare failed", "error", err, "dossier_id", dossierID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, NewSessionResponse(ss))
}

// Plan handles POST /dossiers/{id}/colabs/plan. Nothing is written.
func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	ss, _, ok := h.prepareWithIntents(w, r)
	if !ok {
		return
	}

	h.WriteJSON(w, http.StatusOK, PlanResponse{
		DossierID: ss.DossierID,
		Selection: ss.Selector.Snapshot(),
		Ops:       ss.Plan(),
	})
}

// Apply handles PUT /dossiers/{id}/colabs.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	ss, dossierID, ok := h.prepareWithIntents(w, r)
	if !ok {
		return
	}

	ops := ss.Plan()
	result, err := h.Service.Submit(r.Context(), ss)
	if err != nil {
		h.Logger.Error("Apply: colab batch failed", "error", err, "dossier_id", dossierID, "ops", len(ops))
		status := http.StatusInternalServerError
		var body interface{} = map[string]string{"message": "internal server error"}
		if appErr, isApp := internal.IsAppError(err); isApp {
			status = appErr.StatusCode
			body = appErr
		}
		h.WriteJSON(w, status, ApplyFailureResponse{Error: body, Ops: ops, Result: result})
		return
	}

	h.Logger.Info("Apply: colab batch applied", "dossier_id", dossierID, "ops", len(ops), "batch_id", result.BatchID)
	h.WriteJSON(w, http.StatusOK, ApplyResponse{DossierID: dossierID, Ops: ops, Result: result})
}

func (h *Handler) prepareWithIntents(w http.ResponseWriter, r *http.Request) (*Session, int64, bool) {
	dossierID, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return nil, 0, false
	}

	var dto ColabRequestDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return nil, 0, false
	}

	ss, err := h.Service.Prepare(r.Context(), dossierID)
	if err != nil {
		h.Logger.Error("colab: prepare failed", "error", err, "dossier_id", dossierID)
		h.HandleServiceError(w, err)
		return nil, 0, false
	}

	if dto.BillingClientID != nil && *dto.BillingClientID != ss.Snapshot.BillingClientID {
		if err := ss.ChangeBillingClient(r.Context(), *dto.BillingClientID); err != nil {
			h.Logger.Error("colab: resolve suggestions failed", "error", err, "dossier_id", dossierID)
			h.HandleServiceError(w, err)
			return nil, 0, false
		}
	}

	if err := ss.ApplyIntents(dto.ToIntents()); err != nil {
		if errors.Is(err, ErrModuleNotActive) {
			h.HandleServiceError(w, internal.ErrModuleNotActive.WithMessage(err.Error()))
			return nil, 0, false
		}
		h.HandleServiceError(w, err)
		return nil, 0, false
	}

	return ss, dossierID, true
}
