package profile

import (
	"context"
	"net/http"

	"github.com/frahmantamala/travel-agency/internal/colab"
	"github.com/frahmantamala/travel-agency/internal/transport"
)

type ServiceAPI interface {
	ListProfiles(ctx context.Context) ([]colab.Profile, error)
	ListModules(ctx context.Context) ([]colab.Module, error)
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

func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Service.ListProfiles(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ProfilesResponse{Profiles: profiles})
}

func (h *Handler) ListModules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.Service.ListModules(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ModulesResponse{Modules: modules})
}
