package profile

import "github.com/frahmantamala/travel-agency/internal/colab"

type ProfilesResponse struct {
	Profiles []colab.Profile `json:"profiles"`
}

type ModulesResponse struct {
	Modules []colab.Module `json:"modules"`
}
