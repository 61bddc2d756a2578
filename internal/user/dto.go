package user

type CreateUserDTO struct {
	Email       string   `json:"email" validate:"required,email"`
	Name        string   `json:"name" validate:"required,max=128"`
	Password    string   `json:"password" validate:"required,min=8"`
	Permissions []string `json:"permissions" validate:"dive,oneof=view_dossiers manage_colabs admin"`
}

type UsersResponse struct {
	Users []*User `json:"users"`
}
