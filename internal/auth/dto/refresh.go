package dto

type RefreshInput struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutInput struct {
	RefreshToken string `json:"refresh_token"`
}
