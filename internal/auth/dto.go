package auth

import (
	"github.com/marketloop/storefront-backend/internal/users"
)

// RegisterRequest contains the payload required to create a customer account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest carries the credentials for an existing account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse pairs the authenticated user with a freshly minted token.
// The controller moves the token into an httpOnly cookie; it never appears
// in a response body.
type AuthResponse struct {
	User  *users.UserDTO
	Token string
}
