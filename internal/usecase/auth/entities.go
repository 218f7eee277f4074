package auth

import (
	"time"

	"loan-tracker/internal/domain/user"
)

type SignUpInput struct {
	Email    string    `json:"email" validate:"required,email,max=254"`
	Password string    `json:"password" validate:"required,min=8,max=72"`
	FullName string    `json:"full_name" validate:"required,max=160"`
	Role     user.Role `json:"role" validate:"required,oneof=debtor creditor"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserDTO struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	Role        user.Role `json:"role"`
	PushEnabled bool      `json:"push_enabled"`
}

type SessionDTO struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserDTO   `json:"user"`
}

type MeDTO struct {
	User UserDTO   `json:"user"`
	View user.View `json:"view"`
}

type ProfileDTO struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

func toUserDTO(u *user.User) UserDTO {
	return UserDTO{UserID: u.UserID, Email: u.Email, FullName: u.FullName, Role: u.Role, PushEnabled: u.PushEnabled}
}
