package user

import "context"

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByUserID(ctx context.Context, userID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// ListByRole orders by full name.
	ListByRole(ctx context.Context, role Role) ([]User, error)
	SetPushEnabled(ctx context.Context, userID string, enabled bool) error
}
