package usermock

import (
	"context"

	domain "loan-tracker/internal/domain/user"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn         func(ctx context.Context, u *domain.User) error
	GetByUserIDFn    func(ctx context.Context, userID string) (*domain.User, error)
	GetByEmailFn     func(ctx context.Context, email string) (*domain.User, error)
	ListByRoleFn     func(ctx context.Context, role domain.Role) ([]domain.User, error)
	SetPushEnabledFn func(ctx context.Context, userID string, enabled bool) error
}

func (m *Repo) Create(ctx context.Context, u *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, u)
	}
	return nil
}

func (m *Repo) GetByUserID(ctx context.Context, userID string) (*domain.User, error) {
	if m.GetByUserIDFn != nil {
		return m.GetByUserIDFn(ctx, userID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	if m.ListByRoleFn != nil {
		return m.ListByRoleFn(ctx, role)
	}
	return nil, context.Canceled
}

func (m *Repo) SetPushEnabled(ctx context.Context, userID string, enabled bool) error {
	if m.SetPushEnabledFn != nil {
		return m.SetPushEnabledFn(ctx, userID, enabled)
	}
	return nil
}
