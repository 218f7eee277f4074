package mysql

import (
	"context"
	"strings"

	"gorm.io/gorm"

	userDomain "loan-tracker/internal/domain/user"
)

type UserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) Create(ctx context.Context, u *userDomain.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return wrapErr("user.Create", "user", r.db.WithContext(ctx).Create(u).Error)
}

func (r *UserRepository) GetByUserID(ctx context.Context, userID string) (*userDomain.User, error) {
	var out userDomain.User
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&out).Error; err != nil {
		return nil, wrapErr("user.GetByUserID", "user", err)
	}
	return &out, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDomain.User, error) {
	var out userDomain.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&out).Error
	if err != nil {
		return nil, wrapErr("user.GetByEmail", "user", err)
	}
	return &out, nil
}

func (r *UserRepository) ListByRole(ctx context.Context, role userDomain.Role) ([]userDomain.User, error) {
	out := []userDomain.User{}
	if err := r.db.WithContext(ctx).Where("role = ?", role).Order("full_name ASC").Find(&out).Error; err != nil {
		return nil, wrapErr("user.ListByRole", "user", err)
	}
	return out, nil
}

func (r *UserRepository) SetPushEnabled(ctx context.Context, userID string, enabled bool) error {
	res := r.db.WithContext(ctx).
		Model(&userDomain.User{}).
		Where("user_id = ?", userID).
		Update("push_enabled", enabled)
	return affected("user.SetPushEnabled", "user", res)
}
