package auth

import (
	"context"
	"errors"
	"strings"

	"loan-tracker/internal/auth"
	"loan-tracker/internal/domain/apperror"
	"loan-tracker/internal/domain/user"
	"loan-tracker/pkg/id"
)

type Tokens interface {
	Issue(u *user.User) (string, *auth.Claims, error)
	Revoke(ctx context.Context, c *auth.Claims) error
}

type Usecase struct {
	users  user.Repository
	tokens Tokens
}

func NewUsecase(users user.Repository, tokens Tokens) *Usecase {
	return &Usecase{users: users, tokens: tokens}
}

func (u *Usecase) SignUp(ctx context.Context, in SignUpInput) (*UserDTO, error) {
	const op = "auth.SignUp"
	email := strings.ToLower(strings.TrimSpace(in.Email))
	switch {
	case email == "" || !strings.Contains(email, "@"):
		return nil, apperror.Validation(op, "a valid email is required")
	case strings.TrimSpace(in.FullName) == "":
		return nil, apperror.Validation(op, "full name is required")
	case !in.Role.Valid():
		return nil, apperror.Validation(op, "role must be debtor or creditor")
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	_, err := u.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperror.Validation(op, "email already registered")
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Persistence(op, err)
	}
	nu := &user.User{
		UserID:       id.NewID32(),
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		Role:         in.Role,
		PasswordHash: hash,
	}
	if err := u.users.Create(ctx, nu); err != nil {
		return nil, err
	}
	dto := toUserDTO(nu)
	return &dto, nil
}

func (u *Usecase) SignIn(ctx context.Context, in SignInInput) (*SessionDTO, error) {
	const op = "auth.SignIn"
	found, err := u.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Auth(op, "invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(found.PasswordHash, in.Password) {
		return nil, apperror.Auth(op, "invalid email or password")
	}

	token, claims, err := u.tokens.Issue(found)
	if err != nil {
		return nil, apperror.Persistence(op, err)
	}
	return &SessionDTO{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: toUserDTO(found)}, nil
}

func (u *Usecase) SignOut(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return apperror.Auth("auth.SignOut", "no active session")
	}
	return u.tokens.Revoke(ctx, claims)
}

func (u *Usecase) Me(ctx context.Context, caller auth.Principal) (*MeDTO, error) {
	found, err := u.users.GetByUserID(ctx, caller.UserID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Auth("auth.Me", "account no longer exists")
	}
	if err != nil {
		return nil, err
	}
	return &MeDTO{User: toUserDTO(found), View: user.ViewFor(found.Role)}, nil
}

// SetPush records whether the caller granted push notifications.
func (u *Usecase) SetPush(ctx context.Context, caller auth.Principal, enabled bool) error {
	return u.users.SetPushEnabled(ctx, caller.UserID, enabled)
}

// ListProfiles backs the debtor picker shown to creditors.
func (u *Usecase) ListProfiles(ctx context.Context, caller auth.Principal, role user.Role) ([]ProfileDTO, error) {
	const op = "auth.ListProfiles"
	if !user.ViewFor(caller.Role).MustSelectDebtor {
		return nil, apperror.Forbidden(op, "only creditors can browse profiles")
	}
	if role == "" {
		role = user.RoleDebtor
	}
	if !role.Valid() {
		return nil, apperror.Validation(op, "unknown role "+string(role))
	}
	us, err := u.users.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	out := make([]ProfileDTO, 0, len(us))
	for _, p := range us {
		out = append(out, ProfileDTO{UserID: p.UserID, FullName: p.FullName, Email: p.Email})
	}
	return out, nil
}
