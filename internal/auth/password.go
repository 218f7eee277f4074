package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"loan-tracker/internal/domain/apperror"
)

const MinPasswordLen = 8

func ValidatePassword(pw string) error {
	if len(pw) < MinPasswordLen {
		return apperror.Validation("auth.ValidatePassword", fmt.Sprintf("password must be at least %d characters", MinPasswordLen))
	}
	return nil
}

func HashPassword(pw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
