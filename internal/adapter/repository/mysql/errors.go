package mysql

import (
	"errors"

	"gorm.io/gorm"

	"loan-tracker/internal/domain/apperror"
)

// wrapErr turns gorm errors into kinded errors, keeping the cause reachable.
func wrapErr(op, what string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &apperror.Error{Kind: apperror.KindNotFound, Op: op, Msg: what + " not found", Err: err}
	}
	return apperror.Persistence(op, err)
}

func affected(op, what string, res *gorm.DB) error {
	if res.Error != nil {
		return wrapErr(op, what, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrapErr(op, what, gorm.ErrRecordNotFound)
	}
	return nil
}
