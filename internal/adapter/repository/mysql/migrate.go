package mysql

import (
	"gorm.io/gorm"

	"loan-tracker/internal/domain/loan"
	"loan-tracker/internal/domain/payment"
	"loan-tracker/internal/domain/user"
)

// AutoMigrate creates or updates the schema for every entity.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&user.User{}, &loan.Loan{}, &payment.Payment{})
}
