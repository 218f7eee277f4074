package user

import "time"

type Role string

const (
	RoleDebtor   Role = "debtor"
	RoleCreditor Role = "creditor"
)

func (r Role) Valid() bool { return r == RoleDebtor || r == RoleCreditor }

// User is the account plus its public profile.
type User struct {
	ID           uint64    `gorm:"primaryKey;column:id" json:"-"`
	UserID       string    `gorm:"size:32;uniqueIndex:ux_users_user_id" json:"user_id"`
	Email        string    `gorm:"size:255;uniqueIndex:ux_users_email;not null" json:"email"`
	FullName     string    `gorm:"size:160" json:"full_name"`
	Role         Role      `gorm:"size:16;index;not null" json:"role"`
	PasswordHash string    `gorm:"size:100;not null" json:"-"`
	PushEnabled  bool      `gorm:"not null;default:false" json:"push_enabled"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "users" }
