package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleMember UserRole = "MEMBER"
	RoleStaff  UserRole = "STAFF"
)

type UserStatus string

const (
	UserActive     UserStatus = "ACTIVE"
	UserInactive   UserStatus = "INACTIVE"
	UserRestricted UserStatus = "RESTRICTED"
)

type User struct {
	ID        string     `gorm:"primaryKey;type:uuid" json:"id"`
	Name      string     `gorm:"not null" json:"name"`
	Email     string     `gorm:"uniqueIndex;not null" json:"email"`
	Password  string     `gorm:"column:password_hash;not null" json:"-"` // Not shown in JSON
	Role      UserRole   `gorm:"type:varchar(16);default:'MEMBER';not null" json:"role"`
	Status    UserStatus `gorm:"type:varchar(16);default:'ACTIVE';not null" json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// BeforeCreate hook to set UUID before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsStaff() bool      { return u.Role == RoleStaff }
func (u *User) IsActive() bool     { return u.Status == UserActive }
func (u *User) IsRestricted() bool { return u.Status == UserRestricted }
