package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the local profile of an identity-provider account.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UID         string    `gorm:"size:128;not null;uniqueIndex" json:"uid"`
	Email       string    `gorm:"size:255" json:"email"`
	DisplayName string    `gorm:"size:255" json:"display_name"`
	Role        string    `gorm:"size:20;not null;default:user;index" json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserResponse is the public projection returned by /api/me.
type UserResponse struct {
	ID          uint      `json:"id"`
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		UID:         u.UID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
	}
}
