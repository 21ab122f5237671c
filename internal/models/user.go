package models

import "time"

// UserModel represents an account that owns projects, sessions and settings.
type UserModel struct {
	Base
	Username      string        `json:"username"        gorm:"uniqueIndex;not null"`
	Name          string        `json:"name"`
	Password      string        `json:"-"               gorm:"not null"`
	Mail          string        `json:"mail"`
	LastLoginTime *time.Time    `json:"last_login_time"`
	AccessTokens  []AccessToken `json:"access_tokens,omitempty" gorm:"foreignKey:UserID"`
}

func (UserModel) TableName() string { return "users" }

// AccessToken is an opaque bearer credential for API access.
// A token is valid while revoked_at is NULL.
type AccessToken struct {
	Base
	UserID     string     `json:"-"            gorm:"index;not null"`
	Token      string     `json:"token"        gorm:"uniqueIndex;not null"`
	Name       string     `json:"name"`
	LastUsedAt *time.Time `json:"last_used_at"`
	RevokedAt  *time.Time `json:"revoked_at"`
}

func (AccessToken) TableName() string { return "access_tokens" }
