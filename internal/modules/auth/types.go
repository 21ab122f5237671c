package auth

import (
	"errors"
	"time"
)

type RegisterDTO struct {
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name"`
	Mail     string `json:"mail"`
}

type LoginDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateTokenDTO struct {
	Name string `json:"name" binding:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type tokenResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Token      string     `json:"token"`
	LastUsedAt *time.Time `json:"last_used_at"`
	RevokedAt  *time.Time `json:"revoked_at"`
	Created    time.Time  `json:"created"`
}

var (
	errUserNotFound     = errors.New("auth user not found")
	errWrongPassword    = errors.New("auth wrong password")
	errUsernameTaken    = errors.New("username already taken")
	errTokenNotFound    = errors.New("access token not found")
	errTokenAlreadyDead = errors.New("access token already revoked")
)
