package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/tracktide/core/internal/models"
	jwtpkg "github.com/tracktide/core/internal/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	loginTokenTTL     = 30 * 24 * time.Hour
	accessTokenPrefix = "ttk"
	accessTokenBytes  = 20
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) Login(username, password string) (string, *models.UserModel, error) {
	var u models.UserModel
	if err := s.db.Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, errUserNotFound
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", nil, errWrongPassword
	}
	now := time.Now()
	s.db.Model(&u).Update("last_login_time", now)
	u.LastLoginTime = &now

	token, err := jwtpkg.Sign(u.ID, loginTokenTTL)
	return token, &u, err
}

func (s *Service) Register(dto *RegisterDTO) (*models.UserModel, error) {
	var count int64
	if err := s.db.Model(&models.UserModel{}).Where("username = ?", dto.Username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errUsernameTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	name := dto.Name
	if name == "" {
		name = dto.Username
	}
	u := models.UserModel{Username: dto.Username, Password: string(hash), Name: name, Mail: dto.Mail}
	return &u, s.db.Create(&u).Error
}

func (s *Service) GetByID(id string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ListTokens returns the user's live access tokens. Revoked tokens are
// kept in the table for auditing but never listed.
func (s *Service) ListTokens(userID string) ([]models.AccessToken, error) {
	var tokens []models.AccessToken
	err := s.db.Where("user_id = ? AND revoked_at IS NULL", userID).
		Order("created_at DESC").Find(&tokens).Error
	return tokens, err
}

func (s *Service) CreateToken(userID, name string) (*models.AccessToken, error) {
	raw, err := generateToken()
	if err != nil {
		return nil, err
	}
	token := models.AccessToken{UserID: userID, Token: raw, Name: name}
	return &token, s.db.Create(&token).Error
}

func (s *Service) RevokeToken(userID, tokenID string) error {
	now := time.Now()
	res := s.db.Model(&models.AccessToken{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL", tokenID, userID).
		Update("revoked_at", &now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.Model(&models.AccessToken{}).
			Where("id = ? AND user_id = ?", tokenID, userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errTokenNotFound
		}
		return errTokenAlreadyDead
	}
	return nil
}

func generateToken() (string, error) {
	buf := make([]byte, accessTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return accessTokenPrefix + hex.EncodeToString(buf), nil
}
