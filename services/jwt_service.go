package services

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"time"

	"gorm.io/gorm"

	"tackler-server/database"
	"tackler-server/models"
)

// JWTService manages refresh tokens backing the JWT auth flow
type JWTService struct {
	db *gorm.DB
}

// NewJWTService creates a new JWT service
func NewJWTService() *JWTService {
	return &JWTService{
		db: database.DB,
	}
}

// CreateRefreshToken issues and stores a refresh token for a user
func (s *JWTService) CreateRefreshToken(userID uint, deviceID, userAgent, ipAddress string) (*models.RefreshToken, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}

	token := models.RefreshToken{
		Token:     hex.EncodeToString(raw),
		UserID:    userID,
		ExpiresAt: time.Now().Add(30 * 24 * time.Hour),
		DeviceID:  deviceID,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	if err := s.db.Create(&token).Error; err != nil {
		return nil, err
	}

	return &token, nil
}

// ValidateRefreshToken looks up a refresh token and checks it is usable
func (s *JWTService) ValidateRefreshToken(tokenString string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := s.db.Where("token = ?", tokenString).First(&token).Error; err != nil {
		return nil, models.ErrUnauthorized("invalid refresh token")
	}

	if !token.IsValid() {
		return nil, models.ErrUnauthorized("refresh token expired or revoked")
	}

	return &token, nil
}

// RevokeRefreshToken marks a refresh token as revoked
func (s *JWTService) RevokeRefreshToken(tokenString string) error {
	return s.db.Model(&models.RefreshToken{}).
		Where("token = ?", tokenString).
		Update("is_revoked", true).Error
}

// CleanupExpiredTokens removes refresh tokens past their expiry
func (s *JWTService) CleanupExpiredTokens() error {
	res := s.db.Where("expires_at <= ?", time.Now()).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected > 0 {
		log.Printf("🧹 Cleaned up %d expired refresh tokens", res.RowsAffected)
	}
	return nil
}
