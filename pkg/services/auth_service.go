package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"merchant-chat-api/pkg/models"
)

// MerchantStore looks merchants up by primary key
type MerchantStore interface {
	GetByID(ctx context.Context, merchantID string) (*models.Merchant, error)
}

// AuthService issues and verifies merchant access tokens
type AuthService struct {
	merchants   MerchantStore
	jwtSecret   []byte
	tokenExpiry time.Duration
	logger      *logrus.Logger
	now         func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(merchants MerchantStore, jwtSecret string, tokenExpiry time.Duration, logger *logrus.Logger) *AuthService {
	return &AuthService{
		merchants:   merchants,
		jwtSecret:   []byte(jwtSecret),
		tokenExpiry: tokenExpiry,
		logger:      logger,
		now:         time.Now,
	}
}

// Login issues a bearer token for an existing merchant.
// Merchants with a stored password hash must present the matching password.
func (s *AuthService) Login(ctx context.Context, merchantID, password string) (*models.Token, error) {
	s.logger.WithField("merchant_id", merchantID).Info("Login attempt")

	merchant, err := s.merchants.GetByID(ctx, merchantID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.WithField("merchant_id", merchantID).Warn("Merchant not found")
			return nil, fmt.Errorf("%w: Merchant not found", models.ErrNotFound)
		}
		return nil, err
	}

	if merchant.PasswordHash.Valid && merchant.PasswordHash.String != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(merchant.PasswordHash.String), []byte(password)); err != nil {
			s.logger.WithField("merchant_id", merchantID).Warn("Invalid password")
			return nil, fmt.Errorf("%w: Incorrect merchant id or password", models.ErrUnauthorized)
		}
	}

	token, err := s.GenerateToken(merchant.MerchantID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign access token")
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &models.Token{AccessToken: token, TokenType: "bearer"}, nil
}

// GenerateToken signs an HS256 token whose subject is the merchant id
func (s *AuthService) GenerateToken(merchantID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   merchantID,
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ParseToken validates the signature and expiry and returns the merchant id
func (s *AuthService) ParseToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: invalid token", models.ErrUnauthorized)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", models.ErrUnauthorized)
	}
	return claims.Subject, nil
}

// Authenticate resolves a bearer token to its merchant
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.Merchant, error) {
	merchantID, err := s.ParseToken(tokenString)
	if err != nil {
		s.logger.Debug("Rejected access token")
		return nil, err
	}
	merchant, err := s.merchants.GetByID(ctx, merchantID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown merchant", models.ErrUnauthorized)
		}
		return nil, err
	}
	return merchant, nil
}
