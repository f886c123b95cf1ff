package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"docuflow/approval-portal/approval-portal-backend/pkg/apperrors"
)

// Credentials is the slice of a user account the auth module needs.
type Credentials struct {
	UserID       uuid.UUID
	Login        string
	PasswordHash string
	IsActive     bool
}

// CredentialStore is implemented by the users module.
type CredentialStore interface {
	// GetCredentials returns nil when the login is unknown.
	GetCredentials(ctx context.Context, login string) (*Credentials, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

type Claims struct {
	jwt.RegisteredClaims
}

type Service struct {
	store    CredentialStore
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.Logger
}

func NewService(store CredentialStore, secret string, tokenTTL time.Duration, logger *zap.Logger) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &Service{store: store, secret: []byte(secret), tokenTTL: tokenTTL, logger: logger}
}

// Login verifies credentials and returns a signed bearer token.
func (s *Service) Login(ctx context.Context, login, password string) (string, uuid.UUID, error) {
	creds, err := s.store.GetCredentials(ctx, login)
	if err != nil {
		return "", uuid.Nil, err
	}
	if creds == nil || !creds.IsActive {
		return "", uuid.Nil, apperrors.NewUnauthorizedError("invalid login or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("failed login attempt", zap.String("login", login))
		return "", uuid.Nil, apperrors.NewUnauthorizedError("invalid login or password")
	}

	token, err := s.issueToken(creds.UserID)
	if err != nil {
		return "", uuid.Nil, err
	}
	return token, creds.UserID, nil
}

// ChangePassword re-verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, login, current, next string) error {
	creds, err := s.store.GetCredentials(ctx, login)
	if err != nil {
		return err
	}
	if creds == nil || creds.UserID != userID {
		return apperrors.NewUnauthorizedError("invalid login or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(current)); err != nil {
		return apperrors.NewUnauthorizedError("invalid login or password")
	}
	if len(next) < 8 {
		return apperrors.NewValidationError("password", "must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, userID, string(hash))
}

func (s *Service) issueToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken validates a bearer token and returns the subject user id.
func (s *Service) ParseToken(tokenString string) (uuid.UUID, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.NewUnauthorizedError("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, apperrors.NewUnauthorizedError("invalid token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, apperrors.NewUnauthorizedError("invalid token subject")
	}
	return userID, nil
}
