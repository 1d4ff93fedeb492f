package auth

import (
	"context"
	"fmt"
	"strings"

	"postpulse/internal/domain"
	"postpulse/internal/service"
	"postpulse/pkg/errors"
	"postpulse/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

// Service validates viewer tokens issued by the host application
type Service struct {
	secret []byte
	logger *logger.Logger
}

// NewService creates a viewer token validator. An empty secret disables
// authentication: every token is rejected and requests stay anonymous.
func NewService(secret string, logger *logger.Logger) service.ViewerAuthenticator {
	return &Service{secret: []byte(secret), logger: logger}
}

// ValidateViewerToken verifies an HS256 token and returns the viewer named by
// its sub claim. Expiry is enforced by the parser.
func (s *Service) ValidateViewerToken(ctx context.Context, tokenString string) (*domain.Viewer, error) {
	if len(s.secret) == 0 {
		return nil, errors.NewAuthenticationError("Viewer authentication not configured")
	}
	if !isJWTToken(tokenString) {
		return nil, errors.NewAuthenticationError("Unrecognized token format")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		s.logger.WithError(err).Debug("Viewer token rejected")
		return nil, errors.NewAuthenticationError("Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.NewAuthenticationError("Invalid token")
	}

	viewer := &domain.Viewer{
		ID:    getStringValue(claims, "sub"),
		Email: getStringValue(claims, "email"),
		Name:  getStringValue(claims, "name"),
	}
	if viewer.ID == "" {
		return nil, errors.NewAuthenticationError("Invalid token: no viewer identifier")
	}

	return viewer, nil
}

// isJWTToken checks for three non-empty dot separated segments
func isJWTToken(token string) bool {
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return false
	}
	for _, segment := range segments {
		if segment == "" {
			return false
		}
	}
	return true
}

func getStringValue(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}
