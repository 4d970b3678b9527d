package testutil

import (
	"testing"
	"time"

	"github.com/aimoney/aimoney-api/models"
	"github.com/aimoney/aimoney-api/services"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewTestTokenService issues tokens accepted by a router built from NewTestConfig
func NewTestTokenService() *services.TokenService {
	return services.NewTokenService(TestJWTSecret, TestSessionIssuer, TestSessionAudience, time.Hour)
}

// CreateUser stores an active account with the given role
func CreateUser(t *testing.T, db *gorm.DB, email, name, role string) *models.User {
	t.Helper()
	user := &models.User{
		Email:    email,
		Name:     name,
		Provider: "google",
		Role:     role,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// BearerToken signs a session token for user and returns the Authorization header value
func BearerToken(t *testing.T, tokens *services.TokenService, user *models.User) string {
	t.Helper()
	token, _, err := tokens.Issue(user)
	require.NoError(t, err)
	return "Bearer " + token
}
