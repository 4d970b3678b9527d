package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aimoney/aimoney-api/models"
	"github.com/aimoney/aimoney-api/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// accountRouter serves /admin behind LoadAccount and RequireAdmin, starting from
// the given token session
func accountRouter(db *gorm.DB, session *Session, seen **Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin", func(c *gin.Context) {
		if session != nil {
			SetSession(c, session)
		}
		c.Next()
	}, LoadAccount(db), func(c *gin.Context) {
		if s, err := GetSession(c); err == nil {
			*seen = s
		}
		c.Next()
	}, RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func seedAccount(t *testing.T, db *gorm.DB, email, role, status string) {
	t.Helper()
	user := &models.User{Email: email, Name: "테스트", Provider: "credentials", Role: role, Status: status}
	require.NoError(t, db.Create(user).Error)
}

func TestLoadAccount(t *testing.T) {
	tests := []struct {
		name       string
		stored     *models.User
		tokenRole  string
		wantStatus int
		wantCode   string
		wantRole   string
	}{
		{
			name:       "stored admin passes",
			stored:     &models.User{Role: models.RoleAdmin, Status: models.UserStatusActive},
			tokenRole:  models.RoleAdmin,
			wantStatus: http.StatusOK,
			wantRole:   models.RoleAdmin,
		},
		{
			name:       "demoted admin with an old token is forbidden",
			stored:     &models.User{Role: models.RoleUser, Status: models.UserStatusActive},
			tokenRole:  models.RoleAdmin,
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
			wantRole:   models.RoleUser,
		},
		{
			name:       "promoted user with an old token passes",
			stored:     &models.User{Role: models.RoleAdmin, Status: models.UserStatusActive},
			tokenRole:  models.RoleUser,
			wantStatus: http.StatusOK,
			wantRole:   models.RoleAdmin,
		},
		{
			name:       "suspended admin is disabled",
			stored:     &models.User{Role: models.RoleAdmin, Status: models.UserStatusSuspended},
			tokenRole:  models.RoleAdmin,
			wantStatus: http.StatusForbidden,
			wantCode:   "ACCOUNT_DISABLED",
		},
		{
			name:       "inactive user is disabled",
			stored:     &models.User{Role: models.RoleUser, Status: models.UserStatusInactive},
			tokenRole:  models.RoleUser,
			wantStatus: http.StatusForbidden,
			wantCode:   "ACCOUNT_DISABLED",
		},
		{
			name:       "unknown account holds no privileges",
			tokenRole:  models.RoleAdmin,
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
			wantRole:   models.RoleUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.NewTestDB(t)
			if tt.stored != nil {
				seedAccount(t, db, "lee@example.com", tt.stored.Role, tt.stored.Status)
			}

			var seen *Session
			// the token email differs in case from the stored one
			router := accountRouter(db, &Session{UserID: "sub-1", Email: "Lee@Example.com", Role: tt.tokenRole}, &seen)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantCode != "" {
				var body struct {
					Error struct {
						Code string `json:"code"`
					} `json:"error"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.wantCode, body.Error.Code)
			}
			if tt.wantRole != "" {
				require.NotNil(t, seen)
				assert.Equal(t, tt.wantRole, seen.Role)
				assert.Equal(t, "sub-1", seen.UserID)
			}
		})
	}
}

func TestLoadAccount_NoSession(t *testing.T) {
	var seen *Session
	router := accountRouter(testutil.NewTestDB(t), nil, &seen)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, seen)
}

func TestLoadAccount_DatabaseError(t *testing.T) {
	db := testutil.NewTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	var seen *Session
	router := accountRouter(db, &Session{Email: "lee@example.com", Role: models.RoleAdmin}, &seen)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "DATABASE_ERROR")
	assert.Nil(t, seen)
}
