package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/aimoney/aimoney-api/config"
	"github.com/aimoney/aimoney-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Session settings shared by NewTestConfig and the token helpers
const (
	TestJWTSecret       = "aimoney-test-secret"
	TestSessionIssuer   = "aimoney-api"
	TestSessionAudience = "aimoney-web"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// MustSetTestEnvironment sets GO_ENV to test for the duration of the test
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()
	t.Setenv("GO_ENV", "test")
	RequireTestEnvironment(t)
}

// NewTestConfig returns a configuration with every optional integration disabled
func NewTestConfig() *config.Config {
	return &config.Config{
		DatabaseURL:        "sqlite://:memory:",
		Port:               "8080",
		GoEnv:              "test",
		PublicURL:          "http://localhost:8080",
		JWTSecret:          TestJWTSecret,
		SessionIssuer:      TestSessionIssuer,
		SessionAudience:    TestSessionAudience,
		SessionTTL:         time.Hour,
		UploadDir:          os.TempDir(),
		CORSAllowedOrigins: []string{"http://localhost:3000"},
	}
}

// NewTestDB opens a migrated in-memory SQLite database private to the test
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), config.GormConfig())
	require.NoError(t, err, "Failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// :memory: databases are per connection
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db), "Failed to migrate test database")
	return db
}
