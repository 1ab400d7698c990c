package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fornihq/forni-backend/pkg/config"
	"github.com/fornihq/forni-backend/pkg/db"
	"github.com/fornihq/forni-backend/pkg/db/models"
	"github.com/fornihq/forni-backend/pkg/enums"
	pkgerrors "github.com/fornihq/forni-backend/pkg/errors"
	"github.com/fornihq/forni-backend/pkg/security"
)

func setupRegisterTestDB(t *testing.T) *db.Client {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	usersTable := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT,
  last_name TEXT,
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'customer',
  latitude REAL,
  longitude REAL,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(usersTable).Error)

	return db.NewWithConn(conn)
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestRegisterCreatesUser(t *testing.T) {
	client := setupRegisterTestDB(t)
	svc, err := NewRegisterService(RegisterServiceParams{
		DB:             client,
		PasswordConfig: testPasswordConfig(),
	})
	require.NoError(t, err)

	profile, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "  Paul@Fournil.FR ",
		Password:  "warm-baguettes",
		FirstName: "Paul",
		LastName:  "Fournier",
		Role:      "bakery_owner",
	})
	require.NoError(t, err)
	require.Equal(t, "paul@fournil.fr", profile.Email)
	require.Equal(t, enums.UserRoleBakeryOwner, profile.Role)

	var stored models.User
	require.NoError(t, client.DB().First(&stored, "email = ?", "paul@fournil.fr").Error)

	ok, err := security.VerifyPassword("warm-baguettes", stored.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok, "stored hash must verify against the original password")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	client := setupRegisterTestDB(t)
	svc, err := NewRegisterService(RegisterServiceParams{
		DB:             client,
		PasswordConfig: testPasswordConfig(),
	})
	require.NoError(t, err)

	req := RegisterRequest{
		Email:     "paul@fournil.fr",
		Password:  "warm-baguettes",
		FirstName: "Paul",
		LastName:  "Fournier",
		Role:      "customer",
	}

	_, err = svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	client := setupRegisterTestDB(t)
	svc, err := NewRegisterService(RegisterServiceParams{
		DB:             client,
		PasswordConfig: testPasswordConfig(),
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterRequest{
		Email:     "root@fournil.fr",
		Password:  "warm-baguettes",
		FirstName: "Root",
		LastName:  "User",
		Role:      "admin",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
