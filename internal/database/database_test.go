package database_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"usersync/internal/config"
	"usersync/internal/database"
	"usersync/internal/models"
)

func sqliteConfig(t *testing.T) config.RemoteConfig {
	return config.RemoteConfig{
		Driver:     config.DriverSQLite,
		DSN:        fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		AutoCreate: true,
	}
}

func TestWithSession_SQLite(t *testing.T) {
	cfg := sqliteConfig(t)
	user := &models.User{ID: "042", FirstName: "Ann", LastName: "Lee", Age: 30, Gender: "female", YearOfBirth: 1994}

	err := database.WithSession(cfg, zap.NewNop(), func(s *database.Session) error {
		exists, err := s.Users.Exists("042")
		require.NoError(t, err)
		assert.False(t, exists)
		return s.Users.Insert(user)
	})
	require.NoError(t, err)
}

func TestWithSession_ReturnsCallbackError(t *testing.T) {
	boom := errors.New("boom")
	err := database.WithSession(sqliteConfig(t), zap.NewNop(), func(*database.Session) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestWithSession_ClosesOnPanic(t *testing.T) {
	var session *database.Session
	assert.Panics(t, func() {
		_ = database.WithSession(sqliteConfig(t), zap.NewNop(), func(s *database.Session) error {
			session = s
			panic("insert blew up")
		})
	})
	require.NotNil(t, session)
	// Already released by WithSession; a second close is a no-op.
	assert.NoError(t, session.Close())
}

func TestOpenSession_Memory(t *testing.T) {
	s, err := database.OpenSession(config.RemoteConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	require.NotNil(t, s.Users)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestOpen_UnreachablePostgres(t *testing.T) {
	_, err := database.Open(config.RemoteConfig{
		Driver: config.DriverPostgres,
		DSN:    "host=127.0.0.1 port=1 user=nobody dbname=none sslmode=disable connect_timeout=1",
	})
	assert.Error(t, err)
}

func TestOpen_MemoryRejected(t *testing.T) {
	_, err := database.Open(config.RemoteConfig{Driver: config.DriverMemory})
	assert.Error(t, err)
}
