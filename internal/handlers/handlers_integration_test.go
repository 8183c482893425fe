package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"usersync/internal/handlers"
	"usersync/internal/models"
	"usersync/internal/repositories"
	"usersync/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupApp sets up a Fiber app backed by an in-memory SQLite Users table.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	return setupAppWithLogger(t, zap.NewNop())
}

func setupAppWithLogger(t *testing.T, log *zap.Logger) (*fiber.App, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	repo := repositories.NewGORMUserRepository(db)
	seedUsersForTest(t, repo)

	return handlers.NewApp(services.NewDisplayService(repo), log), db
}

func seedUsersForTest(t *testing.T, repo repositories.UserRepository) {
	users := []models.User{
		{ID: "042", FirstName: "Ann", LastName: "Lee", Age: 30, Gender: "female", YearOfBirth: 1994},
		{ID: "007", FirstName: "Bob", LastName: "Ray", Age: 20, Gender: "male", YearOfBirth: 2004},
	}
	for i := range users {
		require.NoError(t, repo.Insert(&users[i]))
	}
}

func TestHealth(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestGetUsers(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/users", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var users []handlers.UserResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	require.Len(t, users, 2)
	assert.Equal(t, "007", users[0].UserID)
	assert.Equal(t, handlers.UserResponse{
		UserID: "042", FirstName: "Ann", LastName: "Lee", Age: 30, Gender: "female", YearOfBirth: 1994,
	}, users[1])
}

func TestGetUserByID(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/users/042", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var user handlers.UserResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	resp.Body.Close()
	assert.Equal(t, "Ann", user.FirstName)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/users/999", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var notFound map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&notFound))
	resp.Body.Close()
	assert.Equal(t, "No data found for User ID: 999", notFound["message"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/users/4a2", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetUsers_DatabaseError(t *testing.T) {
	app, db := setupApp(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/users", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestGetUserByID_DatabaseErrorLogsID(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	app, db := setupAppWithLogger(t, zap.New(core))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	for _, path := range []string{"/api/v1/users/042", "/api/v1/users/999"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	}

	entries := logs.FilterMessage("failed to get user").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "042", entries[0].ContextMap()["user_id"])
	assert.Equal(t, "999", entries[1].ContextMap()["user_id"])
}
