package repositories

import (
	"errors"

	"usersync/internal/models"
)

// ErrUserNotFound is returned by GetByID when no row has the given ID.
var ErrUserNotFound = errors.New("user not found")

// UserRepository is the remote store adapter for the Users table.
//
// Exists and Insert are deliberately separate calls: the caller checks, then
// inserts. They are not atomic, so two writers racing on the same ID can both
// insert. Only one session is expected to write at a time.
type UserRepository interface {
	Exists(id string) (bool, error)
	Insert(user *models.User) error
	GetAll() ([]models.User, error)
	GetByID(id string) (*models.User, error)
}
