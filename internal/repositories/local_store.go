package repositories

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"usersync/internal/models"
	"usersync/internal/validation"
)

// ErrStoreCorrupt is reported when the local store cannot be decoded.
var ErrStoreCorrupt = errors.New("local store is corrupt")

// LocalStore is the JSON document store mapping user ID to record. Every save
// rewrites the whole file.
type LocalStore struct {
	fs     afero.Fs
	logger *zap.Logger
}

// NewLocalStore creates a LocalStore on fs. A nil logger discards warnings.
func NewLocalStore(fs afero.Fs, logger *zap.Logger) *LocalStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalStore{
		fs:     fs,
		logger: logger,
	}
}

// Initialize creates an empty store at path if nothing exists there yet.
func (s *LocalStore) Initialize(path string) error {
	exists, err := afero.Exists(s.fs, path)
	if err != nil {
		return fmt.Errorf("failed to stat local store %s: %w", path, err)
	}
	if exists {
		return nil
	}
	return s.Save(path, models.UserMap{})
}

// Load returns the mapping stored at path. It never fails: absent, unreadable
// or malformed content yields an empty mapping and a logged warning. Gender is
// normalized to its stored form. Entries that still fail validation are kept
// and logged.
func (s *LocalStore) Load(path string) models.UserMap {
	users, err := s.read(path)
	if err != nil {
		s.logger.Warn("local store unusable, starting with an empty data structure",
			zap.String("path", path), zap.Error(err))
		return models.UserMap{}
	}
	return users
}

func (s *LocalStore) read(path string) (models.UserMap, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read local store: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrStoreCorrupt)
	}

	var raw map[string]models.User
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
	}
	// A literal JSON null decodes into a nil map.
	if raw == nil {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrStoreCorrupt)
	}

	users := make(models.UserMap, len(raw))
	for id, u := range raw {
		u.ID = id
		u.Gender = validation.NormalizeGender(u.Gender)
		if err := validation.ValidateUser(u); err != nil {
			s.logger.Warn("invalid local entry", zap.String("user_id", id), zap.Error(err))
		}
		users[id] = u
	}
	return users, nil
}

// Save serializes the full mapping and replaces the file at path. The data is
// written to a temporary file in the same directory first and then renamed.
func (s *LocalStore) Save(path string, users models.UserMap) error {
	if users == nil {
		users = models.UserMap{}
	}
	data, err := json.MarshalIndent(users, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode local store: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write local store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to close local store: %w", err)
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to replace local store %s: %w", path, err)
	}
	if err := s.fs.Chmod(path, os.FileMode(0o644)); err != nil {
		s.logger.Debug("could not set local store permissions", zap.String("path", path), zap.Error(err))
	}
	return nil
}
