// Package database opens the remote Users table and scopes its lifetime.
package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"usersync/internal/config"
	"usersync/internal/models"
	"usersync/internal/repositories"
)

// Open connects to the configured SQL engine. The memory driver has no
// database and is rejected here; use OpenRepository for it.
func Open(cfg config.RemoteConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.ConnectionString())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.ConnectionString())
	default:
		return nil, fmt.Errorf("driver %q has no SQL database", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	if cfg.AutoCreate {
		if err := db.AutoMigrate(&models.User{}); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to create Users table: %w", err)
		}
	}
	return db, nil
}

// Session is one acquired connection to the remote table.
type Session struct {
	Users repositories.UserRepository
	close func() error
}

// Close releases the connection. It is safe to call more than once.
func (s *Session) Close() error {
	if s.close == nil {
		return nil
	}
	closeFn := s.close
	s.close = nil
	return closeFn()
}

// OpenSession acquires a session for cfg. The caller must Close it.
func OpenSession(cfg config.RemoteConfig) (*Session, error) {
	if cfg.Driver == config.DriverMemory {
		return &Session{Users: repositories.NewMockUserRepository()}, nil
	}

	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	return &Session{
		Users: repositories.NewGORMUserRepository(db),
		close: sqlDB.Close,
	}, nil
}

// WithSession opens a session, runs fn and closes the session on every exit
// path, including a panic inside fn. The error from fn wins over a close error.
func WithSession(cfg config.RemoteConfig, logger *zap.Logger, fn func(*Session) error) (err error) {
	session, err := OpenSession(cfg)
	if err != nil {
		return err
	}
	logger.Info("connected to remote store", zap.String("driver", cfg.Driver))

	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			logger.Warn("failed to close remote store", zap.Error(closeErr))
			if err == nil {
				err = fmt.Errorf("failed to close remote store: %w", closeErr)
			}
		}
	}()

	return fn(session)
}
