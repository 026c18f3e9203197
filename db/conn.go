// Package db opens the database used for users, uploads and sessions
package db

import (
	"bitwise74/unmask-api/internal/model"
	"bitwise74/unmask-api/pkg/util"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New opens the database described by typ ("sqlite" or "postgres") and
// migrates all tables
func New(typ, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch typ {
	case "sqlite":
		// If running in a docker container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if util.IsRunningInDocker() && isFilePath(dsn) {
			if _, err := os.Stat(dsn); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", dsn)
			}
		}

		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type %q", typ)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database, %w", typ, err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// isFilePath reports whether dsn names a plain SQLite file. URI and memory
// DSNs are opened as given
func isFilePath(dsn string) bool {
	if dsn == "" || dsn == ":memory:" {
		return false
	}

	return !strings.HasPrefix(dsn, "file:") && !strings.Contains(dsn, "mode=memory")
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(model.User{}, model.Upload{}, model.Session{})
	if err != nil {
		return fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return nil
}
