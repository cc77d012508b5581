package database

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Eursukkul/studio-booking/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects with the given driver and migrates the schema.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres, "":
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(sqliteDSN(dsn))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(os.Stdout),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if driver == DriverSQLite {
		// sqlite has no row locks; one connection serialises every transaction.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		sqlDB.SetConnMaxIdleTime(1 * time.Minute)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates the tables and the partial unique indexes that back the
// one-active-booking and one-queued-waitlist-entry rules.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.ClassSession{}, &models.Booking{}, &models.WaitlistEntry{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_booking_active
		ON bookings (session_id, user_id)
		WHERE status IN ('confirmed', 'pending')`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_waitlist_queued
		ON waitlist_entries (session_id, user_id)
		WHERE status IN ('waiting', 'notified')`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// newGormLogger reports slow queries and errors, but not the expected misses
// behind First lookups.
func newGormLogger(w io.Writer) logger.Interface {
	return logger.New(log.New(w, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
