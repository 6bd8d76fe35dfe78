package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Config contains database connection options.
type Config struct {
	Driver   string
	Path     string // SQLite database path when Driver == sqlite
	DSN      string // Optional DSN override
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	Options  map[string]string
}

// DemoMode reports whether the configuration lacks the credentials required
// for a hosted database, in which case the server runs against a volatile
// in-memory store seeded with demo data.
func (c Config) DemoMode() bool {
	switch strings.ToLower(strings.TrimSpace(c.Driver)) {
	case "demo":
		return true
	case "postgres", "postgresql", "mysql":
		return c.DSN == "" && (c.User == "" || c.Name == "")
	default:
		return false
	}
}

// Open initialises a gorm.DB using the provided configuration.
func Open(cfg Config) (*gorm.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = "sqlite"
	}

	if cfg.DemoMode() {
		return openSQLite(Config{Driver: "sqlite", Path: ":memory:"})
	}

	switch driver {
	case "sqlite":
		return openSQLite(cfg)
	case "postgres", "postgresql":
		return openPostgres(cfg)
	case "mysql":
		return openMySQL(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate convenience helper used during application start-up.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return nil
}
