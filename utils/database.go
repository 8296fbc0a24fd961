// Package utils provides database utilities shared by persistent stores.
//
// This file handles opening database/sql connections for the supported
// drivers (sqlite, postgres, mysql) and verifying them with a short ping.
package utils

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// DBType identifies a supported SQL driver
type DBType string

const (
	DBTypeSQLite   DBType = "sqlite"
	DBTypePostgres DBType = "postgres"
	DBTypeMySQL    DBType = "mysql"
)

// ParseDBType normalizes a driver name
func ParseDBType(name string) (DBType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return DBTypeSQLite, nil
	case "postgres", "postgresql", "pg":
		return DBTypePostgres, nil
	case "mysql", "mariadb":
		return DBTypeMySQL, nil
	}
	return "", fmt.Errorf("unsupported database type %q", name)
}

// OpenDatabase opens and pings a database connection
func OpenDatabase(ctx context.Context, dbType DBType, dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s dsn is required", dbType)
	}

	if dbType == DBTypeSQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		absPath, err := filepath.Abs(dsn)
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = absPath
	}

	db, err := sql.Open(string(dbType), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", dbType, err)
	}

	// SQLite single-writer; also keeps ":memory:" on one connection
	if dbType == DBTypeSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s db: %w", dbType, err)
	}

	return db, nil
}

// Placeholder returns the n-th (1-based) bind parameter for the dialect
func Placeholder(dbType DBType, n int) string {
	if dbType == DBTypePostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
