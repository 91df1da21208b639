package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Open initializes the connection pool from the environment.
// DB_DRIVER selects the backend ("mysql" in production, "sqlite" for
// local development); DB_DSN is the driver-specific connection string.
func Open() (*sql.DB, error) {
	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "mysql"
	}

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		switch driver {
		case "mysql":
			dsn = "root:root@tcp(127.0.0.1:3306)/pointsdesk?parseTime=true"
		case "sqlite":
			dsn = "pointsdesk.db"
		default:
			return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
		}
	}

	return OpenWithDSN(driver, dsn)
}

// OpenWithDSN creates and configures a DB connection pool for any
// supported driver/DSN pair. Used by both Open and the test database.
func OpenWithDSN(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	// SQLite gets a single connection because an in-memory database
	// exists per-connection; MySQL gets the usual pool settings.
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		log.Printf("Error connecting to database with DSN: %v", err)
		return nil, err
	}

	return db, nil
}
