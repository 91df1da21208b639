package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// The schema is written once in a neutral dialect and rewritten per
// driver. Only the auto-increment primary key syntax differs between
// MySQL and SQLite for the types we use.
const schemaTemplate = `
CREATE TABLE IF NOT EXISTS users (
	id %[1]s,
	username VARCHAR(100) NOT NULL UNIQUE,
	full_name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL,
	password_hash VARCHAR(255) NOT NULL,
	position VARCHAR(50) NOT NULL,
	is_activated BOOLEAN NOT NULL DEFAULT 1,
	is_banned BOOLEAN NOT NULL DEFAULT 0,
	ban_reason TEXT,
	ban_message TEXT,
	ban_duration VARCHAR(20),
	ban_date DATETIME,
	unban_date DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS catalogue_items (
	id %[1]s,
	item_code VARCHAR(100) NOT NULL UNIQUE,
	item_name VARCHAR(255) NOT NULL,
	description TEXT,
	purpose TEXT,
	specifications TEXT,
	legend VARCHAR(50) NOT NULL,
	pricing_type VARCHAR(50) NOT NULL,
	points INT NOT NULL DEFAULT 0,
	multiplier DOUBLE NOT NULL DEFAULT 0,
	price DOUBLE NOT NULL DEFAULT 0,
	stock INT NOT NULL DEFAULT 0,
	committed_stock INT NOT NULL DEFAULT 0,
	min_order_qty INT NOT NULL DEFAULT 1,
	max_order_qty INT NOT NULL DEFAULT 0,
	image_url TEXT,
	is_archived BOOLEAN NOT NULL DEFAULT 0,
	archived_at DATETIME,
	archived_by VARCHAR(255),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS redemption_requests (
	id %[1]s,
	reference_no VARCHAR(64) NOT NULL UNIQUE,
	requested_by BIGINT NOT NULL,
	requested_by_name VARCHAR(255) NOT NULL,
	requested_for VARCHAR(255) NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
	sales_approval_status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
	marketing_approval_status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
	processing_status VARCHAR(20) NOT NULL DEFAULT 'NOT_PROCESSED',
	total_points INT NOT NULL DEFAULT 0,
	remarks TEXT,
	rejection_reason TEXT,
	withdrawal_reason TEXT,
	reviewed_by VARCHAR(255),
	reviewed_at DATETIME,
	processed_by VARCHAR(255),
	processed_at DATETIME,
	cancelled_by VARCHAR(255),
	cancelled_at DATETIME,
	withdrawn_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS redemption_request_items (
	id %[1]s,
	request_id BIGINT NOT NULL,
	variant_code VARCHAR(100) NOT NULL,
	catalogue_item_name VARCHAR(255) NOT NULL,
	quantity INT NOT NULL,
	points_per_item INT NOT NULL,
	total_points INT NOT NULL
);

CREATE TABLE IF NOT EXISTS inventory_items (
	id %[1]s,
	name VARCHAR(255) NOT NULL,
	category VARCHAR(100) NOT NULL,
	stock INT NOT NULL DEFAULT 0,
	reorder_level INT NOT NULL DEFAULT 0,
	last_updated DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS points_transactions (
	id %[1]s,
	user_id BIGINT NOT NULL,
	tx_type VARCHAR(20) NOT NULL,
	amount INT NOT NULL,
	notes TEXT,
	created_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables if they do not exist yet.
func EnsureSchema(db *sql.DB, driver string) error {
	var pk string
	switch driver {
	case "mysql":
		pk = "BIGINT AUTO_INCREMENT PRIMARY KEY"
	case "sqlite":
		pk = "INTEGER PRIMARY KEY AUTOINCREMENT"
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}

	ddl := fmt.Sprintf(schemaTemplate, pk)
	for _, stmt := range strings.Split(ddl, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
