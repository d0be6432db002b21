package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"

	"opsboard/internal/infrastructure/database"
)

// SetupTestDB configura una base de datos de prueba.
// Espera una BD MySQL en localhost:3306 llamada 'opsboard_test', o el DSN de
// OPSBOARD_TEST_DSN.
func SetupTestDB(t *testing.T) *database.DB {
	dsn := os.Getenv("OPSBOARD_TEST_DSN")
	if dsn == "" {
		dsn = "root:@tcp(localhost:3306)/opsboard_test?parseTime=true"
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// Verify connection
	err = db.Ping()
	if err != nil {
		t.Skipf("test database not available: %v", err)
	}

	return database.New(db, database.MySQL)
}

// CleanupTestDB limpia la BD de prueba
func CleanupTestDB(t *testing.T, db *database.DB) {
	if db == nil {
		return
	}

	tables := []string{"product_pricing", "product_variations", "orders", "products", "stores"}
	for _, table := range tables {
		_, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

// SetupTestTables crea las tablas necesarias para los tests
func SetupTestTables(t *testing.T, db *database.DB) {
	createStoresTable := `
	CREATE TABLE IF NOT EXISTS stores (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		default_fee_percent DECIMAL(5,2) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`

	createProductsTable := `
	CREATE TABLE IF NOT EXISTS products (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		store_id VARCHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		description TEXT,
		image_url VARCHAR(1024) NOT NULL DEFAULT '',
		link VARCHAR(1024) NOT NULL DEFAULT '',
		status VARCHAR(32) NOT NULL DEFAULT 'active',
		list_price DECIMAL(10,2),
		discount_percent DECIMAL(5,2),
		sourcing_cost DECIMAL(10,2),
		supplier VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_store (store_id)
	)`

	createVariationsTable := `
	CREATE TABLE IF NOT EXISTS product_variations (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		product_id VARCHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		image_url VARCHAR(1024) NOT NULL DEFAULT '',
		price DECIMAL(10,2),
		position INT NOT NULL DEFAULT 0,
		INDEX idx_product (product_id)
	)`

	createPricingTable := `
	CREATE TABLE IF NOT EXISTS product_pricing (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		product_id VARCHAR(36) NOT NULL,
		region VARCHAR(32) NOT NULL,
		price DECIMAL(10,2) NOT NULL,
		lead_time VARCHAR(64) NOT NULL DEFAULT '',
		seq INT NOT NULL AUTO_INCREMENT UNIQUE,
		UNIQUE KEY uq_product_region (product_id, region)
	)`

	createOrdersTable := `
	CREATE TABLE IF NOT EXISTS orders (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		store_id VARCHAR(36) NOT NULL,
		ordered_at DATE,
		customer_name VARCHAR(255) NOT NULL DEFAULT '',
		address TEXT,
		product_name VARCHAR(255) NOT NULL DEFAULT '',
		product_id VARCHAR(36),
		variation_id VARCHAR(36),
		product_link VARCHAR(1024) NOT NULL DEFAULT '',
		image_url VARCHAR(1024) NOT NULL DEFAULT '',
		size VARCHAR(64) NOT NULL DEFAULT '',
		color VARCHAR(64) NOT NULL DEFAULT '',
		material VARCHAR(64) NOT NULL DEFAULT '',
		quantity INT NOT NULL DEFAULT 1,
		paid TINYINT(1) NOT NULL DEFAULT 0,
		shipped TINYINT(1) NOT NULL DEFAULT 0,
		delivered TINYINT(1) NOT NULL DEFAULT 0,
		marketplace_completed TINYINT(1) NOT NULL DEFAULT 0,
		tracking_added TINYINT(1) NOT NULL DEFAULT 0,
		shipped_message_sent TINYINT(1) NOT NULL DEFAULT 0,
		delivered_message_sent TINYINT(1) NOT NULL DEFAULT 0,
		acknowledged TINYINT(1) NOT NULL DEFAULT 0,
		out_of_stock TINYINT(1) NOT NULL DEFAULT 0,
		tracking_code VARCHAR(128) NOT NULL DEFAULT '',
		sold_price DECIMAL(10,2) NOT NULL DEFAULT 0,
		fee_percent DECIMAL(5,2) NOT NULL DEFAULT 0,
		sourcing_cost DECIMAL(10,2) NOT NULL DEFAULT 0,
		profit DECIMAL(10,2) NOT NULL DEFAULT 0,
		supplier VARCHAR(255) NOT NULL DEFAULT '',
		notes TEXT,
		issue TEXT,
		resolution TEXT,
		internal_notes TEXT,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		INDEX idx_store (store_id),
		INDEX idx_product (product_id)
	)`

	tables := []struct {
		name  string
		query string
	}{
		{"stores", createStoresTable},
		{"products", createProductsTable},
		{"product_variations", createVariationsTable},
		{"product_pricing", createPricingTable},
		{"orders", createOrdersTable},
	}

	for _, tbl := range tables {
		_, err := db.Exec(tbl.query)
		if err != nil {
			t.Logf("failed to create table %s: %v", tbl.name, err)
		}
	}
}
