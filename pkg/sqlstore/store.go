// Package sqlstore is a reference persisted-entity store backed by a
// MySQL-compatible database. Table implements crud.Model for entities
// with auto-increment integer primary keys; Grants implements
// identity.Checker over a permission grant table.
package sqlstore

import (
	"crypto/tls"
	"database/sql"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
)

var tlsOnce sync.Once

// Open opens a database handle with the pool settings tuned for
// request-per-call workloads.
//
// MaxIdleConns matches MaxOpenConns to prevent port exhaustion: with
// fewer idle slots, connections get closed and reopened frequently under
// load, which burns through ephemeral ports.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(100)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// OpenFromEnv builds the DSN from DB_HOST, DB_PORT, DB_USER, DB_PASSWORD
// and DB_NAME and opens the handle. Remote hosts get a TLS config
// registered with the server name, local ones connect without TLS.
func OpenFromEnv() (*sql.DB, error) {
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	database := os.Getenv("DB_NAME")

	if port == "" {
		port = "3306"
	}
	if database == "" {
		database = "servicekit"
	}

	tlsParam := ""
	if host != "" && host != "127.0.0.1" && host != "localhost" {
		// sync.Once prevents panic on duplicate registration in tests
		tlsOnce.Do(func() {
			if err := mysql.RegisterTLSConfig("servicekit", &tls.Config{
				MinVersion: tls.VersionTLS12,
				ServerName: host,
			}); err != nil {
				log.Printf("Failed to register TLS config: %v\n", err)
			}
		})
		tlsParam = "&tls=servicekit"
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local%s",
		user, password, host, port, database, tlsParam)
	return Open(dsn)
}
