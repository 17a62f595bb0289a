package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/viper"
)

// InitDB opens the ledger database and verifies the connection. The pool
// leans small on purpose: every balance mutation is a short single-row unit
// of work, so a handful of connections covers the write path, and a long
// max lifetime keeps pq connections stable across the approval queues' idle
// stretches.
func InitDB() (*sql.DB, error) {
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.name", "token_ledger")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 20)
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		viper.GetString("database.host"),
		viper.GetString("database.port"),
		viper.GetString("database.user"),
		viper.GetString("database.password"),
		viper.GetString("database.name"),
		viper.GetString("database.ssl_mode"),
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// The ledger usually races its database on cold start; retry before
	// giving up.
	var pingErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if pingErr = db.Ping(); pingErr == nil {
			break
		}
		log.Printf("[DB] Ping attempt %d failed: %v", attempt, pingErr)
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	if pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", pingErr)
	}

	db.SetMaxOpenConns(viper.GetInt("database.max_open_conns"))
	db.SetMaxIdleConns(viper.GetInt("database.max_idle_conns"))
	db.SetConnMaxLifetime(viper.GetDuration("database.conn_max_lifetime"))

	log.Println("[DB] Token ledger database connection established")
	return db, nil
}

// InitDatabase initializes the database and aborts the process on failure.
func InitDatabase() *sql.DB {
	db, err := InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	return db
}
