package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/robzajac581/glowra-search-api-sub002/internal/config"
)

// Store wraps the Postgres connection holding the canonical clinic set, the
// place enrichment rows, and the reconciliation run history.
type Store struct {
	DB  *sql.DB
	log *zap.Logger
}

// Open connects using the PG* environment variables and verifies the
// connection with a ping.
func Open(log *zap.Logger) (*Store, error) {
	host := config.GetEnv("PGHOST", "localhost")
	port := config.GetEnv("PGPORT", "5432")
	user := config.GetEnv("PGUSER", "glowra")
	password := config.GetEnv("PGPASSWORD", "")
	dbname := config.GetEnv("PGDATABASE", "glowra")
	sslmode := config.GetEnv("PGSSLMODE", "disable")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(config.GetEnvInt("PGMAXCONNS", 10))
	db.SetMaxIdleConns(config.GetEnvInt("PGIDLECONNS", 5))
	db.SetConnMaxLifetime(time.Hour)

	if log == nil {
		log = zap.NewNop()
	}

	return &Store{DB: db, log: log}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.DB.Close()
}
