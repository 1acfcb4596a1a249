package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/suar-net/suar-reactive/internal/config"
	"github.com/suar-net/suar-reactive/internal/repository"
)

func ConnectDB(cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verified database connection: %v", err)
	}

	if _, err = db.ExecContext(ctx, repository.Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate request_history: %v", err)
	}

	return db, nil
}
