// Package database opens the MySQL pool behind the layout repository.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Pool sizes the connection pool.  Zero fields select the defaults.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	// PingAttempts bounds how often Open pings before giving up, for
	// databases that come up after the service.
	PingAttempts int
}

func (p Pool) withDefaults() Pool {
	if p.MaxOpen <= 0 {
		p.MaxOpen = 10 // layout saves are short transactions
	}
	if p.MaxIdle <= 0 || p.MaxIdle > p.MaxOpen {
		p.MaxIdle = p.MaxOpen
	}
	if p.MaxLifetime <= 0 {
		p.MaxLifetime = 30 * time.Minute
	}
	if p.PingAttempts <= 0 {
		p.PingAttempts = 5
	}
	return p
}

// Open connects to MySQL with dsn and waits until the server answers.
func Open(ctx context.Context, dsn string, pool Pool) (*sql.DB, error) {
	pool = pool.withDefaults()
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(pool.MaxOpen)
	db.SetMaxIdleConns(pool.MaxIdle)
	db.SetConnMaxLifetime(pool.MaxLifetime)

	if err := waitForPing(ctx, db, pool.PingAttempts, 500*time.Millisecond); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// waitForPing pings up to attempts times, doubling the pause between tries.
func waitForPing(ctx context.Context, db *sql.DB, attempts int, pause time.Duration) error {
	var err error
	for i := 1; i <= attempts; i++ {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pctx)
		cancel()
		if err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		log.Printf("mysql: ping %d/%d failed: %v", i, attempts, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
		pause *= 2
	}
	return fmt.Errorf("mysql: unreachable after %d attempts: %w", attempts, err)
}
