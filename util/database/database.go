package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// New opens a bounded connection pool against the given postgres DSN.
func New(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

type TxFunc func(*sql.Tx) error

// Runner executes fn inside a transaction. Services hold a Runner instead of
// the raw *sql.DB so tests can substitute one that hands fn a nil tx.
type Runner func(ctx context.Context, fn TxFunc) error

func NewRunner(db *sql.DB) Runner {
	return func(ctx context.Context, fn TxFunc) error {
		return WithTx(ctx, db, fn)
	}
}

// WithTx runs fn in a transaction and guarantees commit or rollback on every
// exit path, including panics.
func WithTx(ctx context.Context, db *sql.DB, fn TxFunc) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("can't begin tx: %w", err)
	}

	defer func() {
		p := recover()
		switch {
		case p != nil:
			_ = tx.Rollback()
			panic(p)

		case err != nil:
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("can't rollback tx: %w. original error: %w", rbErr, err)
			}

		default:
			if err = tx.Commit(); err != nil {
				err = fmt.Errorf("can't commit tx: %w", err)
			}
		}
	}()

	err = fn(tx)
	return
}
