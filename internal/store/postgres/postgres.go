package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const schema = `
	CREATE TABLE IF NOT EXISTS ledger_blobs (
		shop_id    TEXT        NOT NULL,
		key        TEXT        NOT NULL,
		payload    JSONB       NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (shop_id, key)
	)
`

// Store keeps blobs in one row per (shop, key).
type Store struct {
	db     *sql.DB
	shopID string
}

func New(ctx context.Context, databaseURL string, shopID string) (*Store, error) {
	if shopID == "" {
		shopID = "main-shop"
	}
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(2)
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Store{db: db, shopID: shopID}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM ledger_blobs WHERE shop_id = $1 AND key = $2
	`, s.shopID, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

const upsert = `
	INSERT INTO ledger_blobs (shop_id, key, payload, updated_at)
	VALUES ($1, $2, $3::jsonb, now())
	ON CONFLICT (shop_id, key)
	DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
`

func (s *Store) Save(ctx context.Context, key string, blob []byte) error {
	_, err := s.db.ExecContext(ctx, upsert, s.shopID, key, string(blob))
	return describe(err)
}

func (s *Store) SaveBatch(ctx context.Context, blobs map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for key, blob := range blobs {
		if _, err := tx.ExecContext(ctx, upsert, s.shopID, key, string(blob)); err != nil {
			return fmt.Errorf("save %s: %w", key, describe(err))
		}
	}
	return tx.Commit()
}

// describe adds the SQLSTATE to driver errors so logs say which constraint fired.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("postgres %s: %w", pgErr.Code, err)
	}
	return err
}
