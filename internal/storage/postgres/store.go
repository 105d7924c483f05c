package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"stakingLedger/internal/storage"
)

//go:embed schema.sql
var schema string

// Options tunes the initial connection.
type Options struct {
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       *zap.Logger
}

// Store keeps the account space in the accounts table.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string, opts Options) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	err = withRetry(ctx, opts.MaxRetries, opts.RetryBackoff, func(ctx context.Context, attempt int) error {
		if err := pool.Ping(ctx); err != nil {
			logger.Warn("postgres ping failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the accounts table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Update runs fn in a serializable transaction. Rows read through the
// transaction stay locked until commit. Serialization failures are returned
// unchanged.
func (s *Store) Update(ctx context.Context, fn func(storage.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx, lock: true})
	})
}

func (s *Store) View(ctx context.Context, fn func(storage.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

type pgTx struct {
	tx   pgx.Tx
	lock bool
}

func (t *pgTx) Load(ctx context.Context, addr common.Address) (storage.Record, bool, error) {
	query := `SELECT kind, data FROM accounts WHERE address = $1`
	if t.lock {
		query += ` FOR UPDATE`
	}

	var (
		kind string
		data []byte
	)
	if err := t.tx.QueryRow(ctx, query, addr.Hex()).Scan(&kind, &data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Record{}, false, nil
		}
		return storage.Record{}, false, err
	}
	return storage.Record{Address: addr, Kind: storage.Kind(kind), Data: data}, true, nil
}

func (t *pgTx) Save(ctx context.Context, rec storage.Record) error {
	if !t.lock {
		return storage.ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO accounts (address, kind, data, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (address)
		DO UPDATE SET
			kind = EXCLUDED.kind,
			data = EXCLUDED.data,
			updated_at = now()
	`, rec.Address.Hex(), string(rec.Kind), []byte(rec.Data))
	return err
}
