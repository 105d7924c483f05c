package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofrs/flock"

	"stakingLedger/internal/storage"
	"stakingLedger/internal/storage/memory"
)

const (
	snapshotVersion = 1
	lockRetryDelay  = 20 * time.Millisecond
)

// Snapshot is the on-disk layout of the account space.
type Snapshot struct {
	Version   int       `json:"version"`
	UpdatedAt string    `json:"updated_at"`
	Accounts  []Account `json:"accounts"`
}

type Account struct {
	Address common.Address  `json:"address"`
	Kind    storage.Kind    `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

// Store keeps the account space in a JSON snapshot. Every Update and View
// holds a lock on <path>.lock and works on the snapshot as it is on disk, so
// separate processes sharing one file are serialized.
type Store struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

// Open checks the snapshot at path, if any.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("state file path is required")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	s := &Store{path: path, lock: flock.New(path + ".lock")}
	if err := s.withLock(context.Background(), false, func() error {
		_, err := load(path)
		return err
	}); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

// Update runs fn against the current snapshot and rewrites it on success.
func (s *Store) Update(ctx context.Context, fn func(storage.Tx) error) error {
	return s.withLock(ctx, true, func() error {
		records, err := load(s.path)
		if err != nil {
			return err
		}
		return memory.NewWithRecords(records, s.save).Update(ctx, fn)
	})
}

func (s *Store) View(ctx context.Context, fn func(storage.Tx) error) error {
	return s.withLock(ctx, false, func() error {
		records, err := load(s.path)
		if err != nil {
			return err
		}
		return memory.NewWithRecords(records, nil).View(ctx, fn)
	})
}

func (s *Store) Close() {}

func (s *Store) withLock(ctx context.Context, exclusive bool, fn func() error) error {
	// The flock handle is shared by goroutines using this Store.
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = s.lock.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = s.lock.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return fmt.Errorf("lock state file: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock state file: not acquired")
	}
	defer s.lock.Unlock()

	return fn()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	return nil
}

func load(path string) ([]storage.Record, error) {
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat state file: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("state file path is a directory")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported state file version %d", snap.Version)
	}

	records := make([]storage.Record, 0, len(snap.Accounts))
	for _, acc := range snap.Accounts {
		records = append(records, storage.Record{Address: acc.Address, Kind: acc.Kind, Data: acc.Data})
	}
	return records, nil
}

func (s *Store) save(records []storage.Record) error {
	if err := ensureDir(s.path); err != nil {
		return err
	}

	snap := Snapshot{
		Version:   snapshotVersion,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Accounts:  make([]Account, 0, len(records)),
	}
	for _, rec := range records {
		snap.Accounts = append(snap.Accounts, Account{Address: rec.Address, Kind: rec.Kind, Data: rec.Data})
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}
