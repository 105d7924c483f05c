package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"stakingLedger/internal/storage"
)

// CommitFunc is called with the full post-commit state before it becomes
// visible. A non-nil error aborts the commit.
type CommitFunc func(records []storage.Record) error

// Store keeps the account space in memory. Updates are serialized.
type Store struct {
	mu       sync.RWMutex
	records  map[common.Address]storage.Record
	onCommit CommitFunc
}

func New() *Store {
	return &Store{records: make(map[common.Address]storage.Record)}
}

// NewWithRecords seeds the store and registers a commit hook.
func NewWithRecords(records []storage.Record, onCommit CommitFunc) *Store {
	s := New()
	for _, rec := range records {
		s.records[rec.Address] = cloneRecord(rec)
	}
	s.onCommit = onCommit
	return s
}

func (s *Store) Update(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{base: s.records, writes: make(map[common.Address]storage.Record)}
	if err := fn(t); err != nil {
		return err
	}
	if len(t.writes) == 0 {
		return nil
	}

	if s.onCommit != nil {
		next := make(map[common.Address]storage.Record, len(s.records)+len(t.writes))
		for addr, rec := range s.records {
			next[addr] = rec
		}
		for addr, rec := range t.writes {
			next[addr] = rec
		}
		if err := s.onCommit(sorted(next)); err != nil {
			return err
		}
	}

	for addr, rec := range t.writes {
		s.records[addr] = rec
	}
	return nil
}

func (s *Store) View(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&tx{base: s.records, readOnly: true})
}

// Records returns a copy of every record ordered by address.
func (s *Store) Records() []storage.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sorted(s.records)
}

func (s *Store) Close() {}

type tx struct {
	base     map[common.Address]storage.Record
	writes   map[common.Address]storage.Record
	readOnly bool
}

func (t *tx) Load(_ context.Context, addr common.Address) (storage.Record, bool, error) {
	if rec, ok := t.writes[addr]; ok {
		return cloneRecord(rec), true, nil
	}
	rec, ok := t.base[addr]
	if !ok {
		return storage.Record{}, false, nil
	}
	return cloneRecord(rec), true, nil
}

func (t *tx) Save(_ context.Context, rec storage.Record) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	t.writes[rec.Address] = cloneRecord(rec)
	return nil
}

func cloneRecord(rec storage.Record) storage.Record {
	rec.Data = bytes.Clone(rec.Data)
	return rec
}

func sorted(records map[common.Address]storage.Record) []storage.Record {
	out := make([]storage.Record, 0, len(records))
	for _, rec := range records {
		out = append(out, cloneRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	return out
}
