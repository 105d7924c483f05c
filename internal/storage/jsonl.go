package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"stakingLedger/internal/model"
)

var ErrMissingEventID = errors.New("journal event has no id")

// Journal is a sink for committed ledger events.
type Journal interface {
	PutEvents(events []model.Event) error
}

// NopJournal discards events.
type NopJournal struct{}

func (NopJournal) PutEvents([]model.Event) error { return nil }

// JsonlJournal appends ledger events to a JSONL file.
type JsonlJournal struct {
	path string
	mu   sync.Mutex
}

func NewJsonlJournal(path string) *JsonlJournal {
	return &JsonlJournal{path: path}
}

// PutEvents appends a batch of events as JSON lines and syncs the file
// before returning.
func (s *JsonlJournal) PutEvents(events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	for i, event := range events {
		if event.ID == "" {
			return fmt.Errorf("event %d (%s): %w", i, event.Op, ErrMissingEventID)
		}
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, event := range events {
		line, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync journal: %w", err)
	}

	return nil
}
