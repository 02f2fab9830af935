package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const journalFile = "receipts.json"

// EventRecord is a bank event decoded from a confirmed transaction.
type EventRecord struct {
	Name       string `json:"name"`
	User       string `json:"user"`
	Amount     string `json:"amount"`
	NewBalance string `json:"new_balance"`
	Index      string `json:"index"`
}

// Receipt is one confirmed bank transaction, as remembered by the client.
type Receipt struct {
	ID         string        `json:"id"`
	Session    string        `json:"session"`
	Action     string        `json:"action"`
	Account    string        `json:"account"`
	ChainID    uint64        `json:"chain_id"`
	TxHash     string        `json:"tx_hash"`
	Block      uint64        `json:"block"`
	Amount     string        `json:"amount,omitempty"`
	Target     string        `json:"target,omitempty"`
	Events     []EventRecord `json:"events,omitempty"`
	RecordedAt int64         `json:"recorded_at"`
}

// Journal stores receipts as a JSON array in the data directory.
// It is informational only; the ledger stays the source of truth.
type Journal struct {
	path string
	mu   sync.Mutex
}

// OpenJournal returns the journal of dataDir, creating the directory if needed.
func OpenJournal(dataDir string) (*Journal, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Journal{path: filepath.Join(dataDir, journalFile)}, nil
}

// Path returns the journal file location.
func (j *Journal) Path() string {
	return j.path
}

// Append records r, filling its ID and timestamp when empty.
func (j *Journal) Append(r Receipt) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	receipts, err := j.read()
	if err != nil {
		return err
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.RecordedAt == 0 {
		r.RecordedAt = time.Now().Unix()
	}
	receipts = append(receipts, r)

	jsonData, err := json.MarshalIndent(receipts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal receipts: %w", err)
	}

	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, jsonData, 0600); err != nil {
		return fmt.Errorf("failed to write receipts file: %w", err)
	}
	if err := os.Rename(tmp, j.path); err != nil {
		return fmt.Errorf("failed to replace receipts file: %w", err)
	}

	return nil
}

// List returns every recorded receipt, oldest first.
func (j *Journal) List() ([]Receipt, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.read()
}

func (j *Journal) read() ([]Receipt, error) {
	if _, statErr := os.Stat(j.path); os.IsNotExist(statErr) {
		return nil, nil
	}

	fileData, err := os.ReadFile(j.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read receipts file: %w", err)
	}

	var receipts []Receipt
	if err := json.Unmarshal(fileData, &receipts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal receipts: %w", err)
	}

	return receipts, nil
}
