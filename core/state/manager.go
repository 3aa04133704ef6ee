package state

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"tokendrop/storage"
)

// Manager provides typed access to the distribution tables held in a
// key-value store. Reads go straight to the store; every mutation of an
// operation is applied through a single batch.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// Database exposes the underlying store.
func (m *Manager) Database() storage.Database {
	return m.db
}

func (m *Manager) loadRLP(key []byte, out interface{}) (bool, error) {
	if m == nil || m.db == nil {
		return false, fmt.Errorf("state: database not configured")
	}
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

func putRLP(batch storage.Batch, key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	batch.Put(key, encoded)
	return nil
}

func decodeRLP(data []byte, out interface{}) error {
	return rlp.DecodeBytes(data, out)
}
