package state

import (
	"errors"
	"fmt"
	"math"
)

// StateVersion identifies the expected on-disk schema layout. Increment this
// constant whenever breaking changes are made to the stored structure.
const StateVersion uint32 = 1

// ErrStateVersionMismatch indicates the stored schema version does not match
// the version supported by the current binary.
var ErrStateVersionMismatch = errors.New("state: schema version mismatch")

type storedVersion struct {
	Version uint64
}

// SetStateVersion records the provided schema version.
func (m *Manager) SetStateVersion(version uint32) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager unavailable")
	}
	batch := m.db.NewBatch()
	if err := putRLP(batch, stateVersionKey, &storedVersion{Version: uint64(version)}); err != nil {
		return err
	}
	return batch.Write()
}

// StateVersion returns the stored schema version and a boolean indicating
// whether the value was present.
func (m *Manager) StateVersion() (uint32, bool, error) {
	var stored storedVersion
	ok, err := m.loadRLP(stateVersionKey, &stored)
	if err != nil || !ok {
		return 0, false, err
	}
	if stored.Version > uint64(math.MaxUint32) {
		return 0, false, fmt.Errorf("state: schema version overflow: %d", stored.Version)
	}
	return uint32(stored.Version), true, nil
}

// EnsureStateVersion stamps an empty store with StateVersion and verifies
// that a populated one matches it. When allowMigrate is true, mismatches are
// tolerated so operators can perform manual migrations.
func EnsureStateVersion(m *Manager, allowMigrate bool) error {
	if m == nil {
		return fmt.Errorf("state: manager must not be nil")
	}
	version, ok, err := m.StateVersion()
	if err != nil {
		return err
	}
	if !ok {
		if _, hasCampaign, err := m.DistributionCampaignGet(); err != nil {
			return err
		} else if !hasCampaign {
			return m.SetStateVersion(StateVersion)
		}
	}
	if version == StateVersion || allowMigrate {
		return nil
	}
	return fmt.Errorf("%w: on-disk=%d expected=%d", ErrStateVersionMismatch, version, StateVersion)
}
