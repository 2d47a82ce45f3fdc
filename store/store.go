// Package store persists the engine's durable state (the role store and the
// configuration) under a single well-known key per deployment. Custody
// balances are not persisted here; the ledger is their source of truth.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/clawpay/settler/config"
	"github.com/clawpay/settler/roles"
)

// Snapshot is the full durable state of one deployment.
type Snapshot struct {
	Deployment string       `json:"deployment"`
	Roles      roles.State  `json:"roles"`
	Config     config.State `json:"config"`
}

// Store persists deployment snapshots.
type Store interface {
	// Save writes the snapshot for its deployment, replacing any previous
	// one.
	Save(snapshot Snapshot) error

	// Load reads the snapshot for a deployment. The bool reports whether one
	// exists.
	Load(deploymentID string) (Snapshot, bool, error)

	Close() error
}

func stateKey(deploymentID string) []byte {
	return []byte("settler/state/" + deploymentID)
}

func encodeSnapshot(snapshot Snapshot) ([]byte, error) {
	if snapshot.Deployment == "" {
		return nil, fmt.Errorf("snapshot missing deployment id")
	}
	return json.Marshal(snapshot)
}

func decodeSnapshot(raw []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snapshot, nil
}
