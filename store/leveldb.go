package store

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
)

// LevelDBStore persists snapshots in a local LevelDB database.
type LevelDBStore struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) a LevelDB-backed store at path.
func OpenLevelDB(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open state store at %s: %w", path, err)
	}
	return &LevelDBStore{db: db}, nil
}

func (s *LevelDBStore) Save(snapshot Snapshot) error {
	raw, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	if err := s.db.Put(stateKey(snapshot.Deployment), raw, nil); err != nil {
		return fmt.Errorf("persist state for %s: %w", snapshot.Deployment, err)
	}
	return nil
}

func (s *LevelDBStore) Load(deploymentID string) (Snapshot, bool, error) {
	raw, err := s.db.Get(stateKey(deploymentID), nil)
	if err == errors.ErrNotFound {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("load state for %s: %w", deploymentID, err)
	}
	snapshot, err := decodeSnapshot(raw)
	if err != nil {
		return Snapshot{}, false, err
	}
	return snapshot, true, nil
}

func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
