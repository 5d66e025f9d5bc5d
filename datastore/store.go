package datastore

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// Store reads and writes the checkpoint document. One file per network,
// exclusively owned by the single keeper process; writes go through a temp
// file and a rename so a crash mid-save leaves the previous document intact.
type Store struct {
	path string
	log  *logrus.Entry
}

// NewStore places the checkpoint at <dataDir>/db_<network>.json.
func NewStore(dataDir, network string, log *logrus.Entry) *Store {
	return &Store{
		path: filepath.Join(dataDir, "db_"+network+".json"),
		log:  log,
	}
}

// Path returns the checkpoint file location.
func (s *Store) Path() string {
	return s.path
}

// LoadOrCreate loads the checkpoint, or returns a fresh one starting at the
// deployment block when no document exists yet. created tells the caller
// whether an initial full scan is needed.
func (s *Store) LoadOrCreate(deploymentBlock uint64) (cp *Checkpoint, created bool, err error) {
	raw, err := ioutil.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.log.WithField("path", s.path).Info("no checkpoint found, starting from deployment block")
		return NewCheckpoint(deploymentBlock), true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read checkpoint %s: %w", s.path, err)
	}

	cp = new(Checkpoint)
	if err := json.Unmarshal(raw, cp); err != nil {
		return nil, false, fmt.Errorf("decode checkpoint %s: %w", s.path, err)
	}
	if cp.PendingEtas == nil {
		cp.PendingEtas = make(map[common.Address]uint64)
	}
	if err := cp.validate(); err != nil {
		return nil, false, fmt.Errorf("corrupt checkpoint %s: %w", s.path, err)
	}

	s.log.WithFields(logrus.Fields{
		"path":        s.path,
		"lastScanned": cp.LastScannedBlock,
		"candidates":  len(cp.Yays),
	}).Info("checkpoint loaded")
	return cp, false, nil
}

// Save persists the checkpoint atomically.
func (s *Store) Save(cp *Checkpoint) error {
	raw, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := ioutil.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}
