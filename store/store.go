// Package store persists light client state so a process can resume from
// the last accepted height instead of re-verifying from genesis. Uses a
// key-value layout narrowed to this engine's (heightOffset, lastHeader,
// commitRoots) state shape.
package store

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
	dbm "github.com/tendermint/tm-db"

	"github.com/bridgewatch/lightclient/errs"
)

var (
	heightOffsetKey = []byte("heightOffset")
	lastHeaderKey   = []byte("lastHeader")
)

// Store is anything that can persistently save and load light client
// state.
type Store interface {
	SaveState(heightOffset uint64, lastHeader []byte, commitRoots [][32]byte) error
	LoadState() (heightOffset uint64, lastHeader []byte, commitRoots [][32]byte, err error)
	Height() (int64, error)
}

type dbStore struct {
	db dbm.DB
}

// New wraps db as a Store. db is typically a goleveldb-backed
// tm-db instance opened at Config.StorePath.
func New(db dbm.DB) Store {
	return &dbStore{db: db}
}

// SaveState overwrites the persisted state in a single batch: the height
// offset, the raw last header, and every commit root keyed by height so
// iteration order matches height order.
func (s *dbStore) SaveState(heightOffset uint64, lastHeader []byte, commitRoots [][32]byte) error {
	b := s.db.NewBatch()
	defer b.Close()

	var offBuf [8]byte
	binary.BigEndian.PutUint64(offBuf[:], heightOffset)
	if err := b.Set(heightOffsetKey, offBuf[:]); err != nil {
		return err
	}
	if err := b.Set(lastHeaderKey, lastHeader); err != nil {
		return err
	}
	for i, root := range commitRoots {
		root := root // the batch may keep the value slice, so give each root its own array
		if err := b.Set(commitRootKey(heightOffset+uint64(i)), root[:]); err != nil {
			return err
		}
	}

	if err := b.WriteSync(); err != nil {
		return errors.Wrap(err, "persisting light client state")
	}
	return nil
}

// LoadState reconstructs persisted state. If the store is empty, it
// returns heightOffset 0, a nil lastHeader, and no commit roots; callers
// distinguish this from a corrupt store by checking Height() == -1 first.
func (s *dbStore) LoadState() (uint64, []byte, [][32]byte, error) {
	offBuf, err := s.db.Get(heightOffsetKey)
	if err != nil {
		return 0, nil, nil, err
	}
	if len(offBuf) == 0 {
		return 0, nil, nil, nil
	}
	if len(offBuf) != 8 {
		return 0, nil, nil, errs.CorruptStore{Reason: fmt.Errorf("heightOffset key has %d bytes, want 8", len(offBuf))}
	}
	heightOffset := binary.BigEndian.Uint64(offBuf)

	lastHeader, err := s.db.Get(lastHeaderKey)
	if err != nil {
		return 0, nil, nil, err
	}
	if len(lastHeader) == 0 {
		return 0, nil, nil, errs.CorruptStore{Reason: fmt.Errorf("missing lastHeader for heightOffset %d", heightOffset)}
	}

	var roots [][32]byte
	for height := heightOffset; ; height++ {
		v, err := s.db.Get(commitRootKey(height))
		if err != nil {
			return 0, nil, nil, err
		}
		if len(v) == 0 {
			break
		}
		if len(v) != 32 {
			return 0, nil, nil, errs.CorruptStore{Reason: fmt.Errorf("commit root at height %d has %d bytes, want 32", height, len(v))}
		}
		var root [32]byte
		copy(root[:], v)
		roots = append(roots, root)
	}
	if len(roots) == 0 {
		return 0, nil, nil, errs.CorruptStore{Reason: fmt.Errorf("heightOffset %d has no commit roots", heightOffset)}
	}

	return heightOffset, lastHeader, roots, nil
}

// Height returns the height of the most recently persisted header, or -1
// if the store is empty.
func (s *dbStore) Height() (int64, error) {
	offBuf, err := s.db.Get(heightOffsetKey)
	if err != nil {
		return 0, err
	}
	if len(offBuf) == 0 {
		return -1, nil
	}

	heightOffset, _, roots, err := s.LoadState()
	if err != nil {
		return 0, err
	}
	return int64(heightOffset) + int64(len(roots)) - 1, nil
}

func commitRootKey(height uint64) []byte {
	return []byte(fmt.Sprintf("commitRoot/%020d", height))
}
