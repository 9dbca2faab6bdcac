// Package lightclient holds the light client's state and the validator
// that advances it one header at a time.
package lightclient

// State is the light client's entire memory: the height the client was
// constructed at, the most recently accepted raw header, and the commit
// root of every accepted header in height order. Only Advance mutates it.
type State struct {
	heightOffset uint64
	lastHeader   []byte
	commitRoots  [][32]byte
}

// NewState constructs a State from a genesis header already known to be
// trusted (verified out of band; the light client never bootstraps trust
// on its own). genesisCommitRoot is the genesis header's own commit root.
func NewState(heightOffset uint64, genesisHeaderBytes []byte, genesisCommitRoot [32]byte) *State {
	return &State{
		heightOffset: heightOffset,
		lastHeader:   append([]byte(nil), genesisHeaderBytes...),
		commitRoots:  [][32]byte{genesisCommitRoot},
	}
}

// Restore reconstructs a State from fields previously persisted with Store,
// used on process startup instead of re-verifying from genesis.
func Restore(heightOffset uint64, lastHeader []byte, commitRoots [][32]byte) *State {
	return &State{
		heightOffset: heightOffset,
		lastHeader:   append([]byte(nil), lastHeader...),
		commitRoots:  append([][32]byte(nil), commitRoots...),
	}
}

// HeightOffset is the block height installed at construction; it never
// changes over the State's lifetime.
func (s *State) HeightOffset() uint64 { return s.heightOffset }

// Height is the height of the most recently accepted header.
func (s *State) Height() uint64 { return s.heightOffset + uint64(len(s.commitRoots)) - 1 }

// LastHeader is the raw bytes of the most recently accepted header.
func (s *State) LastHeader() []byte {
	return append([]byte(nil), s.lastHeader...)
}

// CommitRoots returns every accepted commit root in height order, starting
// with genesis at index 0.
func (s *State) CommitRoots() [][32]byte {
	return append([][32]byte(nil), s.commitRoots...)
}

// CommitRootAt returns the commit root recorded for height, and whether
// that height is within the client's accepted range.
func (s *State) CommitRootAt(height uint64) ([32]byte, bool) {
	if height < s.heightOffset {
		return [32]byte{}, false
	}
	idx := height - s.heightOffset
	if idx >= uint64(len(s.commitRoots)) {
		return [32]byte{}, false
	}
	return s.commitRoots[idx], true
}

// advance is the package-private mutator used only by Advance.
func (s *State) advance(newHeaderBytes []byte, commitRoot [32]byte) {
	s.lastHeader = append([]byte(nil), newHeaderBytes...)
	s.commitRoots = append(s.commitRoots, commitRoot)
}
