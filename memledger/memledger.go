// Package memledger provides in-memory reference implementations of the
// engine's AssetLedger and HostHooks capabilities, used by tests and the
// lcctl sandbox rather than a real settlement layer.
package memledger

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/bridgewatch/lightclient/crypto"
	"github.com/bridgewatch/lightclient/errs"
	"github.com/bridgewatch/lightclient/withdrawal"
)

// Ledger tracks native balance, per-token fungible balances, and
// per-collection NFT ownership in memory.
type Ledger struct {
	mu sync.Mutex

	native   *big.Int
	fungible map[crypto.Address]*big.Int
	nftOwner map[crypto.Address]map[withdrawal.TokenID]crypto.Address
}

// NewLedger constructs an empty Ledger with nativeSupply pre-funded so
// tests can exercise ReleaseNative without a prior deposit step.
func NewLedger(nativeSupply *big.Int) *Ledger {
	return &Ledger{
		native:   new(big.Int).Set(nativeSupply),
		fungible: make(map[crypto.Address]*big.Int),
		nftOwner: make(map[crypto.Address]map[withdrawal.TokenID]crypto.Address),
	}
}

// Fund credits a fungible token balance held by the ledger, for test
// setup.
func (l *Ledger) Fund(token crypto.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balanceLocked(token)
	bal.Add(bal, amount)
}

// SetOwner records owner as the owner of a non-fungible token, for test
// setup. The ledger counts a token whose recorded owner is the zero address
// as its own, and can only release tokens it owns.
func (l *Ledger) SetOwner(collection crypto.Address, tokenID withdrawal.TokenID, owner crypto.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.nftOwner[collection] == nil {
		l.nftOwner[collection] = make(map[withdrawal.TokenID]crypto.Address)
	}
	l.nftOwner[collection][tokenID] = owner
}

func (l *Ledger) NativeBalance() *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.native)
}

func (l *Ledger) ReleaseNative(to crypto.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.native.Cmp(amount) < 0 {
		return errs.InsufficientBalance{Reason: fmt.Errorf("native balance %s < requested %s", l.native, amount)}
	}
	l.native.Sub(l.native, amount)
	return nil
}

func (l *Ledger) FungibleBalance(token crypto.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.balanceLocked(token))
}

func (l *Ledger) ReleaseFungible(token, to crypto.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balanceLocked(token)
	if bal.Cmp(amount) < 0 {
		return errs.InsufficientBalance{Reason: fmt.Errorf("token %x balance %s < requested %s", token, bal, amount)}
	}
	bal.Sub(bal, amount)
	return nil
}

func (l *Ledger) balanceLocked(token crypto.Address) *big.Int {
	bal, ok := l.fungible[token]
	if !ok {
		bal = big.NewInt(0)
		l.fungible[token] = bal
	}
	return bal
}

func (l *Ledger) OwnerOf(collection crypto.Address, tokenID withdrawal.TokenID) (crypto.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	owners, ok := l.nftOwner[collection]
	if !ok {
		return crypto.Address{}, errs.InsufficientBalance{Reason: fmt.Errorf("unknown collection %x", collection)}
	}
	owner, ok := owners[tokenID]
	if !ok {
		return crypto.Address{}, errs.InsufficientBalance{Reason: fmt.Errorf("unknown token %x in collection %x", tokenID, collection)}
	}
	return owner, nil
}

func (l *Ledger) ReleaseNonFungible(collection, to crypto.Address, tokenID withdrawal.TokenID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	owners, ok := l.nftOwner[collection]
	if !ok {
		return errs.InsufficientBalance{Reason: fmt.Errorf("unknown collection %x", collection)}
	}
	var self crypto.Address
	if owners[tokenID] != self {
		return errs.InsufficientBalance{Reason: fmt.Errorf("ledger does not own token %x in collection %x", tokenID, collection)}
	}
	owners[tokenID] = to
	return nil
}

// Hooks is an in-memory HostHooks: a process-local mutex, a reentrancy
// flag, and an event log queryable by tests.
type Hooks struct {
	mu sync.Mutex

	reentrant bool

	eventsMu sync.Mutex
	events   []Event
}

// Event is one emitted event, captured for test assertions.
type Event struct {
	Kind   string
	Fields map[string]interface{}
}

func NewHooks() *Hooks {
	return &Hooks{}
}

func (h *Hooks) MutexGuard() (unlock func()) {
	h.mu.Lock()
	return h.mu.Unlock
}

func (h *Hooks) ReentrancyGuard() (release func(), err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.reentrant {
		return nil, errReentrant
	}
	h.reentrant = true
	return func() {
		h.mu.Lock()
		h.reentrant = false
		h.mu.Unlock()
	}, nil
}

func (h *Hooks) EmitEvent(kind string, fields map[string]interface{}) {
	h.eventsMu.Lock()
	defer h.eventsMu.Unlock()
	h.events = append(h.events, Event{Kind: kind, Fields: fields})
}

// Events returns every event emitted so far, for test assertions.
func (h *Hooks) Events() []Event {
	h.eventsMu.Lock()
	defer h.eventsMu.Unlock()
	return append([]Event(nil), h.events...)
}

type hooksError string

func (e hooksError) Error() string { return string(e) }

const errReentrant = hooksError("memledger: reentrant call detected")
