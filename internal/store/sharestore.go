// Package store implements the Share Store: process-local, reader-writer
// locked storage mapping (party, session) to a validated key share.
package store

import (
	"fmt"
	"sync"

	"github.com/luxfi/tss-solana/internal/engine"
	"github.com/luxfi/tss-solana/internal/errs"
	"github.com/luxfi/tss-solana/internal/party"
)

type key struct {
	party   party.ID
	session string
}

// Store holds at most one Share per (party, session), for the lifetime
// of the process. It is safe for concurrent use: DKG completion takes
// the writer lock, signing lookups take the reader lock.
type Store struct {
	mu     sync.RWMutex
	shares map[key]engine.Share
}

// New returns an empty Store.
func New() *Store {
	return &Store{shares: make(map[key]engine.Share)}
}

// Put inserts the share produced for (p, session). A share, once
// stored, is immutable: Put on an already-populated key returns an
// error rather than silently overwriting.
func (s *Store) Put(p party.ID, session string, share engine.Share) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{p, session}
	if _, exists := s.shares[k]; exists {
		return errs.New(errs.DkgFailure, "store.Put", fmt.Errorf("share already provisioned for party %d session %q", p, session))
	}
	s.shares[k] = share
	return nil
}

// Get returns the share for (p, session), if any.
func (s *Store) Get(p party.ID, session string) (engine.Share, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	share, ok := s.shares[key{p, session}]
	return share, ok
}

// Has reports whether a session already has a Ready share for p, without
// copying the share value.
func (s *Store) Has(p party.ID, session string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.shares[key{p, session}]
	return ok
}
