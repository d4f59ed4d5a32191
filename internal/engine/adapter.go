// Package engine is the Protocol Engine Adapter: the narrow facade the
// rest of the system uses to drive DKG and signing. Nothing outside this
// package depends on the edwards25519 arithmetic or the wire message
// shapes in messages.go; callers only ever see GenerateShare and RunSigning.
package engine

import (
	"net"

	"github.com/luxfi/tss-solana/internal/party"
)

// Adapter is a thin, stateless wrapper exposing a stable, narrow
// interface; the session controller holds one per node and calls it
// once per protocol run. It carries no state of its own —
// every run is parameterized fully by its arguments — so a single
// Adapter value may be shared across concurrent sessions.
type Adapter struct{}

// NewAdapter constructs a Protocol Engine Adapter.
func NewAdapter() *Adapter {
	return &Adapter{}
}

// GenerateShare wraps GenerateShare (see keygen.go) behind the adapter.
func (Adapter) GenerateShare(conn net.Conn, myID party.ID, n int, session []byte) (Share, error) {
	return GenerateShare(conn, myID, n, session)
}

// RunSigning wraps RunSigning (see sign.go) behind the adapter.
func (Adapter) RunSigning(myID party.ID, share Share, conn net.Conn, message []byte) (r [32]byte, z [32]byte, err error) {
	return RunSigning(myID, share, conn, message)
}
