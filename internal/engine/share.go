package engine

import (
	"filippo.io/edwards25519"
	"github.com/luxfi/tss-solana/internal/party"
)

// Share is this party's validated output from a completed DKG: a secret
// contribution to the joint key plus the public metadata needed to sign
// and to verify signature shares. Once produced it is never mutated; the
// Share Store enforces write-once semantics on top of this type.
type Share struct {
	PartyIndex      party.ID
	Threshold       int
	SharedPublicKey [32]byte

	x *edwards25519.Scalar // this party's secret share; never serialized, never logged

	// vssSetup is the Feldman commitment vector contributed by each
	// dealer (both parties act as a dealer in the 2-of-2 DKG), kept to
	// recompute public per-party shares for partial-signature
	// verification during signing.
	vssSetup map[party.ID][2]*edwards25519.Point
}

// publicShare returns dealer contributions evaluated at id's Shamir
// point, i.e. the public key corresponding to id's secret share.
func (s Share) publicShare(id party.ID) *edwards25519.Point {
	x := scalarFromUint64(id.Scalar())
	total := edwards25519.NewIdentityPoint()
	for _, c := range s.vssSetup {
		term := edwards25519.NewIdentityPoint().ScalarMult(x, c[1])
		term.Add(term, c[0])
		total.Add(total, term)
	}
	return total
}
