package engine

import (
	"fmt"
	"net"

	"filippo.io/edwards25519"
	"github.com/luxfi/tss-solana/internal/errs"
	"github.com/luxfi/tss-solana/internal/party"
	"github.com/luxfi/tss-solana/internal/transport"
	"github.com/luxfi/tss-solana/internal/wire"
)

// GenerateShare drives a two-party Pedersen/Feldman-VSS DKG of degree
// t-1=1 to completion over conn and returns the resulting Share.
//
// Each party acts as its own dealer: it samples a random degree-1
// polynomial, broadcasts a Feldman commitment to its coefficients,
// and privately sends the peer the evaluation of that polynomial at
// the peer's Shamir point (party 0's point is x=1, party 1's is x=2).
// Each party's final secret share is the sum of both dealers'
// evaluations at its own point; the joint public key is the sum of
// both dealers' constant-term commitments.
//
// session is hashed into nothing cryptographically binding here beyond
// an equality check: both parties must present the same session bytes
// or the run fails, since session is the protocol's domain separator
// and a mismatch means the two processes are not actually running the
// same logical session.
func GenerateShare(conn net.Conn, myID party.ID, n int, session []byte) (Share, error) {
	if !myID.Valid() {
		return Share{}, errs.New(errs.DkgFailure, "engine.GenerateShare", fmt.Errorf("invalid party id %d", myID))
	}
	if n != 2 {
		return Share{}, errs.New(errs.DkgFailure, "engine.GenerateShare", fmt.Errorf("unsupported party count %d (core supports n=2 only)", n))
	}

	ch := wire.New(conn)
	out := transport.NewOut[KeygenMsg](ch)
	in := transport.NewIn[KeygenMsg](ch, myID)
	defer out.Close()

	peerID := myID.Peer()
	selfX := myID.Scalar()
	peerX := peerID.Scalar()

	a0, err := randomScalar()
	if err != nil {
		return Share{}, errs.New(errs.DkgFailure, "engine.GenerateShare", err)
	}
	a1, err := randomScalar()
	if err != nil {
		return Share{}, errs.New(errs.DkgFailure, "engine.GenerateShare", err)
	}
	c0 := edwards25519.NewIdentityPoint().ScalarBaseMult(a0)
	c1 := edwards25519.NewIdentityPoint().ScalarBaseMult(a1)

	evalSelf := polyEval(a0, a1, selfX)
	evalPeer := polyEval(a0, a1, peerX)

	out.Broadcast(KeygenMsg{Commitment: &keygenCommitment{
		Session: session,
		C0:      c0.Bytes(),
		C1:      c1.Bytes(),
	}})
	out.SendTo(KeygenMsg{Share: &keygenShare{Value: evalPeer.Bytes()}}, peerID)

	var peerC0, peerC1 *edwards25519.Point
	var peerShare *edwards25519.Scalar
	for peerC0 == nil || peerShare == nil {
		msg, err := in.Recv()
		if err != nil {
			return Share{}, err
		}
		switch {
		case msg.Msg.Commitment != nil:
			if string(msg.Msg.Commitment.Session) != string(session) {
				return Share{}, errs.New(errs.DkgFailure, "engine.GenerateShare", fmt.Errorf("session mismatch with peer"))
			}
			peerC0, err = pointFromBytes(msg.Msg.Commitment.C0)
			if err != nil {
				return Share{}, errs.New(errs.DkgFailure, "engine.GenerateShare", err)
			}
			peerC1, err = pointFromBytes(msg.Msg.Commitment.C1)
			if err != nil {
				return Share{}, errs.New(errs.DkgFailure, "engine.GenerateShare", err)
			}
		case msg.Msg.Share != nil:
			peerShare, err = scalarFromBytes(msg.Msg.Share.Value)
			if err != nil {
				return Share{}, errs.New(errs.DkgFailure, "engine.GenerateShare", err)
			}
		}
	}

	// Feldman check: the share the peer sent us for our own point must
	// match its public commitment evaluated at that point.
	expected := edwards25519.NewIdentityPoint().ScalarMult(scalarFromUint64(selfX), peerC1)
	expected.Add(expected, peerC0)
	got := edwards25519.NewIdentityPoint().ScalarBaseMult(peerShare)
	if got.Equal(expected) != 1 {
		return Share{}, errs.New(errs.DkgFailure, "engine.GenerateShare", fmt.Errorf("feldman verification failed for peer share"))
	}

	finalSecret := edwards25519.NewScalar().Add(evalSelf, peerShare)
	jointPublic := edwards25519.NewIdentityPoint().Add(c0, peerC0)

	share := Share{
		PartyIndex:      myID,
		Threshold:       2,
		x:               finalSecret,
		vssSetup: map[party.ID][2]*edwards25519.Point{
			myID:   {c0, c1},
			peerID: {peerC0, peerC1},
		},
	}
	copy(share.SharedPublicKey[:], jointPublic.Bytes())
	return share, nil
}

func polyEval(a0, a1 *edwards25519.Scalar, x uint64) *edwards25519.Scalar {
	xs := scalarFromUint64(x)
	term := edwards25519.NewScalar().Multiply(a1, xs)
	return edwards25519.NewScalar().Add(a0, term)
}
