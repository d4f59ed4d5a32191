package engine

import (
	"crypto/ed25519"
	"fmt"
	"net"

	"filippo.io/edwards25519"
	"github.com/luxfi/tss-solana/internal/errs"
	"github.com/luxfi/tss-solana/internal/party"
	"github.com/luxfi/tss-solana/internal/transport"
	"github.com/luxfi/tss-solana/internal/wire"
)

// RunSigning drives the two-round FROST-Ed25519 signing protocol
// (reduced to t=n=2) to completion over conn and returns the 32-byte
// R and z components of a signature that verifies as standard Ed25519
// over message under share's SharedPublicKey.
//
// Round 1 exchanges nonce commitments (D, E); each signer derives a
// per-signer binding factor from the full commitment list and the
// message, computes the group commitment R, the Ed25519 challenge c,
// and its own response share z_i. Round 2 exchanges and sums the
// response shares into z. The adapter interprets message verbatim: no
// hashing is applied beyond what the Ed25519 challenge itself requires.
func RunSigning(myID party.ID, share Share, conn net.Conn, message []byte) (r [32]byte, z [32]byte, err error) {
	if !myID.Valid() || share.PartyIndex != myID {
		return r, z, errs.New(errs.SignFailure, "engine.RunSigning", fmt.Errorf("share does not belong to party %d", myID))
	}

	ch := wire.New(conn)
	out := transport.NewOut[SigningMsg](ch)
	in := transport.NewIn[SigningMsg](ch, myID)
	defer out.Close()

	peerID := myID.Peer()
	selfX := myID.Scalar()
	peerX := peerID.Scalar()

	d, derr := randomScalar()
	if derr != nil {
		return r, z, errs.New(errs.SignFailure, "engine.RunSigning", derr)
	}
	e, eerr := randomScalar()
	if eerr != nil {
		return r, z, errs.New(errs.SignFailure, "engine.RunSigning", eerr)
	}
	D := edwards25519.NewIdentityPoint().ScalarBaseMult(d)
	E := edwards25519.NewIdentityPoint().ScalarBaseMult(e)

	out.Broadcast(SigningMsg{Commitment: &signingCommitment{D: D.Bytes(), E: E.Bytes()}})

	var peerD, peerE *edwards25519.Point
	for peerD == nil {
		msg, rerr := in.Recv()
		if rerr != nil {
			return r, z, rerr
		}
		if msg.Msg.Commitment == nil {
			continue
		}
		var perr error
		peerD, perr = pointFromBytes(msg.Msg.Commitment.D)
		if perr != nil {
			return r, z, errs.New(errs.SignFailure, "engine.RunSigning", perr)
		}
		peerE, perr = pointFromBytes(msg.Msg.Commitment.E)
		if perr != nil {
			return r, z, errs.New(errs.SignFailure, "engine.RunSigning", perr)
		}
	}

	// Binding factors are derived identically by both signers: hash the
	// signer's index, the commitment list ordered by party index (low to
	// high, independent of who is "self"), and the message.
	var lowX, highX uint64
	var lowD, lowE, highD, highE *edwards25519.Point
	if selfX < peerX {
		lowX, highX = selfX, peerX
		lowD, lowE, highD, highE = D, E, peerD, peerE
	} else {
		lowX, highX = peerX, selfX
		lowD, lowE, highD, highE = peerD, peerE, D, E
	}

	bindingFactor := func(x uint64) *edwards25519.Scalar {
		return hashToScalar(
			scalarFromUint64(x).Bytes(),
			lowD.Bytes(), lowE.Bytes(), highD.Bytes(), highE.Bytes(),
			[]byte{byte(lowX)}, []byte{byte(highX)},
			message,
		)
	}

	rhoSelf := bindingFactor(selfX)
	rhoPeer := bindingFactor(peerX)

	// Group commitment R = sum_i (D_i + rho_i * E_i).
	selfTerm := edwards25519.NewIdentityPoint().ScalarMult(rhoSelf, E)
	selfTerm.Add(selfTerm, D)
	peerTerm := edwards25519.NewIdentityPoint().ScalarMult(rhoPeer, peerE)
	peerTerm.Add(peerTerm, peerD)
	R := edwards25519.NewIdentityPoint().Add(selfTerm, peerTerm)

	Y, yerr := pointFromBytes(share.SharedPublicKey[:])
	if yerr != nil {
		return r, z, errs.New(errs.SignFailure, "engine.RunSigning", yerr)
	}

	// Standard Ed25519 challenge: c = SHA-512(R || A || M) mod L. Using
	// exactly this transcript is what lets the aggregated signature
	// verify under crypto/ed25519.Verify.
	c := hashToScalar(R.Bytes(), Y.Bytes(), message)

	lambdaSelf := lagrangeCoeff(selfX, peerX)
	zSelf := edwards25519.NewScalar().Multiply(rhoSelf, e)
	zSelf.Add(zSelf, d)
	cLambda := edwards25519.NewScalar().Multiply(c, lambdaSelf)
	cLambdaX := edwards25519.NewScalar().Multiply(cLambda, share.x)
	zSelf.Add(zSelf, cLambdaX)

	out.Broadcast(SigningMsg{Share: &signingShare{Z: zSelf.Bytes()}})

	var zPeer *edwards25519.Scalar
	for zPeer == nil {
		msg, rerr := in.Recv()
		if rerr != nil {
			return r, z, rerr
		}
		if msg.Msg.Share == nil {
			continue
		}
		var perr error
		zPeer, perr = scalarFromBytes(msg.Msg.Share.Z)
		if perr != nil {
			return r, z, errs.New(errs.SignFailure, "engine.RunSigning", perr)
		}
	}

	// Optional partial-signature check: z_peer*G must equal the peer's
	// contribution to R plus c * lambda_peer * (peer's public share).
	lambdaPeer := lagrangeCoeff(peerX, selfX)
	peerPublic := share.publicShare(peerID)
	expected := edwards25519.NewIdentityPoint().ScalarMult(edwards25519.NewScalar().Multiply(c, lambdaPeer), peerPublic)
	expected.Add(expected, peerTerm)
	got := edwards25519.NewIdentityPoint().ScalarBaseMult(zPeer)
	if got.Equal(expected) != 1 {
		return r, z, errs.New(errs.SignFailure, "engine.RunSigning", fmt.Errorf("peer signature share failed verification"))
	}

	zSum := edwards25519.NewScalar().Add(zSelf, zPeer)

	copy(r[:], R.Bytes())
	copy(z[:], zSum.Bytes())

	sig := append(append([]byte{}, r[:]...), z[:]...)
	if !ed25519.Verify(ed25519.PublicKey(share.SharedPublicKey[:]), message, sig) {
		return r, z, errs.New(errs.SignFailure, "engine.RunSigning", fmt.Errorf("aggregated signature failed self-verification"))
	}

	return r, z, nil
}
