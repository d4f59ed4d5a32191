package engine

import (
	"crypto/rand"
	"crypto/sha512"
	"fmt"

	"filippo.io/edwards25519"
)

// randomScalar draws a uniformly random scalar mod the Ed25519 group
// order L, using the process's OS randomness source. Per generate_share's
// determinism note, DKG and signing runs are therefore not reproducible
// by design.
func randomScalar() (*edwards25519.Scalar, error) {
	var buf [64]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, fmt.Errorf("engine: read randomness: %w", err)
	}
	s, err := edwards25519.NewScalar().SetUniformBytes(buf[:])
	if err != nil {
		return nil, fmt.Errorf("engine: reduce scalar: %w", err)
	}
	return s, nil
}

// scalarFromUint64 encodes v as a scalar. Used for the small, fixed
// Shamir evaluation points {1, 2} and their Lagrange coefficients.
func scalarFromUint64(v uint64) *edwards25519.Scalar {
	var wide [64]byte
	var little [8]byte
	for i := 0; i < 8; i++ {
		little[i] = byte(v >> (8 * i))
	}
	copy(wide[:8], little[:])
	s, err := edwards25519.NewScalar().SetUniformBytes(wide[:])
	if err != nil {
		// SetUniformBytes only fails on wrong-length input; 64 bytes is
		// always correct, so this is unreachable.
		panic(err)
	}
	return s
}

// lagrangeCoeff returns the Lagrange coefficient for the signer at
// evaluation point self, interpolating toward x=0, given the other
// signer sits at point other. For the fixed two-party set {1, 2} this
// closes to 2 (self=1) and -1 mod L (self=2), but it is computed
// generally rather than hardcoded.
func lagrangeCoeff(self, other uint64) *edwards25519.Scalar {
	selfS := scalarFromUint64(self)
	otherS := scalarFromUint64(other)

	num := edwards25519.NewScalar().Negate(otherS) // 0 - other
	den := edwards25519.NewScalar().Subtract(selfS, otherS)
	denInv := edwards25519.NewScalar().Invert(den)
	return edwards25519.NewScalar().Multiply(num, denInv)
}

// hashToScalar reduces SHA-512(parts...) mod L. Used both for the FROST
// binding factor and, with the exact RFC 8032 input ordering, for the
// Ed25519 challenge so the aggregated signature verifies under a stock
// Ed25519 verifier.
func hashToScalar(parts ...[]byte) *edwards25519.Scalar {
	h := sha512.New()
	for _, p := range parts {
		h.Write(p)
	}
	sum := h.Sum(nil)
	s, err := edwards25519.NewScalar().SetUniformBytes(sum)
	if err != nil {
		// sha512 always yields 64 bytes.
		panic(err)
	}
	return s
}

func pointFromBytes(b []byte) (*edwards25519.Point, error) {
	p, err := edwards25519.NewIdentityPoint().SetBytes(b)
	if err != nil {
		return nil, fmt.Errorf("engine: decode point: %w", err)
	}
	return p, nil
}

func scalarFromBytes(b []byte) (*edwards25519.Scalar, error) {
	s, err := edwards25519.NewScalar().SetCanonicalBytes(b)
	if err != nil {
		return nil, fmt.Errorf("engine: decode scalar: %w", err)
	}
	return s, nil
}
