package engine

// KeygenMsg is the single wire message type exchanged during DKG. Exactly
// one of the two fields is set per message: Commitment is broadcast in
// round 1, Share is sent P2P to the peer once in round 2.
type KeygenMsg struct {
	Commitment *keygenCommitment `cbor:",omitempty"`
	Share      *keygenShare      `cbor:",omitempty"`
}

// keygenCommitment carries a dealer's Feldman commitments to its
// degree-1 polynomial's coefficients, plus the session bytes it is
// running under (the execution-id domain separator). Recipients reject
// the run if the peer's session does not match their own.
type keygenCommitment struct {
	Session []byte
	C0      []byte // a0*G, compressed point
	C1      []byte // a1*G, compressed point
}

// keygenShare carries the dealer's evaluation of its own polynomial at
// the recipient's Shamir point.
type keygenShare struct {
	Value []byte // scalar, canonical bytes
}

// SigningMsg is the single wire message type exchanged during signing.
// Round 1 broadcasts a Commitment (the nonce commitments D, E); round 2
// broadcasts a Share (the signer's response share z_i) (with two
// parties, "broadcast" and "send to the one peer" coincide).
type SigningMsg struct {
	Commitment *signingCommitment `cbor:",omitempty"`
	Share      *signingShare      `cbor:",omitempty"`
}

type signingCommitment struct {
	D []byte // d*G
	E []byte // e*G
}

type signingShare struct {
	Z []byte // this signer's response share z_i, canonical bytes
}
