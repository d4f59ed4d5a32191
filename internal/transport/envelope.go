// Package transport implements the round transport: a typed In/Out pair
// over a wire.Channel that tags messages Broadcast or P2P and attributes
// senders. With exactly two parties, attribution is the peer's id.
package transport

import "github.com/luxfi/tss-solana/internal/party"

// MsgKind distinguishes a message meant for every other party from one
// meant for a single recipient.
type MsgKind uint8

const (
	Broadcast MsgKind = iota
	P2P
)

func (k MsgKind) String() string {
	if k == Broadcast {
		return "broadcast"
	}
	return "p2p"
}

// Envelope is the wire representation of one protocol message of inner
// type M. Recipient is populated iff Kind is P2P.
type Envelope[M any] struct {
	Kind      MsgKind
	Recipient *party.ID
	Msg       M
}

// Incoming is what the engine actually consumes off an In[M]: the
// envelope's payload plus the inferred sender.
type Incoming[M any] struct {
	Sender party.ID
	Kind   MsgKind
	Msg    M
}

// ToAll wraps m as a broadcast envelope.
func ToAll[M any](m M) Envelope[M] {
	return Envelope[M]{Kind: Broadcast, Msg: m}
}

// ToParty wraps m as a directed envelope addressed to p.
func ToParty[M any](m M, p party.ID) Envelope[M] {
	return Envelope[M]{Kind: P2P, Recipient: &p, Msg: m}
}
