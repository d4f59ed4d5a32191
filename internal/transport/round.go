package transport

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/luxfi/tss-solana/internal/errs"
	"github.com/luxfi/tss-solana/internal/party"
	"github.com/luxfi/tss-solana/internal/wire"
)

// Out is the typed sink half of a round transport. Send enqueues onto an
// unbounded in-process queue and returns immediately; a dedicated
// forwarder goroutine drains the queue and writes frames to the
// underlying channel, so the protocol engine never awaits network flush
// mid-round.
type Out[M any] struct {
	queue *unboundedQueue[Envelope[M]]
	ch    *wire.Channel

	errc chan error // forwarder's terminal error, if any; closed when the forwarder stops
}

// NewOut starts the forwarder goroutine over ch.
func NewOut[M any](ch *wire.Channel) *Out[M] {
	o := &Out[M]{
		queue: newUnboundedQueue[Envelope[M]](),
		ch:    ch,
		errc:  make(chan error, 1),
	}
	go o.forward()
	return o
}

func (o *Out[M]) forward() {
	defer close(o.errc)
	for {
		env, ok := o.queue.Pop()
		if !ok {
			return
		}
		payload, err := cbor.Marshal(env)
		if err != nil {
			o.errc <- errs.New(errs.DecodeError, "transport.Out.forward", err)
			return
		}
		if err := o.ch.Send(payload); err != nil {
			o.errc <- errs.New(errs.TransportError, "transport.Out.forward", err)
			return
		}
	}
}

// Send enqueues env. It never blocks.
func (o *Out[M]) Send(env Envelope[M]) {
	o.queue.Push(env)
}

// Broadcast enqueues m addressed to every other party.
func (o *Out[M]) Broadcast(m M) {
	o.Send(ToAll(m))
}

// SendTo enqueues m addressed to p.
func (o *Out[M]) SendTo(m M, p party.ID) {
	o.Send(ToParty(m, p))
}

// Close flushes and closes the queue; it is a no-op from the protocol
// engine's point of view — flush/close always succeed.
func (o *Out[M]) Close() {
	o.queue.Close()
}

// Err returns the forwarder's terminal error, if it stopped abnormally.
// Reads after the forwarder has shut down return immediately.
func (o *Out[M]) Err() error {
	return <-o.errc
}

// In is the typed stream half of a round transport: it reads frames off
// the channel, decodes them, and attributes a sender.
type In[M any] struct {
	ch   *wire.Channel
	self party.ID
}

// NewIn wraps ch for a party whose own id is self; the peer is therefore
// self.Peer() for every received message.
func NewIn[M any](ch *wire.Channel, self party.ID) *In[M] {
	return &In[M]{ch: ch, self: self}
}

// Recv blocks for the next incoming message, decodes it, and reports the
// inferred sender. It returns a TransportError on I/O failure (including
// peer close) and a DecodeError on a malformed frame.
func (in *In[M]) Recv() (Incoming[M], error) {
	raw, err := in.ch.Recv()
	if err != nil {
		return Incoming[M]{}, errs.New(errs.TransportError, "transport.In.Recv", err)
	}
	var env Envelope[M]
	if err := cbor.Unmarshal(raw, &env); err != nil {
		return Incoming[M]{}, errs.New(errs.DecodeError, "transport.In.Recv", fmt.Errorf("decode envelope: %w", err))
	}
	return Incoming[M]{
		Sender: in.self.Peer(),
		Kind:   env.Kind,
		Msg:    env.Msg,
	}, nil
}
