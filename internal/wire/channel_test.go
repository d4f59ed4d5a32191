package wire_test

import (
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/luxfi/tss-solana/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeChannels(t *testing.T) (*wire.Channel, *wire.Channel) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
	})
	return wire.New(a), wire.New(b)
}

func TestSendRecvRoundTrip(t *testing.T) {
	a, b := pipeChannels(t)

	payloads := [][]byte{
		[]byte("hello"),
		{},
		[]byte("a second frame, different length"),
	}

	done := make(chan error, 1)
	go func() {
		for _, p := range payloads {
			if err := a.Send(p); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	for _, want := range payloads {
		got, err := b.Recv()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	require.NoError(t, <-done)
}

func TestRecvOnPeerCloseReturnsEOF(t *testing.T) {
	a, b := pipeChannels(t)

	go func() {
		_ = a.Close()
	}()

	_, err := b.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestOversizedFrameRejected(t *testing.T) {
	a, _ := pipeChannels(t)

	big := make([]byte, wire.MaxFrameSize+1)
	err := a.Send(big)
	assert.ErrorIs(t, err, wire.ErrFrameTooLarge)
}

// TestRecvRejectsOversizedAnnouncedFrame injects an over-length header
// directly on the wire (bypassing Send's own sender-side guard) to
// confirm the receiving half rejects it too, and that the channel
// remains usable for subsequent well-formed frames afterward.
func TestRecvRejectsOversizedAnnouncedFrame(t *testing.T) {
	connA, connB := net.Pipe()
	t.Cleanup(func() {
		_ = connA.Close()
		_ = connB.Close()
	})
	b := wire.New(connB)

	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], wire.MaxFrameSize+1)
	writeErr := make(chan error, 1)
	go func() {
		_, err := connA.Write(hdr[:])
		writeErr <- err
	}()

	_, err := b.Recv()
	assert.ErrorIs(t, err, wire.ErrFrameTooLarge)
	require.NoError(t, <-writeErr)

	// The oversized-frame rejection must not leave the channel wedged:
	// a well-formed frame sent right after is still delivered correctly.
	a := wire.New(connA)
	sendDone := make(chan error, 1)
	go func() { sendDone <- a.Send([]byte("still alive")) }()

	got, err := b.Recv()
	require.NoError(t, err)
	assert.Equal(t, []byte("still alive"), got)
	require.NoError(t, <-sendDone)
}

func TestConcurrentReadWrite(t *testing.T) {
	a, b := pipeChannels(t)

	const n = 50
	errc := make(chan error, 2)

	// a->b and b->a run concurrently with their respective readers, so
	// neither direction's Send blocks waiting on the other.
	go func() {
		for i := 0; i < n; i++ {
			if err := a.Send([]byte{byte(i)}); err != nil {
				errc <- err
				return
			}
		}
		errc <- nil
	}()
	go func() {
		for i := 0; i < n; i++ {
			if _, err := b.Recv(); err != nil {
				errc <- err
				return
			}
		}
		errc <- nil
	}()

	go func() {
		for i := 0; i < n; i++ {
			if err := b.Send([]byte{byte(i)}); err != nil {
				errc <- err
				return
			}
		}
		errc <- nil
	}()
	go func() {
		for i := 0; i < n; i++ {
			if _, err := a.Recv(); err != nil {
				errc <- err
				return
			}
		}
		errc <- nil
	}()

	for i := 0; i < 4; i++ {
		require.NoError(t, <-errc)
	}
}
