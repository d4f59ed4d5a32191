// Package wire implements the framed byte channel: a length-prefixed,
// full-duplex transport over a single net.Conn. It is the bottom layer
// the round transport builds its typed sink/stream pair on top of.
package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
)

// MaxFrameSize bounds a single frame's payload. Frames larger than this
// are rejected rather than risking unbounded allocation.
const MaxFrameSize = 8 * 1024 * 1024 // 8 MiB

// ErrFrameTooLarge is returned by Recv when the peer announces a frame
// length exceeding MaxFrameSize.
var ErrFrameTooLarge = fmt.Errorf("wire: frame exceeds %d bytes", MaxFrameSize)

// Channel multiplexes length-prefixed frames over one connection. Reads
// and writes are independent: Send may be called concurrently with Recv
// from a different goroutine, since net.Conn itself permits a concurrent
// reader and writer.
type Channel struct {
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer

	sendMu sync.Mutex
}

// New wraps conn in a framed channel.
func New(conn net.Conn) *Channel {
	return &Channel{
		conn: conn,
		r:    bufio.NewReader(conn),
		w:    bufio.NewWriter(conn),
	}
}

// Send writes one frame: a 4-byte big-endian length header followed by
// payload. It does not block indefinitely beyond the underlying
// connection's own write behavior, and is safe for concurrent callers
// (writes are serialized under an internal lock so multiple producers
// can share one Channel if needed, though the round transport funnels
// all sends through a single forwarder goroutine per §4.2.3).
func (c *Channel) Send(payload []byte) error {
	if len(payload) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := c.w.Write(hdr[:]); err != nil {
		return fmt.Errorf("wire: write header: %w", err)
	}
	if _, err := c.w.Write(payload); err != nil {
		return fmt.Errorf("wire: write payload: %w", err)
	}
	return c.w.Flush()
}

// Recv reads the next frame, blocking until one arrives, the peer
// closes the connection (io.EOF), or a fatal frame error occurs (such
// as an oversized length header).
func (c *Channel) Recv() ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(c.r, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}
	return buf, nil
}

// Close closes the underlying connection. Any goroutine blocked in Recv
// or Send observes an error shortly after.
func (c *Channel) Close() error {
	return c.conn.Close()
}
