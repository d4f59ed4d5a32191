package engine_test

import (
	"net"
	"testing"

	"github.com/luxfi/tss-solana/internal/engine"
	"github.com/luxfi/tss-solana/internal/party"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runDKG(t *testing.T, sessionA, sessionB []byte) (engine.Share, error, engine.Share, error) {
	t.Helper()
	connA, connB := net.Pipe()
	defer connA.Close()
	defer connB.Close()

	type result struct {
		share engine.Share
		err   error
	}
	resA := make(chan result, 1)
	resB := make(chan result, 1)

	go func() {
		s, err := engine.GenerateShare(connA, party.Zero, 2, sessionA)
		resA <- result{s, err}
	}()
	go func() {
		s, err := engine.GenerateShare(connB, party.One, 2, sessionB)
		resB <- result{s, err}
	}()

	ra := <-resA
	rb := <-resB
	return ra.share, ra.err, rb.share, rb.err
}

func TestDKGAgreementOnSharedPublicKey(t *testing.T) {
	shareA, errA, shareB, errB := runDKG(t, []byte("s-test-1"), []byte("s-test-1"))
	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, shareA.SharedPublicKey, shareB.SharedPublicKey)
	assert.Equal(t, party.Zero, shareA.PartyIndex)
	assert.Equal(t, party.One, shareB.PartyIndex)
}

func TestDKGDistinctSessionsYieldDistinctKeys(t *testing.T) {
	share1A, err1A, share1B, err1B := runDKG(t, []byte("a"), []byte("a"))
	require.NoError(t, err1A)
	require.NoError(t, err1B)

	share2A, err2A, share2B, err2B := runDKG(t, []byte("b"), []byte("b"))
	require.NoError(t, err2A)
	require.NoError(t, err2B)

	assert.NotEqual(t, share1A.SharedPublicKey, share2A.SharedPublicKey)
	assert.Equal(t, share1B.SharedPublicKey, share1A.SharedPublicKey)
	assert.Equal(t, share2B.SharedPublicKey, share2A.SharedPublicKey)
}

func TestDKGMismatchedSessionFails(t *testing.T) {
	_, errA, _, errB := runDKG(t, []byte("x"), []byte("y"))
	assert.Error(t, errA)
	assert.Error(t, errB)
}
