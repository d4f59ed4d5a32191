package store_test

import (
	"testing"

	"github.com/luxfi/tss-solana/internal/engine"
	"github.com/luxfi/tss-solana/internal/party"
	"github.com/luxfi/tss-solana/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutThenGet(t *testing.T) {
	s := store.New()
	share := engine.Share{PartyIndex: party.Zero, Threshold: 2}

	require.NoError(t, s.Put(party.Zero, "sess", share))

	got, ok := s.Get(party.Zero, "sess")
	require.True(t, ok)
	assert.Equal(t, share.PartyIndex, got.PartyIndex)
}

func TestGetMissingReturnsFalse(t *testing.T) {
	s := store.New()
	_, ok := s.Get(party.Zero, "nope")
	assert.False(t, ok)
}

func TestPutTwiceFails(t *testing.T) {
	s := store.New()
	share := engine.Share{PartyIndex: party.Zero}
	require.NoError(t, s.Put(party.Zero, "sess", share))
	err := s.Put(party.Zero, "sess", share)
	assert.Error(t, err)
}

func TestImmutableAcrossReads(t *testing.T) {
	s := store.New()
	share := engine.Share{PartyIndex: party.One, SharedPublicKey: [32]byte{1, 2, 3}}
	require.NoError(t, s.Put(party.One, "sess", share))

	first, _ := s.Get(party.One, "sess")
	second, _ := s.Get(party.One, "sess")
	assert.Equal(t, first.SharedPublicKey, second.SharedPublicKey)
}
