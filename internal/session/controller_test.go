package session_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/luxfi/tss-solana/internal/bus"
	"github.com/luxfi/tss-solana/internal/config"
	"github.com/luxfi/tss-solana/internal/party"
	"github.com/luxfi/tss-solana/internal/session"
	"github.com/luxfi/tss-solana/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// harness wires up two Controllers (party 0 and party 1) sharing one
// in-process bus, the way an orchestrator and two real nodes would share
// one Redis instance.
type harness struct {
	b          *bus.Memory
	dkgResults <-chan []byte
	signResults <-chan []byte
}

func newHarness(t *testing.T, dkgAddr, signAddr string) (*harness, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	b := bus.NewMemory()
	log := zap.NewNop()

	cfg0 := config.Config{NodeID: party.Zero, N: 2, DkgAddr: dkgAddr, SignAddr: signAddr, DefaultSession: "session-001"}
	cfg1 := config.Config{NodeID: party.One, N: 2, DkgAddr: dkgAddr, SignAddr: signAddr, DefaultSession: "session-001"}

	c0 := session.New(cfg0, b, store.New(), log)
	c1 := session.New(cfg1, b, store.New(), log)

	go func() { _ = c0.Run(ctx) }()
	go func() { _ = c1.Run(ctx) }()

	dkgResults, err := b.Subscribe(ctx, "dkg-result")
	require.NoError(t, err)
	signResults, err := b.Subscribe(ctx, "sign-result")
	require.NoError(t, err)

	// Let both controllers finish binding their listeners before the
	// test starts publishing requests.
	time.Sleep(50 * time.Millisecond)

	return &harness{b: b, dkgResults: dkgResults, signResults: signResults}, cancel
}

func recvResult(t *testing.T, ch <-chan []byte) session.Result {
	t.Helper()
	select {
	case raw := <-ch:
		var r session.Result
		require.NoError(t, json.Unmarshal(raw, &r))
		return r
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for result")
		return session.Result{}
	}
}

func TestFreshDKGScenario(t *testing.T) {
	h, cancel := newHarness(t, "127.0.0.1:17101", "127.0.0.1:17102")
	defer cancel()

	req, err := json.Marshal(map[string]string{"action": "startdkg", "session": "s-test-1", "id": "r-001"})
	require.NoError(t, err)
	require.NoError(t, h.b.Publish(context.Background(), "dkg-start", req))

	r1 := recvResult(t, h.dkgResults)
	r2 := recvResult(t, h.dkgResults)

	require.Equal(t, "r-001", r1.ID)
	require.Equal(t, "dkg-result", r1.ResultType)
	require.Equal(t, "r-001", r2.ID)
	require.Equal(t, r1.Data, r2.Data)
	require.NotEmpty(t, r1.Data)
}

func TestDKGThenSignScenario(t *testing.T) {
	h, cancel := newHarness(t, "127.0.0.1:17103", "127.0.0.1:17104")
	defer cancel()

	dkgReq, err := json.Marshal(map[string]string{"action": "startdkg", "session": "s-test-1", "id": "r-001"})
	require.NoError(t, err)
	require.NoError(t, h.b.Publish(context.Background(), "dkg-start", dkgReq))
	recvResult(t, h.dkgResults)
	recvResult(t, h.dkgResults)

	msg := base64.StdEncoding.EncodeToString([]byte("test"))
	signReq, err := json.Marshal(map[string]string{"action": "sign", "session": "s-test-1", "id": "r-002", "message": msg})
	require.NoError(t, err)
	require.NoError(t, h.b.Publish(context.Background(), "sign-start", signReq))

	s1 := recvResult(t, h.signResults)
	s2 := recvResult(t, h.signResults)
	require.Equal(t, "sign-result", s1.ResultType)
	require.Equal(t, s1.Data, s2.Data)
}

func TestTwoConcurrentSessionsScenario(t *testing.T) {
	h, cancel := newHarness(t, "127.0.0.1:17109", "127.0.0.1:17110")
	defer cancel()

	reqA, err := json.Marshal(map[string]string{"action": "startdkg", "session": "a", "id": "r-a"})
	require.NoError(t, err)
	reqB, err := json.Marshal(map[string]string{"action": "startdkg", "session": "b", "id": "r-b"})
	require.NoError(t, err)

	// Published in rapid succession, exactly as the scenario describes;
	// the two sessions run through the same Session Controller, Share
	// Store and bus instances and must not interfere with each other.
	require.NoError(t, h.b.Publish(context.Background(), "dkg-start", reqA))
	require.NoError(t, h.b.Publish(context.Background(), "dkg-start", reqB))

	byID := map[string][]session.Result{}
	for i := 0; i < 4; i++ {
		r := recvResult(t, h.dkgResults)
		byID[r.ID] = append(byID[r.ID], r)
	}

	require.Len(t, byID["r-a"], 2)
	require.Len(t, byID["r-b"], 2)
	require.Equal(t, "dkg-result", byID["r-a"][0].ResultType)
	require.Equal(t, "dkg-result", byID["r-b"][0].ResultType)
	require.Equal(t, byID["r-a"][0].Data, byID["r-a"][1].Data)
	require.Equal(t, byID["r-b"][0].Data, byID["r-b"][1].Data)
	require.NotEqual(t, byID["r-a"][0].Data, byID["r-b"][0].Data)
}

func TestSignWithoutDKGScenario(t *testing.T) {
	h, cancel := newHarness(t, "127.0.0.1:17105", "127.0.0.1:17106")
	defer cancel()

	req, err := json.Marshal(map[string]string{"action": "sign", "session": "nope", "id": "r-003", "message": "AA=="})
	require.NoError(t, err)
	require.NoError(t, h.b.Publish(context.Background(), "sign-start", req))

	s1 := recvResult(t, h.signResults)
	s2 := recvResult(t, h.signResults)
	require.Equal(t, "sign-error", s1.ResultType)
	require.Equal(t, "sign-error", s2.ResultType)
	require.Contains(t, s1.Error, "no share")
}
