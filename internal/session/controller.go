// Package session implements the Session Controller: a pub/sub-driven
// dispatcher that binds external session identifiers to in-memory key
// shares, gates concurrent DKG and signing sessions, and publishes
// structured results.
package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/luxfi/tss-solana/internal/bus"
	"github.com/luxfi/tss-solana/internal/config"
	"github.com/luxfi/tss-solana/internal/engine"
	"github.com/luxfi/tss-solana/internal/errs"
	"github.com/luxfi/tss-solana/internal/party"
	"github.com/luxfi/tss-solana/internal/store"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// dedupWindow bounds how long a (session, id) pair is remembered to
// suppress at-least-once bus redelivery.
const dedupWindow = 30 * time.Second

// Controller owns the long-lived state of one node: its Share Store and
// its event bus connection. DKG and signing dispatch run as two
// independent goroutines sharing the store under its own lock.
type Controller struct {
	cfg     config.Config
	bus     bus.Bus
	store   *store.Store
	adapter *engine.Adapter
	log     *zap.Logger
	dedup   *dedupSet
}

// New constructs a Controller. The caller retains ownership of bus and
// must Close it after Run returns.
func New(cfg config.Config, b bus.Bus, st *store.Store, log *zap.Logger) *Controller {
	return &Controller{
		cfg:     cfg,
		bus:     b,
		store:   st,
		adapter: engine.NewAdapter(),
		log:     log,
		dedup:   newDedupSet(dedupWindow),
	}
}

// Run blocks until ctx is canceled or one of the dispatchers fails to
// even subscribe (BusUnavailable); a single session's protocol failure
// never stops the loops.
func (c *Controller) Run(ctx context.Context) error {
	var dkgListener, signListener net.Listener
	if c.cfg.NodeID == party.Zero {
		var err error
		dkgListener, err = net.Listen("tcp", c.cfg.DkgAddr)
		if err != nil {
			return errs.New(errs.ConfigError, "session.Run", fmt.Errorf("listen dkg addr: %w", err))
		}
		defer dkgListener.Close()

		signListener, err = net.Listen("tcp", c.cfg.SignAddr)
		if err != nil {
			return errs.New(errs.ConfigError, "session.Run", fmt.Errorf("listen sign addr: %w", err))
		}
		defer signListener.Close()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.runDkgDispatcher(ctx, dkgListener) })
	g.Go(func() error { return c.runSignDispatcher(ctx, signListener) })
	return g.Wait()
}

// connect establishes the one connection a single protocol run uses:
// party 0 accepts on listener, party 1 dials addr. Exactly one call per
// request.
func (c *Controller) connect(listener net.Listener, addr string) (net.Conn, error) {
	if c.cfg.NodeID == party.Zero {
		conn, err := listener.Accept()
		if err != nil {
			return nil, errs.New(errs.TransportError, "session.connect", err)
		}
		return conn, nil
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errs.New(errs.TransportError, "session.connect", err)
	}
	return conn, nil
}

func (c *Controller) runDkgDispatcher(ctx context.Context, listener net.Listener) error {
	msgs, err := c.bus.Subscribe(ctx, topicDkgStart)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-msgs:
			if !ok {
				return nil
			}
			c.handleDkgRequest(ctx, listener, raw)
		}
	}
}

func (c *Controller) handleDkgRequest(ctx context.Context, listener net.Listener, raw []byte) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		c.log.Warn("bad dkg-start payload", zap.Error(err))
		return
	}
	if req.Action != actionStartDKG {
		return
	}
	session := req.Session
	if session == "" {
		session = c.cfg.DefaultSession
	}
	if c.dedup.seenBefore("dkg:" + session + ":" + req.ID) {
		return
	}

	if c.store.Has(c.cfg.NodeID, session) {
		c.publishDkgError(ctx, req.ID, fmt.Sprintf("session %q already provisioned", session))
		return
	}

	conn, err := c.connect(listener, c.cfg.DkgAddr)
	if err != nil {
		c.log.Error("dkg connect failed", zap.String("session", session), zap.Error(err))
		c.publishDkgError(ctx, req.ID, err.Error())
		return
	}
	defer conn.Close()

	share, err := c.adapter.GenerateShare(conn, c.cfg.NodeID, c.cfg.N, []byte(session))
	if err != nil {
		c.log.Error("dkg failed", zap.String("session", session), zap.Error(err))
		c.publishDkgError(ctx, req.ID, err.Error())
		return
	}
	if err := c.store.Put(c.cfg.NodeID, session, share); err != nil {
		c.log.Error("share store put failed", zap.String("session", session), zap.Error(err))
		c.publishDkgError(ctx, req.ID, err.Error())
		return
	}

	pubkey := base58.Encode(share.SharedPublicKey[:])
	c.publish(ctx, topicDkgResult, Result{
		ID:         req.ID,
		ResultType: resultDkgResult,
		Data:       pubkey,
		ServerID:   int(c.cfg.NodeID),
	})
}

func (c *Controller) runSignDispatcher(ctx context.Context, listener net.Listener) error {
	msgs, err := c.bus.Subscribe(ctx, topicSignStart)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-msgs:
			if !ok {
				return nil
			}
			c.handleSignRequest(ctx, listener, raw)
		}
	}
}

func (c *Controller) handleSignRequest(ctx context.Context, listener net.Listener, raw []byte) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		c.log.Warn("bad sign-start payload", zap.Error(err))
		return
	}
	if req.Action != actionSign {
		return
	}
	session := req.Session
	if session == "" {
		session = c.cfg.DefaultSession
	}
	if c.dedup.seenBefore("sign:" + session + ":" + req.ID) {
		return
	}

	// Share Store lookup happens before any TCP accept/dial: signing a
	// session with no share must not consume a connection attempt.
	share, ok := c.store.Get(c.cfg.NodeID, session)
	if !ok {
		c.publishSignError(ctx, req.ID, fmt.Sprintf("no share found for node %d session %q", c.cfg.NodeID, session))
		return
	}

	message, err := base64.StdEncoding.DecodeString(req.Message)
	if err != nil {
		c.log.Warn("bad sign message encoding", zap.String("session", session), zap.Error(err))
		c.publishSignError(ctx, req.ID, "message is not valid base64")
		return
	}

	conn, err := c.connect(listener, c.cfg.SignAddr)
	if err != nil {
		c.log.Error("sign connect failed", zap.String("session", session), zap.Error(err))
		c.publishSignError(ctx, req.ID, err.Error())
		return
	}
	defer conn.Close()

	r, z, err := c.adapter.RunSigning(c.cfg.NodeID, share, conn, message)
	if err != nil {
		c.log.Error("signing failed", zap.String("session", session), zap.Error(err))
		c.publishSignError(ctx, req.ID, err.Error())
		return
	}

	sig := append(append([]byte{}, r[:]...), z[:]...)
	c.publish(ctx, topicSignResult, Result{
		ID:         req.ID,
		ResultType: resultSignResult,
		Data:       base58.Encode(sig),
		ServerID:   int(c.cfg.NodeID),
	})
}

func (c *Controller) publishDkgError(ctx context.Context, id, errMsg string) {
	c.publish(ctx, topicDkgResult, Result{
		ID:         id,
		ResultType: resultDkgError,
		Error:      errMsg,
		ServerID:   int(c.cfg.NodeID),
	})
}

func (c *Controller) publishSignError(ctx context.Context, id, errMsg string) {
	c.publish(ctx, topicSignResult, Result{
		ID:         id,
		ResultType: resultSignError,
		Error:      errMsg,
		ServerID:   int(c.cfg.NodeID),
	})
}

func (c *Controller) publish(ctx context.Context, topic string, result Result) {
	payload, err := json.Marshal(result)
	if err != nil {
		c.log.Error("marshal result failed", zap.Error(err))
		return
	}
	if err := c.bus.Publish(ctx, topic, payload); err != nil {
		c.log.Error("publish failed", zap.String("topic", topic), zap.Error(err))
	}
}
