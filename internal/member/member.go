// Package member implements the per-process cluster member of spec.md
// §4.3-§4.8: the connection acceptor, the stateless request dispatcher,
// the home-vs-cache-vs-remote request handlers, and the chained cache
// coherence engine. It is the server half of the system; client behavior
// is out of scope (§1 Non-goals).
package member

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"distshm/internal/cache"
	"distshm/internal/config"
	"distshm/internal/logging"
	"distshm/internal/memstore"
	"distshm/internal/metrics"
	"distshm/internal/rpcclient"
	"distshm/internal/topology"
	"distshm/internal/wire"
)

// Member is one server in the cluster: it owns a contiguous range of the
// global address space (memstore.Store), caches addresses it does not
// own (cache.Cache), and answers both client and peer requests over the
// wire protocol of §6.
type Member struct {
	cfg    *config.Config
	topo   *topology.Topology
	logger zerolog.Logger

	self  wire.Endpoint
	store *memstore.Store
	cache *cache.Cache

	connTimeout  time.Duration
	leaseTimeout time.Duration

	acceptLimiter *rate.Limiter

	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	conns        sync.Map // net.Conn -> struct{}, tracked for forced close on shutdown
	activeConns  int64
	shuttingDown int32
}

// New builds a Member for the address range and endpoint assigned to it
// by topo.
func New(cfg *config.Config, topo *topology.Topology, logger zerolog.Logger) (*Member, error) {
	self, err := wire.ParseEndpoint(topo.SelfEndpoint())
	if err != nil {
		return nil, fmt.Errorf("parse self endpoint: %w", err)
	}

	r := topo.SelfRange()
	return &Member{
		cfg:           cfg,
		topo:          topo,
		logger:        logger,
		self:          self,
		store:         memstore.New(r.Low, r.High),
		cache:         cache.New(cfg.CacheSize),
		connTimeout:   cfg.ConnectionTimeout,
		leaseTimeout:  cfg.LeaseTimeout,
		acceptLimiter: rate.NewLimiter(rate.Limit(cfg.AcceptRate), cfg.AcceptBurst),
	}, nil
}

// peer builds a short-lived RPC client to another member's endpoint.
func (m *Member) peer(ep wire.Endpoint) *rpcclient.Client {
	return rpcclient.New(ep.String(), m.connTimeout)
}

// Start binds the listening socket and begins accepting connections in
// the background. It returns once the socket is bound.
func (m *Member) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.self.String())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", m.self, err)
	}
	m.listener = ln
	m.ctx, m.cancel = context.WithCancel(ctx)

	m.logger.Info().Str("addr", m.self.String()).Msg("member listening")

	m.wg.Add(1)
	go m.acceptLoop()
	return nil
}

func (m *Member) acceptLoop() {
	defer m.wg.Done()

	for {
		if err := m.acceptLimiter.Wait(m.ctx); err != nil {
			return // context cancelled during shutdown
		}

		conn, err := m.listener.Accept()
		if err != nil {
			if atomic.LoadInt32(&m.shuttingDown) == 1 {
				return
			}
			logging.RecoverPanic(m.logger, "accept-loop", nil)
			m.logger.Warn().Err(err).Msg("accept failed")
			continue
		}

		metrics.ConnectionsAccepted.Inc()
		metrics.ConnectionsActive.Inc()
		atomic.AddInt64(&m.activeConns, 1)

		m.wg.Add(1)
		go m.handleConn(conn)
	}
}

// handleConn services one accepted connection: read a request, dispatch
// it, write a reply, repeat until disconnect or I/O error (§4.3). A
// panic in any single request's handling is confined to this connection.
func (m *Member) handleConn(conn net.Conn) {
	m.conns.Store(conn, struct{}{})

	defer m.wg.Done()
	defer conn.Close()
	defer func() {
		m.conns.Delete(conn)
		metrics.ConnectionsActive.Dec()
		atomic.AddInt64(&m.activeConns, -1)
	}()
	defer logging.RecoverPanic(m.logger, "connection-handler", map[string]any{"remote": conn.RemoteAddr().String()})

	for {
		req, err := wire.ReadRequest(conn)
		if err != nil {
			return
		}

		reply, keepGoing := m.dispatch(req)

		metrics.RequestsTotal.WithLabelValues(req.Type, statusLabel(reply.Status)).Inc()

		if err := wire.WriteReply(conn, reply); err != nil {
			m.logger.Debug().Err(err).Msg("failed to write reply, closing connection")
			return
		}
		if !keepGoing {
			return
		}
	}
}

func statusLabel(status int) string {
	switch status {
	case wire.StatusSuccess:
		return "success"
	case wire.StatusInvalidAddress:
		return "invalid_address"
	case wire.StatusInvalidOperation:
		return "invalid_operation"
	default:
		return "error"
	}
}

// Shutdown stops accepting new connections, drains in-flight ones for up
// to gracePeriod, then force-closes whatever remains.
func (m *Member) Shutdown(gracePeriod time.Duration) error {
	atomic.StoreInt32(&m.shuttingDown, 1)
	if m.listener != nil {
		m.listener.Close()
	}
	if m.cancel != nil {
		m.cancel()
	}

	deadline := time.After(gracePeriod)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if atomic.LoadInt64(&m.activeConns) == 0 {
			break
		}
		select {
		case <-deadline:
			m.logger.Warn().Int64("remaining", atomic.LoadInt64(&m.activeConns)).Msg("shutdown grace period expired, forcing close")
			m.conns.Range(func(key, _ any) bool {
				key.(net.Conn).Close()
				return true
			})
			goto wait
		case <-ticker.C:
		}
	}

wait:
	m.wg.Wait()
	m.logger.Info().Msg("member shut down")
	return nil
}
