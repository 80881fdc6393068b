package member

import (
	"context"

	"distshm/internal/metrics"
	"distshm/internal/wire"
)

// handleUpdateCache decodes a serve_update_cache request and applies it
// (§4.7 step 2): install into the local cache unless this server is
// home for the address, then forward the remainder of the chain.
func (m *Member) handleUpdateCache(req wire.Request) wire.Reply {
	var chain []wire.Endpoint
	var address int
	var data any
	var status string
	var wtag uint64

	if err := wire.Arg(req.Args, 0, &chain); err != nil {
		return errorReplyErr(err)
	}
	if err := wire.Arg(req.Args, 1, &address); err != nil {
		return errorReplyErr(err)
	}
	if err := wire.Arg(req.Args, 2, &data); err != nil {
		return errorReplyErr(err)
	}
	if err := wire.Arg(req.Args, 3, &status); err != nil {
		return errorReplyErr(err)
	}
	if err := wire.Arg(req.Args, 4, &wtag); err != nil {
		return errorReplyErr(err)
	}

	if !m.topo.InRange(address) {
		return invalidAddressReply()
	}
	if !m.topo.IsHome(address) {
		m.cache.Write(address, data, status, wtag)
	}
	return m.forwardChain(chain, address, data, status, wtag)
}

// forwardChain sends serve_update_cache to chain's head with the
// remainder of the chain as payload, annotating the reply with the
// first hop that failed if no deeper hop already did (§4.7 step 3).
// A chain passed here never includes the caller itself.
func (m *Member) forwardChain(chain []wire.Endpoint, address int, data any, status string, wtag uint64) wire.Reply {
	if len(chain) == 0 {
		return wire.Reply{Status: wire.StatusSuccess, Message: "cache updated"}
	}

	head := chain[0]
	rest := append([]wire.Endpoint(nil), chain[1:]...)

	req, err := wire.NewRequest(wire.TypeServeUpdateCache, rest, address, data, status, wtag)
	if err != nil {
		return errorReplyErr(err)
	}

	reply, err := m.peer(head).Call(context.Background(), req)
	if err != nil {
		reply = wire.Reply{Status: wire.StatusError, Message: err.Error()}
	}
	if reply.Status != wire.StatusSuccess && reply.ServerAddress == nil {
		reply.ServerAddress = []any{head.Host, head.Port}
	}
	return reply
}

// triggerCoherence cascades a write-update to every copy holder of
// address and prunes the chain from the first failing hop onward
// (§4.7). It must be called while address's lease-lock is still held by
// the caller's write handler, and must never itself try to acquire that
// lock (it only ever touches peers' cache slots).
func (m *Member) triggerCoherence(address int, data any, status string, wtag uint64, holders []wire.Endpoint) {
	metrics.CoherenceChainLength.Observe(float64(len(holders)))
	if len(holders) == 0 {
		return
	}

	reply := m.forwardChain(holders, address, data, status, wtag)
	if reply.Status == wire.StatusSuccess {
		return
	}

	metrics.CoherenceFailures.Inc()
	failing := holders[0]
	if ep, ok := decodeFailedHop(reply.ServerAddress); ok {
		failing = ep
	}
	m.store.RemoveHoldersFrom(address, failing)
}
