package member

import (
	"context"

	"distshm/internal/cache"
	"distshm/internal/wire"
)

// handleRead decodes a serve_read request and dispatches it (§4.4).
func (m *Member) handleRead(req wire.Request) wire.Reply {
	var host string
	var port, address int
	var cascade bool
	if err := wire.Arg(req.Args, 0, &host); err != nil {
		return errorReplyErr(err)
	}
	if err := wire.Arg(req.Args, 1, &port); err != nil {
		return errorReplyErr(err)
	}
	if err := wire.Arg(req.Args, 2, &address); err != nil {
		return errorReplyErr(err)
	}
	if err := wire.Arg(req.Args, 3, &cascade); err != nil {
		return errorReplyErr(err)
	}
	return m.serveRead(wire.Endpoint{Host: host, Port: port}, address, cascade)
}

// serveRead implements the three-way classification of §4.4: owned
// locally, present in the local cache (validated against home before
// being trusted), or neither (forwarded on, never served directly).
func (m *Member) serveRead(requester wire.Endpoint, address int, cascade bool) wire.Reply {
	for {
		if !m.topo.InRange(address) {
			return invalidAddressReply()
		}
		if m.topo.IsHome(address) {
			return m.readHome(requester, address, cascade)
		}
		if entry, ok := m.cache.Read(address); ok {
			reply, restart := m.readCacheValidated(address, entry)
			if restart {
				continue
			}
			return reply
		}
		if !cascade {
			return misroutedReply()
		}
		return m.readRemote(address)
	}
}

func (m *Member) readHome(requester wire.Endpoint, address int, cascade bool) wire.Reply {
	ok, ltag, _, err := m.store.AcquireLock(address, 0)
	if err != nil {
		return errorReplyErr(err)
	}
	if !ok {
		return errorReply("could not acquire address lock")
	}

	if !cascade && requester != m.self {
		if _, err := m.store.AddHolder(address, requester); err != nil {
			m.store.ReleaseLock(address, ltag)
			return errorReplyErr(err)
		}
	}

	snap, err := m.store.Read(address)
	if err != nil {
		m.store.ReleaseLock(address, ltag)
		return errorReplyErr(err)
	}

	m.store.ReleaseLock(address, ltag)

	// The reply carries the ltag observed at acquire time, not the tag
	// produced by the release that immediately follows it.
	return wire.Reply{
		Status:  wire.StatusSuccess,
		Message: "read successful",
		Data:    snap.Data,
		IStatus: snap.Status,
		WTag:    wire.Uint64Ptr(snap.WTag),
		LTag:    wire.Uint64Ptr(ltag),
	}
}

// readCacheValidated re-validates a cached entry against its home
// before trusting it (§4.4 step 3). restart=true means the stale entry
// has already been evicted here and serveRead should re-classify from
// scratch.
func (m *Member) readCacheValidated(address int, entry cache.Entry) (wire.Reply, bool) {
	homeEP, err := wire.ParseEndpoint(m.topo.HomeEndpoint(address))
	if err != nil {
		return errorReplyErr(err), false
	}
	client := m.peer(homeEP)
	ctx := context.Background()

	acqReq, err := wire.NewRequest(wire.TypeServeAcquireLock, address, m.leaseTimeout.Milliseconds(), true)
	if err != nil {
		return errorReplyErr(err), false
	}
	acq, err := client.Call(ctx, acqReq)
	if err != nil {
		return errorReplyErr(err), false
	}
	if acq.Status != wire.StatusSuccess || acq.LTag == nil || acq.WTag == nil {
		return acq, false
	}

	if *acq.WTag != entry.WTag {
		// Stale: evict, release what we just acquired, and restart.
		m.cache.Remove(address)
		relReq, _ := wire.NewRequest(wire.TypeServeReleaseLock, address, *acq.LTag, true)
		client.Call(ctx, relReq)
		return wire.Reply{}, true
	}

	relReq, err := wire.NewRequest(wire.TypeServeReleaseLock, address, *acq.LTag, true)
	if err != nil {
		return errorReplyErr(err), false
	}
	rel, err := client.Call(ctx, relReq)
	if err != nil || rel.Status != wire.StatusSuccess {
		m.cache.Remove(address)
		return errorReply("failed to release lock"), false
	}
	if rel.WTag != nil && *rel.WTag != entry.WTag {
		m.cache.Remove(address)
		return wire.Reply{}, true
	}

	return wire.Reply{
		Status:  wire.StatusSuccess,
		Message: "read successful",
		Data:    entry.Data,
		IStatus: entry.Status,
		WTag:    wire.Uint64Ptr(entry.WTag),
		LTag:    acq.LTag,
	}, false
}

func (m *Member) readRemote(address int) wire.Reply {
	homeEP, err := wire.ParseEndpoint(m.topo.HomeEndpoint(address))
	if err != nil {
		return errorReplyErr(err)
	}

	req, err := wire.NewRequest(wire.TypeServeRead, m.self.Host, m.self.Port, address, false)
	if err != nil {
		return errorReplyErr(err)
	}

	reply, err := m.peer(homeEP).Call(context.Background(), req)
	if err != nil {
		return errorReplyErr(err)
	}
	if reply.Status == wire.StatusSuccess && reply.WTag != nil {
		m.cache.Write(address, reply.Data, reply.IStatus, *reply.WTag)
	}
	return reply
}
