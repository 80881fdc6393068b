package member

import (
	"context"

	"distshm/internal/wire"
)

// handleWrite decodes a serve_write request and dispatches it (§4.5).
func (m *Member) handleWrite(req wire.Request) wire.Reply {
	var host string
	var port, address int
	var data any
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
	if err := wire.Arg(req.Args, 3, &data); err != nil {
		return errorReplyErr(err)
	}
	if err := wire.Arg(req.Args, 4, &cascade); err != nil {
		return errorReplyErr(err)
	}
	return m.serveWrite(wire.Endpoint{Host: host, Port: port}, address, data, cascade)
}

func (m *Member) serveWrite(requester wire.Endpoint, address int, data any, cascade bool) wire.Reply {
	if !m.topo.InRange(address) {
		return invalidAddressReply()
	}

	if m.topo.IsHome(address) {
		return m.writeHome(requester, address, data, cascade)
	}

	if !cascade {
		return misroutedReply()
	}
	return m.writeRemote(address, data)
}

func (m *Member) writeHome(requester wire.Endpoint, address int, data any, cascade bool) wire.Reply {
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

	snap, err := m.store.Write(address, data)
	if err != nil {
		m.store.ReleaseLock(address, ltag)
		return errorReplyErr(err)
	}

	// The coherence cascade runs while this address's lock is still
	// held: it only ever touches peers' cache slots, never a lock, so
	// it cannot deadlock against this hold (§5).
	if snap.Status == wire.StatusS {
		m.triggerCoherence(address, snap.Data, snap.Status, snap.WTag, snap.Holders)
	}

	m.store.ReleaseLock(address, ltag)

	return wire.Reply{Status: wire.StatusSuccess, Message: "write successful"}
}

func (m *Member) writeRemote(address int, data any) wire.Reply {
	homeEP, err := wire.ParseEndpoint(m.topo.HomeEndpoint(address))
	if err != nil {
		return errorReplyErr(err)
	}
	req, err := wire.NewRequest(wire.TypeServeWrite, m.self.Host, m.self.Port, address, data, false)
	if err != nil {
		return errorReplyErr(err)
	}
	reply, err := m.peer(homeEP).Call(context.Background(), req)
	if err != nil {
		return errorReplyErr(err)
	}
	return reply
}
