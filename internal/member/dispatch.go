package member

import "distshm/internal/wire"

// dispatch routes one decoded request to its handler (§4.3). The second
// return value is false when the connection should close after this
// reply, which happens only for a disconnect request.
func (m *Member) dispatch(req wire.Request) (wire.Reply, bool) {
	switch req.Type {
	case wire.TypeDisconnect:
		return wire.Reply{Status: wire.StatusSuccess, Message: "disconnected"}, false

	case wire.TypeServeRead:
		return m.handleRead(req), true

	case wire.TypeServeWrite:
		return m.handleWrite(req), true

	case wire.TypeServeAcquireLock:
		return m.handleAcquireLock(req), true

	case wire.TypeServeReleaseLock:
		return m.handleReleaseLock(req), true

	case wire.TypeServeUpdateCache:
		return m.handleUpdateCache(req), true

	case wire.TypeServeDumpCache:
		return m.handleDumpCache(req), true

	default:
		return wire.Reply{Status: wire.StatusInvalidOperation, Message: "invalid message type"}, true
	}
}
