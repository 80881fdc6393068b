package member

import (
	"context"
	"time"

	"distshm/internal/wire"
)

// handleAcquireLock decodes a serve_acquire_lock request and dispatches
// it (§4.6).
func (m *Member) handleAcquireLock(req wire.Request) wire.Reply {
	var address int
	var leaseMillis int64
	var cascade bool
	if err := wire.Arg(req.Args, 0, &address); err != nil {
		return errorReplyErr(err)
	}
	if err := wire.Arg(req.Args, 1, &leaseMillis); err != nil {
		return errorReplyErr(err)
	}
	if err := wire.Arg(req.Args, 2, &cascade); err != nil {
		return errorReplyErr(err)
	}
	return m.serveAcquireLock(address, time.Duration(leaseMillis)*time.Millisecond, cascade)
}

func (m *Member) serveAcquireLock(address int, leaseDuration time.Duration, cascade bool) wire.Reply {
	if !m.topo.InRange(address) {
		return invalidAddressReply()
	}

	if m.topo.IsHome(address) {
		ok, ltag, wtag, err := m.store.AcquireLock(address, leaseDuration)
		if err != nil {
			return errorReplyErr(err)
		}
		if !ok {
			return errorReply("lock not acquired")
		}
		return wire.Reply{
			Status:  wire.StatusSuccess,
			Message: "lock acquired",
			RetVal:  wire.BoolPtr(true),
			LTag:    wire.Uint64Ptr(ltag),
			WTag:    wire.Uint64Ptr(wtag),
		}
	}

	if !cascade {
		return misroutedReply()
	}
	return m.forwardAcquireLock(address, leaseDuration)
}

func (m *Member) forwardAcquireLock(address int, leaseDuration time.Duration) wire.Reply {
	homeEP, err := wire.ParseEndpoint(m.topo.HomeEndpoint(address))
	if err != nil {
		return errorReplyErr(err)
	}
	req, err := wire.NewRequest(wire.TypeServeAcquireLock, address, leaseDuration.Milliseconds(), false)
	if err != nil {
		return errorReplyErr(err)
	}
	reply, err := m.peer(homeEP).Call(context.Background(), req)
	if err != nil {
		return errorReplyErr(err)
	}
	return reply
}

// handleReleaseLock decodes a serve_release_lock request and dispatches
// it (§4.6).
func (m *Member) handleReleaseLock(req wire.Request) wire.Reply {
	var address int
	var ltag uint64
	var cascade bool
	if err := wire.Arg(req.Args, 0, &address); err != nil {
		return errorReplyErr(err)
	}
	if err := wire.Arg(req.Args, 1, &ltag); err != nil {
		return errorReplyErr(err)
	}
	if err := wire.Arg(req.Args, 2, &cascade); err != nil {
		return errorReplyErr(err)
	}
	return m.serveReleaseLock(address, ltag, cascade)
}

func (m *Member) serveReleaseLock(address int, ltag uint64, cascade bool) wire.Reply {
	if !m.topo.InRange(address) {
		return invalidAddressReply()
	}

	if m.topo.IsHome(address) {
		ok, newLtag, wtag, err := m.store.ReleaseLock(address, ltag)
		if err != nil {
			return errorReplyErr(err)
		}
		msg := "lock was already released"
		if ok {
			msg = "lock released"
		}
		// Release always reports SUCCESS; ret_val distinguishes whether
		// this call was the one that actually released the lock.
		return wire.Reply{
			Status:  wire.StatusSuccess,
			Message: msg,
			RetVal:  wire.BoolPtr(ok),
			LTag:    wire.Uint64Ptr(newLtag),
			WTag:    wire.Uint64Ptr(wtag),
		}
	}

	if !cascade {
		return misroutedReply()
	}
	return m.forwardReleaseLock(address, ltag)
}

func (m *Member) forwardReleaseLock(address int, ltag uint64) wire.Reply {
	homeEP, err := wire.ParseEndpoint(m.topo.HomeEndpoint(address))
	if err != nil {
		return errorReplyErr(err)
	}
	req, err := wire.NewRequest(wire.TypeServeReleaseLock, address, ltag, false)
	if err != nil {
		return errorReplyErr(err)
	}
	reply, err := m.peer(homeEP).Call(context.Background(), req)
	if err != nil {
		return errorReplyErr(err)
	}
	return reply
}
