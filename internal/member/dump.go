package member

import "distshm/internal/wire"

// handleDumpCache implements serve_dump_cache (§4.8): a read-only
// snapshot of this server's cache contents, for diagnostics and tests.
func (m *Member) handleDumpCache(req wire.Request) wire.Reply {
	return wire.Reply{
		Status:  wire.StatusSuccess,
		Message: "cache dump",
		Cache:   m.cache.Dump(),
	}
}
