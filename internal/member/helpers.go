package member

import "distshm/internal/wire"

func invalidAddressReply() wire.Reply {
	return wire.Reply{Status: wire.StatusInvalidAddress, Message: "memory address out of range"}
}

func errorReply(msg string) wire.Reply {
	return wire.Reply{Status: wire.StatusError, Message: msg}
}

func errorReplyErr(err error) wire.Reply {
	return wire.Reply{Status: wire.StatusError, Message: err.Error()}
}

func misroutedReply() wire.Reply {
	return errorReply("request landed on a non-home server with cascade=false")
}

// decodeFailedHop extracts the [host, port] pair annotated on a
// serve_update_cache reply. The pair may come straight from this
// process (Go int) or have round-tripped through JSON (float64).
func decodeFailedHop(v []any) (wire.Endpoint, bool) {
	if len(v) != 2 {
		return wire.Endpoint{}, false
	}
	host, ok := v[0].(string)
	if !ok {
		return wire.Endpoint{}, false
	}
	switch p := v[1].(type) {
	case float64:
		return wire.Endpoint{Host: host, Port: int(p)}, true
	case int:
		return wire.Endpoint{Host: host, Port: p}, true
	}
	return wire.Endpoint{}, false
}
