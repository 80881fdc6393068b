// Package rpcclient implements the short-lived outbound peer connection
// used to forward requests to another cluster member (spec.md §4.4,
// §4.9): dial, send one framed request, read one framed reply, close.
// There is no connection pooling or session state — each call is an
// independent TCP round trip, matching the dispatcher's statelessness
// (§4.3).
package rpcclient

import (
	"context"
	"fmt"
	"net"
	"time"

	"distshm/internal/wire"
)

// Client issues one-shot RPCs to a single peer endpoint.
type Client struct {
	addr    string
	timeout time.Duration
}

// New builds a Client that dials addr ("host:port") with the given
// connect timeout.
func New(addr string, timeout time.Duration) *Client {
	return &Client{addr: addr, timeout: timeout}
}

// Call dials the peer, sends req, reads the reply, and closes the
// connection — guaranteeing the connection is released on every path,
// including a context cancellation or a mid-call I/O error.
func (c *Client) Call(ctx context.Context, req wire.Request) (wire.Reply, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, "tcp", c.addr)
	if err != nil {
		return wire.Reply{}, fmt.Errorf("dial %s: %w", c.addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(c.timeout))
	}

	if err := wire.WriteRequest(conn, req); err != nil {
		return wire.Reply{}, fmt.Errorf("send request to %s: %w", c.addr, err)
	}

	reply, err := wire.ReadReply(conn)
	if err != nil {
		return wire.Reply{}, fmt.Errorf("read reply from %s: %w", c.addr, err)
	}
	return reply, nil
}
