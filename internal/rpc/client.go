package rpc

import (
	"context"
	"crypto/tls"
	"encoding/gob"
	"fmt"

	"github.com/google/uuid"
	"github.com/quic-go/quic-go"

	"github.com/orizon-lang/memplan/internal/exprtree"
	"github.com/orizon-lang/memplan/internal/planconfig"
	"github.com/orizon-lang/memplan/internal/target"
)

// NewRequestID mints a request identifier for a WireRequest, the same
// uuid.New().String() pattern used for token identity in this codebase's
// sriov token pool ancestry.
func NewRequestID() string { return uuid.New().String() }

// Client plans functions against a single remote memplan-serve endpoint
// over one QUIC connection, opened by Dial, and one stream per Plan call.
type Client struct {
	addr   string
	tlsCfg *tls.Config
	conn   *quic.Conn
}

// Dial opens the underlying QUIC connection to addr.
func Dial(ctx context.Context, addr string, tlsCfg *tls.Config) (*Client, error) {
	conn, err := quic.DialAddr(ctx, addr, ServeTLSConfig(tlsCfg), nil)
	if err != nil {
		return nil, fmt.Errorf("rpc: dial %s: %w", addr, err)
	}

	return &Client{addr: addr, tlsCfg: tlsCfg, conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.CloseWithError(0, "client closed")
}

// Plan sends a single Plan request over a fresh stream and returns the
// serialized results, keyed by producer NodeID.
func (c *Client) Plan(ctx context.Context, fn *exprtree.Function, tm target.Map, cfg planconfig.Config) (*WireResponse, error) {
	stream, err := c.conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("rpc: open stream: %w", err)
	}
	defer stream.Close()

	req := WireRequest{ID: NewRequestID(), Function: fn, Targets: tm, Config: cfg}

	if err := gob.NewEncoder(stream).Encode(&req); err != nil {
		return nil, fmt.Errorf("rpc: encode request: %w", err)
	}

	if err := stream.Close(); err != nil {
		return nil, fmt.Errorf("rpc: close write side: %w", err)
	}

	var resp WireResponse
	if err := gob.NewDecoder(stream).Decode(&resp); err != nil {
		return nil, fmt.Errorf("rpc: decode response: %w", err)
	}

	if resp.Err != "" {
		return nil, fmt.Errorf("rpc: remote plan failed: %s", resp.Err)
	}

	return &resp, nil
}
