package rpc

import (
	"context"
	"crypto/tls"
	"encoding/gob"
	"fmt"

	"github.com/quic-go/quic-go"
	"golang.org/x/sync/errgroup"

	"github.com/orizon-lang/memplan/internal/planlog"
	"github.com/orizon-lang/memplan/internal/storage"
)

// Server accepts QUIC connections and plans one request per stream. Every
// accepted connection and every stream on it are handled concurrently
// (spec §5 confines concurrency to between independent Plan calls, never
// within one).
type Server struct {
	Log *planlog.Logger
}

// NewServer creates a Server logging to log, or planlog.Default() if nil.
func NewServer(log *planlog.Logger) *Server {
	if log == nil {
		log = planlog.Default()
	}

	return &Server{Log: log}
}

// ServeTLSConfig returns the TLS configuration quic-go requires, following
// the same TLS 1.3-minimum, fixed-ALPN pattern as
// internal/runtime/netstack/http3.go's HTTP/3 server, with "memplan-rpc" in
// place of "h3".
func ServeTLSConfig(base *tls.Config) *tls.Config {
	if base == nil {
		return &tls.Config{MinVersion: tls.VersionTLS13, NextProtos: []string{"memplan-rpc"}}
	}

	c := base.Clone()
	if c.MinVersion < tls.VersionTLS13 {
		c.MinVersion = tls.VersionTLS13
	}

	if len(c.NextProtos) == 0 {
		c.NextProtos = []string{"memplan-rpc"}
	}

	return c
}

// ListenAndServe listens on addr and serves until ctx is cancelled or
// accepting fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string, tlsCfg *tls.Config) error {
	ln, err := quic.ListenAddr(addr, ServeTLSConfig(tlsCfg), nil)
	if err != nil {
		return fmt.Errorf("rpc: listen %s: %w", addr, err)
	}
	defer ln.Close()

	g, gctx := errgroup.WithContext(ctx)

	for {
		conn, err := ln.Accept(gctx)
		if err != nil {
			if gctx.Err() != nil {
				break
			}

			return fmt.Errorf("rpc: accept: %w", err)
		}

		g.Go(func() error {
			s.serveConn(gctx, conn)
			return nil
		})
	}

	return g.Wait()
}

func (s *Server) serveConn(ctx context.Context, conn *quic.Conn) {
	g, gctx := errgroup.WithContext(ctx)

	for {
		stream, err := conn.AcceptStream(gctx)
		if err != nil {
			break
		}

		g.Go(func() error {
			s.serveStream(stream)
			return nil
		})
	}

	_ = g.Wait()
}

func (s *Server) serveStream(stream *quic.Stream) {
	defer stream.Close()

	var req WireRequest

	if err := gob.NewDecoder(stream).Decode(&req); err != nil {
		s.Log.Info(planlog.CatRPC, "decode request failed: %v", err)
		return
	}

	s.Log.Info(planlog.CatRPC, "request %s: planning function %s", req.ID, req.Function.Name)

	result, err := storage.Plan(req.Function, req.Targets, storage.Options{Config: req.Config, Log: s.Log})

	resp := WireResponse{ID: req.ID}
	if err != nil {
		resp.Err = err.Error()
		s.Log.Info(planlog.CatRPC, "request %s: plan failed: %v", req.ID, err)
	} else {
		resp.Results = labelResults(result)
		s.Log.Info(planlog.CatRPC, "request %s: planned %d producer nodes", req.ID, len(resp.Results))
	}

	if err := gob.NewEncoder(stream).Encode(&resp); err != nil {
		s.Log.Info(planlog.CatRPC, "request %s: encode response failed: %v", req.ID, err)
	}
}
