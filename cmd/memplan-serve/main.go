// Package main runs the memplan RPC server: a long-lived process that
// accepts QUIC connections and plans one function per stream, so a build
// farm can centralize planning instead of spawning the planner once per
// worker.
package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/orizon-lang/memplan/internal/planconfig"
	"github.com/orizon-lang/memplan/internal/planlog"
	"github.com/orizon-lang/memplan/internal/rpc"
)

func main() {
	var (
		addr       = flag.String("addr", ":4433", "address to listen on")
		certPath   = flag.String("cert", "", "TLS certificate path (required)")
		keyPath    = flag.String("key", "", "TLS private key path (required)")
		configPath = flag.String("config", "", "path to a memplan.conf file, hot-reloaded on change")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)

	flag.Parse()

	if *certPath == "" || *keyPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -cert and -key are required")
		flag.Usage()
		os.Exit(1)
	}

	level := planlog.LevelInfo
	if *verbose {
		level = planlog.LevelDebug
	}

	log := planlog.New(os.Stderr, level)

	if *configPath != "" {
		watcher, err := planconfig.WatchFile(*configPath, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: watching -config: %v\n", err)
			os.Exit(1)
		}
		defer watcher.Close()
	}

	cert, err := tls.LoadX509KeyPair(*certPath, *keyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading TLS certificate: %v\n", err)
		os.Exit(1)
	}

	tlsCfg := &tls.Config{Certificates: []tls.Certificate{cert}}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := rpc.NewServer(log)

	log.Info(planlog.CatRPC, "listening on %s", *addr)

	if err := srv.ListenAndServe(ctx, *addr, tlsCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
