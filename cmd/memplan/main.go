// Package main provides the memplan CLI: run the graph memory planner
// against a JSON-encoded module (functions plus a target map) read from
// disk or stdin, and print the resulting storage plan.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"

	"github.com/orizon-lang/memplan/internal/exprtree"
	"github.com/orizon-lang/memplan/internal/planconfig"
	"github.com/orizon-lang/memplan/internal/planlog"
	"github.com/orizon-lang/memplan/internal/storage"
	"github.com/orizon-lang/memplan/internal/target"
)

var version = "0.1.0"

// moduleJSON is the on-disk/stdin format memplan reads: one or more
// functions (exprtree's json.go tagged-union schema) sharing a target
// map keyed by device id. Grounded on
// internal/packagemanager/lockfile.go's struct-tagged encoding/json
// convention, the only JSON precedent in this codebase's pack.
type moduleJSON struct {
	Functions []json.RawMessage     `json:"functions"`
	Targets   map[string]targetJSON `json:"targets"`
}

type targetJSON struct {
	Kind             string `json:"kind"`
	DeviceAttr       string `json:"device_attr,omitempty"`
	DriverVersion    string `json:"driver_version,omitempty"`
	MinDriverVersion string `json:"min_driver_version,omitempty"`
}

// Module is the decoded, ready-to-plan form of moduleJSON.
type Module struct {
	Functions []*exprtree.Function
	Targets   target.Map
}

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version information")
		inputPath   = flag.String("in", "", "path to a JSON module file (omit, or pass \"-\", to read stdin)")
		configPath  = flag.String("config", "", "path to a memplan.conf file (flat key=value); defaults are used if omitted")
		verbose     = flag.Bool("v", false, "enable debug logging")
		jsonOut     = flag.Bool("json", false, "print results as one JSON object per produced tensor instead of tab-separated text")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("memplan %s\n", version)
		return
	}

	level := planlog.LevelInfo
	if *verbose {
		level = planlog.LevelDebug
	}

	log := planlog.New(os.Stderr, level)

	mod, err := loadModule(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := planconfig.Default()

	if *configPath != "" {
		cfg, err = planconfig.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: loading -config: %v\n", err)
			os.Exit(1)
		}
	}

	if err := planAll(mod, cfg, log, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadModule reads and decodes the JSON module from path, or from stdin
// when path is empty or "-".
func loadModule(path string) (*Module, error) {
	var r io.Reader

	if path == "" || path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()

		r = f
	}

	var raw moduleJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode module json: %w", err)
	}

	fns := make([]*exprtree.Function, len(raw.Functions))

	for i, fnRaw := range raw.Functions {
		fn, err := exprtree.DecodeFunction(bytes.NewReader(fnRaw))
		if err != nil {
			return nil, fmt.Errorf("function %d: %w", i, err)
		}

		fns[i] = fn
	}

	tm, err := decodeTargets(raw.Targets)
	if err != nil {
		return nil, err
	}

	return &Module{Functions: fns, Targets: tm}, nil
}

func decodeTargets(in map[string]targetJSON) (target.Map, error) {
	tm := make(target.Map, len(in))

	for idStr, tj := range in {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return nil, fmt.Errorf("target device id %q: not an integer", idStr)
		}

		t := &target.Target{Kind: tj.Kind, DeviceAttr: tj.DeviceAttr}

		if tj.DriverVersion != "" {
			v, err := semver.NewVersion(tj.DriverVersion)
			if err != nil {
				return nil, fmt.Errorf("target %d: driver_version: %w", id, err)
			}

			t.DriverVer = v
		}

		if tj.MinDriverVersion != "" {
			c, err := semver.NewConstraint(tj.MinDriverVersion)
			if err != nil {
				return nil, fmt.Errorf("target %d: min_driver_version: %w", id, err)
			}

			t.MinDriverVer = c
		}

		tm[id] = t
	}

	return tm, nil
}

// planAll plans every function in mod concurrently, the way
// cmd/orizon-compiler's pipeline farms independent work to
// golang.org/x/sync/errgroup, then prints results back in declaration
// order so output is deterministic regardless of completion order.
func planAll(mod *Module, cfg planconfig.Config, log *planlog.Logger, jsonOut bool) error {
	results := make([]map[exprtree.Node]storage.Result, len(mod.Functions))

	g := new(errgroup.Group)

	for i, fn := range mod.Functions {
		i, fn := i, fn

		g.Go(func() error {
			res, err := storage.Plan(fn, mod.Targets, storage.Options{Config: cfg, Log: log})
			if err != nil {
				return fmt.Errorf("function %s: %w", fn.Name, err)
			}

			results[i] = res

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for i, fn := range mod.Functions {
		printResult(fn.Name, results[i], jsonOut)
	}

	return nil
}

func printResult(fnName string, res map[exprtree.Node]storage.Result, jsonOut bool) {
	nodes := make([]exprtree.Node, 0, len(res))
	for node := range res {
		nodes = append(nodes, node)
	}

	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })

	for _, node := range nodes {
		r := res[node]

		for i := range r.StorageIDs {
			if jsonOut {
				fmt.Printf("{\"function\":%q,\"node\":%q,\"field\":%d,\"storage_id\":%d,\"device_type\":%d,\"storage_scope\":%q}\n",
					fnName, node.ID(), i, r.StorageIDs[i], r.DeviceTypes[i], r.StorageScopes[i])
			} else {
				fmt.Printf("%s\t%s[%d]\tstorage_id=%d\tdevice_type=%d\tstorage_scope=%s\n",
					fnName, node.ID(), i, r.StorageIDs[i], r.DeviceTypes[i], r.StorageScopes[i])
			}
		}
	}
}
