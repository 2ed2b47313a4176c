package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
)

// Backends accepted by GraphConfig
const (
	GraphBackendBadger = "badger"
	GraphBackendPebble = "pebble"
)

// GraphConfig specifies what kind of test database to build: Components
// disjoint chains of ChainLength nodes each, stored as rows of a binary
// edge relation.
type GraphConfig struct {
	Backend     string // badger or pebble
	OutputPath  string // Where to store the database
	Namespace   string // Namespace holding the edge relation
	Relation    string // Name of the edge relation
	Components  int    // Number of disjoint chains
	ChainLength int    // Nodes per chain
	Skip        int    // Extra edge from node i to node i+Skip; 0 for none
}

// DefaultGraphConfig returns a small graph for profiling
// Size: 10 chains × 100 nodes = 990 edges
func DefaultGraphConfig() GraphConfig {
	return GraphConfig{
		Backend:     GraphBackendBadger,
		OutputPath:  "testdata/graph_benchmark.db",
		Namespace:   "edb",
		Relation:    "edge",
		Components:  10,
		ChainLength: 100,
	}
}

// MediumGraphConfig returns a medium-sized graph with shortcut edges
// Size: 50 chains × 500 nodes ≈ 50,000 edges
func MediumGraphConfig() GraphConfig {
	cfg := DefaultGraphConfig()
	cfg.OutputPath = "testdata/graph_medium.db"
	cfg.Components = 50
	cfg.ChainLength = 500
	cfg.Skip = 5
	return cfg
}

// LargeGraphConfig returns a large graph for stress testing
func LargeGraphConfig() GraphConfig {
	cfg := DefaultGraphConfig()
	cfg.Backend = GraphBackendPebble
	cfg.OutputPath = "testdata/graph_large.db"
	cfg.Components = 200
	cfg.ChainLength = 2000
	cfg.Skip = 7
	return cfg
}

// Node returns the name of node i of chain c
func (c GraphConfig) Node(chain, i int) string {
	return fmt.Sprintf("n%d_%d", chain, i)
}

// NumEdges returns how many edges the graph has
func (c GraphConfig) NumEdges() int {
	perChain := c.ChainLength - 1
	if c.Skip > 0 && c.ChainLength > c.Skip {
		perChain += c.ChainLength - c.Skip
	}
	if perChain < 0 {
		perChain = 0
	}
	return c.Components * perChain
}

// Edges calls fn for every edge of the graph, chain by chain
func (c GraphConfig) Edges(fn func(Tuple) error) error {
	for chain := 0; chain < c.Components; chain++ {
		for i := 0; i+1 < c.ChainLength; i++ {
			if err := fn(Tuple{c.Node(chain, i), c.Node(chain, i+1)}); err != nil {
				return err
			}
		}
		if c.Skip <= 0 {
			continue
		}
		for i := 0; i+c.Skip < c.ChainLength; i++ {
			if err := fn(Tuple{c.Node(chain, i), c.Node(chain, i+c.Skip)}); err != nil {
				return err
			}
		}
	}
	return nil
}

// GraphDatabase is an open test database. Store is the namespace holding
// the edge relation.
type GraphDatabase struct {
	Store Store
	root  Store
}

// Close closes the underlying database
func (g *GraphDatabase) Close() error {
	return g.root.Close()
}

// OpenGraphDatabase opens a database written by BuildGraphDatabase
func OpenGraphDatabase(config GraphConfig) (*GraphDatabase, error) {
	if _, err := os.Stat(config.OutputPath); err != nil {
		return nil, errors.Wrapf(err, "test database %s", config.OutputPath)
	}
	return openGraphDatabase(config)
}

func openGraphDatabase(config GraphConfig) (*GraphDatabase, error) {
	switch config.Backend {
	case GraphBackendBadger:
		db, err := NewBadgerStore(config.OutputPath)
		if err != nil {
			return nil, err
		}
		return &GraphDatabase{Store: db.Namespace(config.Namespace), root: db}, nil
	case GraphBackendPebble:
		db, err := NewPebbleStore(config.OutputPath)
		if err != nil {
			return nil, err
		}
		return &GraphDatabase{Store: db.Namespace(config.Namespace), root: db}, nil
	default:
		return nil, errors.Newf("unknown backend %q", config.Backend)
	}
}

// BuildGraphDatabase creates a pre-populated database for benchmarking,
// replacing whatever was at config.OutputPath. Progress goes to w.
func BuildGraphDatabase(config GraphConfig, w io.Writer) (*GraphDatabase, error) {
	if config.OutputPath == "" {
		return nil, errors.New("output path required")
	}

	// Remove existing database
	if err := os.RemoveAll(config.OutputPath); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to remove existing db")
	}
	if err := os.MkdirAll(filepath.Dir(config.OutputPath), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create directory")
	}

	db, err := openGraphDatabase(config)
	if err != nil {
		return nil, err
	}

	rel, err := db.Store.Relation(config.Relation, 2)
	if err != nil {
		db.Close()
		return nil, err
	}

	total := config.NumEdges()
	fmt.Fprintf(w, "Writing %s edges to %s...\n", humanize.Comma(int64(total)), config.OutputPath)

	written := 0
	err = config.Edges(func(t Tuple) error {
		if _, err := rel.Store(t); err != nil {
			return errors.Wrapf(err, "edge %d", written)
		}
		written++
		if written%10000 == 0 {
			fmt.Fprintf(w, "  Written %s/%s edges (%.1f%%)\n",
				humanize.Comma(int64(written)), humanize.Comma(int64(total)),
				float64(written)/float64(total)*100)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	fmt.Fprintf(w, "✅ Database created: %s\n", config.OutputPath)
	fmt.Fprintf(w, "   Total edges: %s\n", humanize.Comma(int64(written)))
	fmt.Fprintf(w, "   Chains: %d, Nodes/chain: %d, Skip: %d\n",
		config.Components, config.ChainLength, config.Skip)
	return db, nil
}
