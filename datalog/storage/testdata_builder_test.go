package storage

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphConfigEdges(t *testing.T) {
	tests := []struct {
		name   string
		config GraphConfig
		edges  int
	}{
		{"chains", GraphConfig{Components: 3, ChainLength: 4}, 9},
		{"skip", GraphConfig{Components: 2, ChainLength: 5, Skip: 2}, 14},
		{"skip longer than chain", GraphConfig{Components: 1, ChainLength: 3, Skip: 5}, 2},
		{"single node", GraphConfig{Components: 4, ChainLength: 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count := 0
			require.NoError(t, tt.config.Edges(func(Tuple) error {
				count++
				return nil
			}))
			assert.Equal(t, tt.edges, count)
			assert.Equal(t, tt.edges, tt.config.NumEdges())
		})
	}
}

func TestBuildGraphDatabase(t *testing.T) {
	for _, backend := range []string{GraphBackendBadger, GraphBackendPebble} {
		t.Run(backend, func(t *testing.T) {
			config := GraphConfig{
				Backend:     backend,
				OutputPath:  filepath.Join(t.TempDir(), "graph.db"),
				Namespace:   "edb",
				Relation:    "edge",
				Components:  2,
				ChainLength: 10,
				Skip:        3,
			}

			db, err := BuildGraphDatabase(config, io.Discard)
			require.NoError(t, err)
			require.NoError(t, db.Close())

			db, err = OpenGraphDatabase(config)
			require.NoError(t, err)
			defer db.Close()

			rel, err := db.Store.Relation("edge", 2)
			require.NoError(t, err)
			rows, err := rel.Load()
			require.NoError(t, err)
			assert.Len(t, rows, config.NumEdges())

			rows, err = rel.Load(Eq(0, config.Node(1, 0)))
			require.NoError(t, err)
			assert.ElementsMatch(t, []Tuple{
				{"n1_0", "n1_1"},
				{"n1_0", "n1_3"},
			}, rows)
		})
	}
}

func TestOpenGraphDatabaseMissing(t *testing.T) {
	config := DefaultGraphConfig()
	config.OutputPath = filepath.Join(t.TempDir(), "missing.db")
	_, err := OpenGraphDatabase(config)
	require.Error(t, err)
}
