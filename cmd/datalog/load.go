package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/wbrown/janus-dataflow/datalog/config"
	"github.com/wbrown/janus-dataflow/datalog/storage"
)

func newLoadCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "load <relation> <file.tsv>",
		Short: "Store tab-separated rows in the EDB of a persistent database",
		Long: `Store tab-separated rows in the EDB of a persistent database.

Every non-empty line is one row; lines starting with # are skipped.
The first row fixes the arity of a new relation.`,
		Example: `  datalog load edge edges.tsv --backend pebble --path ./db`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.resolve(cmd)
			if err != nil {
				return err
			}
			if cfg.Store.Backend == config.BackendMemory || cfg.Store.Path == "" {
				return errors.New("load needs a badger or pebble backend with --path")
			}

			var in io.Reader = cmd.InOrStdin()
			if args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			edb, _, closeStores, err := config.OpenStores(cfg.Store)
			if err != nil {
				return err
			}
			defer closeStores()

			added, total, err := loadRows(edb, args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: stored %s of %s rows in %s\n",
				args[0], humanize.Comma(int64(added)), humanize.Comma(int64(total)), cfg.Store.Path)
			return nil
		},
	}
}

// loadRows stores every row of r into relation name of store. It returns
// how many rows were new and how many were read.
func loadRows(store storage.Store, name string, r io.Reader) (added, total int, err error) {
	var rel storage.Relation
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}
		row := storage.Tuple(strings.Split(text, "\t"))

		if rel == nil {
			rel, err = store.Relation(name, len(row))
			if err != nil {
				return added, total, err
			}
		}
		ok, err := rel.Store(row)
		if err != nil {
			return added, total, errors.Wrapf(err, "line %d", line)
		}
		total++
		if ok {
			added++
		}
	}
	if err := scanner.Err(); err != nil {
		return added, total, err
	}
	if rel == nil {
		return 0, 0, errors.Newf("%s: no rows", name)
	}
	return added, total, nil
}
