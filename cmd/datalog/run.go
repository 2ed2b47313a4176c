package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/wbrown/janus-dataflow/datalog"
	"github.com/wbrown/janus-dataflow/datalog/config"
	"github.com/wbrown/janus-dataflow/datalog/executor"
	"github.com/wbrown/janus-dataflow/datalog/metrics"
	"github.com/wbrown/janus-dataflow/datalog/parser"
	"github.com/wbrown/janus-dataflow/datalog/storage"
)

type runFlags struct {
	queries   []string
	edb       []string
	stats     bool
	relations bool
}

func newRunCmd(g *globalFlags) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run <program.dl>",
		Short: "Compile a program, seed its facts and answer queries",
		Long: `Compile a program, seed its facts and answer queries.

Without --query every relation defined by a rule is queried in full.`,
		Example: `  datalog run graph.dl --query 'path(a, Y)'
  datalog run graph.dl --edb edge=edges.tsv --stats
  datalog run graph.dl --backend badger --path ./db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.resolve(cmd)
			if err != nil {
				return err
			}
			prog, err := readProgram(cmd, args[0])
			if err != nil {
				return err
			}
			return runProgram(cmd, cfg, prog, flags)
		},
	}
	cmd.Flags().StringArrayVarP(&flags.queries, "query", "q", nil, "query atom, e.g. 'path(a, Y)' (repeatable)")
	cmd.Flags().StringArrayVar(&flags.edb, "edb", nil, "load relation=file.tsv into the EDB before compiling (repeatable)")
	cmd.Flags().BoolVar(&flags.stats, "stats", false, "print evaluation counters")
	cmd.Flags().BoolVar(&flags.relations, "relations", false, "print the compiled relations")
	return cmd
}

func runProgram(cmd *cobra.Command, cfg config.Config, prog datalog.Program, flags *runFlags) error {
	edb, idb, closeStores, err := config.OpenStores(cfg.Store)
	if err != nil {
		return err
	}
	defer closeStores()

	for _, spec := range flags.edb {
		name, path, ok := strings.Cut(spec, "=")
		if !ok || name == "" || path == "" {
			return errors.Newf("--edb %q: expected relation=file", spec)
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		_, _, err = loadRows(edb, name, f)
		f.Close()
		if err != nil {
			return errors.Wrapf(err, "loading %s", path)
		}
	}

	net, err := executor.CompileWithOptions(prog, edb, idb, executor.Options{
		Handler:  handler(cfg, cmd.ErrOrStderr()),
		Validate: cfg.Validate,
	})
	if err != nil {
		var perr *executor.ProgramError
		if errors.As(err, &perr) {
			printDiagnostics(cmd, perr.Diagnostics)
		}
		return err
	}
	if err := net.Execute(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	tf := executor.NewTableFormatter()

	if flags.relations {
		fmt.Fprintln(out, tf.FormatRelations(net.Relations()))
	}

	queries, err := queryAtoms(net, flags.queries)
	if err != nil {
		return err
	}
	for _, atom := range queries {
		rows, err := net.QueryAtom(atom)
		if err != nil {
			return errors.Wrapf(err, "query %s", atom)
		}
		fmt.Fprintf(out, "Query: %s\n\n%s\n", atom, tf.FormatAtom(atom, rows))
	}

	if flags.stats {
		return printStats(cmd, net, tf)
	}
	return nil
}

// queryAtoms parses the --query flags, or builds one all-variable atom per
// IDB relation when there are none
func queryAtoms(net *executor.Network, queries []string) ([]datalog.Atom, error) {
	var atoms []datalog.Atom
	for _, q := range queries {
		atom, err := parser.ParseAtom(q)
		if err != nil {
			return nil, errors.Wrapf(err, "--query %q", q)
		}
		atoms = append(atoms, atom)
	}
	if len(atoms) > 0 {
		return atoms, nil
	}

	for _, info := range net.Relations() {
		if !info.IDB {
			continue
		}
		terms := make([]datalog.Term, info.Arity)
		for i := range terms {
			terms[i] = datalog.Var(fmt.Sprintf("X%d", i+1))
		}
		atoms = append(atoms, datalog.NewAtom(info.Name, terms...))
	}
	return atoms, nil
}

func printStats(cmd *cobra.Command, net *executor.Network, tf *executor.TableFormatter) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(metrics.NewCollector("datalog", net)); err != nil {
		return err
	}
	samples, err := metrics.Gather(reg)
	if err != nil {
		return err
	}

	rows := make([]storage.Tuple, len(samples))
	for i, s := range samples {
		rows[i] = storage.Tuple{s.Name, fmt.Sprintf("%.0f", s.Value)}
	}
	fmt.Fprintln(cmd.OutOrStdout(), tf.FormatTuples([]string{"metric", "value"}, rows))
	return nil
}
