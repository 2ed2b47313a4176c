package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/wbrown/janus-dataflow/datalog"
	"github.com/wbrown/janus-dataflow/datalog/annotations"
	"github.com/wbrown/janus-dataflow/datalog/config"
	"github.com/wbrown/janus-dataflow/datalog/parser"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	configPath string
	backend    string
	path       string
	verbose    bool
	validate   bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "datalog",
		Short: "Evaluate Datalog programs",
		Long: `A Datalog engine with lazy, query-driven evaluation.

Relations that appear only in rule bodies are read from the store (EDB);
relations defined by rules are derived on demand (IDB).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&flags.backend, "backend", config.BackendMemory, "store backend: memory, badger or pebble")
	pf.StringVar(&flags.path, "path", "", "database directory for badger or pebble (empty = in memory)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "print evaluation annotations to stderr")
	pf.BoolVar(&flags.validate, "validate", true, "reject programs with validation errors")

	root.AddCommand(
		newRunCmd(flags),
		newCheckCmd(),
		newFmtCmd(),
		newLoadCmd(flags),
	)
	return root
}

// resolve merges the config file with flags set on the command line
func (g *globalFlags) resolve(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if g.configPath != "" {
		loaded, err := config.Load(g.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("backend") {
		cfg.Store.Backend = g.backend
	}
	if changed("path") {
		cfg.Store.Path = g.path
	}
	if changed("verbose") {
		cfg.Verbose = g.verbose
	}
	if changed("validate") {
		cfg.Validate = g.validate
	}
	return cfg, cfg.Check()
}

// handler returns the annotation handler for cfg, or nil
func handler(cfg config.Config, w io.Writer) annotations.Handler {
	if !cfg.Verbose {
		return nil
	}
	return annotations.NewOutputFormatter(w).Handle
}

// readProgram parses a program file; "-" reads stdin
func readProgram(cmd *cobra.Command, path string) (datalog.Program, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return datalog.Program{}, err
	}
	return parser.ParseProgram(string(data))
}
