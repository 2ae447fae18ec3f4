package main

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/jamie-davis/AzureTableSpike/tablestorage/edm"
	"github.com/jamie-davis/AzureTableSpike/tablestorage/filterexpr"
	"github.com/jamie-davis/AzureTableSpike/tablestorage/filterexpr/lexer"
	"github.com/jamie-davis/AzureTableSpike/tablestorage/fixture"
	"github.com/jamie-davis/AzureTableSpike/tablestorage/tablectx"
	"github.com/jamie-davis/AzureTableSpike/tablestorage/tablestore"
	"github.com/jamie-davis/AzureTableSpike/tablestorage/tableui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tsq",
		Short:         "Inspect and run table query filters",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newLexCmd(), newParseCmd(), newQueryCmd(), newServeCmd())
	return root
}

func newLexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lex <filter>",
		Short: "Print the tokens of a filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for tok := range lexer.Analyse(args[0]) {
				fmt.Fprintf(out, "%-16s %s\n", tok.Kind, tok.Text)
			}
			return nil
		},
	}
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <filter>",
		Short: "Print the parsed filter, or why it does not parse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := filterexpr.Parse(args[0])
			if !result.Success() {
				return errors.New(result.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Root.Describe())
			return nil
		},
	}
}

type queryFlags struct {
	fixture string
	table   string
	columns []string
}

func newQueryCmd() *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "query <filter>",
		Short: "Run a filter against a table loaded from a fixture",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if flags.fixture == "" {
				flags.fixture = cfg.Fixture
			}
			if flags.table == "" {
				flags.table = cfg.Table
			}
			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}
			return runQuery(cmd, cfg, flags, filter)
		},
	}
	cmd.Flags().StringVar(&flags.fixture, "fixture", "", "YAML fixture to load")
	cmd.Flags().StringVar(&flags.table, "table", "", "table to query")
	cmd.Flags().StringSliceVar(&flags.columns, "select", nil, "properties to return")
	return cmd
}

func runQuery(cmd *cobra.Command, cfg Config, flags queryFlags, filter string) error {
	if flags.fixture == "" {
		return errors.New("no fixture given, use --fixture or set fixture in " + configFileName)
	}
	if flags.table == "" {
		return errors.New("no table given, use --table or set table in " + configFileName)
	}

	logger := newLogger(cfg.Log, cmd.ErrOrStderr())
	ctx := cmd.Context()

	f, err := fixture.ParseFile(flags.fixture)
	if err != nil {
		return err
	}
	store := tablestore.New(tablestore.WithLogger(logger))
	if err := fixture.Load(ctx, store, f); err != nil {
		return err
	}

	tbl := tablectx.New(store, flags.table, tablectx.WithLogger(logger))
	seq, err := tbl.Query(ctx, filter, flags.columns...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	n := 0
	for e, err := range seq {
		if err != nil {
			return err
		}
		writeEntity(out, e)
		n++
	}
	logger.Info("query complete", "table", flags.table, "rows", n)
	return nil
}

func writeEntity(w io.Writer, e tablectx.Entity) {
	parts := []string{
		tablestore.PartitionKeyField + "=" + e.PartitionKey,
		tablestore.RowKeyField + "=" + e.RowKey,
	}
	for _, name := range slices.Sorted(maps.Keys(e.Properties)) {
		v := e.Properties[name]
		parts = append(parts, fmt.Sprintf("%s=%s(%s)", name, edm.TypeOf(v), v))
	}
	fmt.Fprintln(w, strings.Join(parts, " "))
}

const defaultAddr = "localhost:3070"

func newServeCmd() *cobra.Command {
	var fixturePath, addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON debug API over an in-memory store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if fixturePath == "" {
				fixturePath = cfg.Fixture
			}
			if addr == "" {
				addr = cfg.Addr
			}
			if addr == "" {
				addr = defaultAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := newLogger(cfg.Log, cmd.ErrOrStderr())
			reg := prometheus.NewRegistry()
			store := tablestore.New(tablestore.WithLogger(logger), tablestore.WithMetrics(reg))
			if fixturePath != "" {
				f, err := fixture.ParseFile(fixturePath)
				if err != nil {
					return err
				}
				if err := fixture.Load(ctx, store, f); err != nil {
					return err
				}
				logger.Info("fixture loaded", "path", fixturePath, "tables", len(f.Tables))
			}

			server := tableui.NewServer(tableui.ServerConfig{Addr: addr, Logger: logger}, store, reg)
			return server.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&fixturePath, "fixture", "", "YAML fixture to load before serving")
	cmd.Flags().StringVar(&addr, "addr", "", "address to listen on (default "+defaultAddr+")")
	return cmd
}
