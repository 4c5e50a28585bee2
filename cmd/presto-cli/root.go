package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/easydatawarehousing/prestoclient"
	"github.com/easydatawarehousing/prestoclient/internal/output"
)

// exit codes
const (
	exitOK         = 0
	exitConnection = 1
	exitQuery      = 2
	exitINT        = 130
)

type rootConfig struct {
	host    string
	port    int
	catalog string
	schema  string
	user    string
	timeout time.Duration
	format  string
	quiet   bool
	verbose bool
}

func newRootCmd() *cobra.Command {
	cfg := &rootConfig{}
	return buildRootCmd(cfg)
}

func buildRootCmd(cfg *rootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "presto-cli [sql]",
		Short:         "Presto SQL query CLI",
		Version:       prestoclient.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && term.IsTerminal(int(os.Stdin.Fd())) { //nolint:gosec
				_ = cmd.Help()
				return nil
			}
			sql, err := readSQL(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runQuery(cmd, cfg, sql)
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// a missing .env file is not an error
			_ = godotenv.Load()
			return cfg.resolveEnvVars(cmd.Flags().Changed)
		},
	}
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	f := cmd.PersistentFlags()
	f.StringVarP(&cfg.host, "host", "H", "localhost", "Presto host")
	f.IntVarP(&cfg.port, "port", "P", 8080, "Presto port")
	f.StringVarP(&cfg.catalog, "catalog", "c", "hive", "Presto catalog")
	f.StringVarP(&cfg.schema, "schema", "s", "default", "Presto schema")
	f.StringVarP(&cfg.user, "user", "u", "", "Presto user (default: OS user name)")
	f.DurationVarP(&cfg.timeout, "timeout", "t", 0, "overall query timeout (0 = none)")
	f.StringVarP(&cfg.format, "format", "f", "", "output format: csv, table, jsonl (default: table on TTY, csv when piped)")
	f.BoolVar(&cfg.quiet, "quiet", false, "suppress non-data output to stderr")
	f.BoolVar(&cfg.verbose, "verbose", false, "show connection info and query timing to stderr")

	return cmd
}

// readSQL returns the statement from args[0] or by reading stdin.
func readSQL(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// runQuery executes sql against the configured server, streaming rows to
// the selected output format as the server produces them.
func runQuery(cmd *cobra.Command, cfg *rootConfig, sql string) error {
	client, err := prestoclient.New(prestoclient.Config{
		Server:  cfg.host,
		Port:    cfg.port,
		Catalog: cfg.catalog,
		Schema:  cfg.schema,
		User:    cfg.user,
	})
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx := cmd.Context()
	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	if cfg.verbose {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "connecting to %s:%d\n", cfg.host, cfg.port)
	}

	w := output.New(output.DetectFormat(os.Stdout, cfg.format), cmd.OutOrStdout())
	var writeErr error
	opts := &prestoclient.QueryOptions{
		OnDescribe: func(res *prestoclient.Result) {
			cols := make([]output.Column, res.ColumnCount())
			for i := range cols {
				cols[i] = output.Column{Name: res.ColumnName(i), Type: res.ColumnTypeName(i)}
			}
			if err := w.Header(cols); err != nil && writeErr == nil {
				writeErr = err
				res.Cancel()
			}
		},
		OnRow: func(res *prestoclient.Result) {
			cells := make([]output.Cell, res.ColumnCount())
			for i := range cells {
				cells[i] = output.Cell{Text: res.ColumnData(i), Null: res.ColumnIsNull(i)}
			}
			if err := w.Row(cells); err != nil && writeErr == nil {
				writeErr = err
				res.Cancel()
			}
		},
	}

	start := time.Now()
	res, qerr := client.Query(ctx, sql, opts)
	flushErr := w.Flush()
	if cfg.verbose {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "query time: %v\n", time.Since(start))
	}

	if qerr != nil {
		if !cfg.quiet {
			reportErrors(cmd.ErrOrStderr(), res)
		}
		return qerr
	}
	if writeErr != nil {
		return writeErr
	}
	return flushErr
}

// reportErrors prints the three error channels of a result to stderr,
// skipping the empty ones.
func reportErrors(w io.Writer, res *prestoclient.Result) {
	if res == nil {
		return
	}
	if msg := res.ServerError(); msg != "" {
		_, _ = fmt.Fprintln(w, msg)
		_, _ = fmt.Fprintf(w, "Serverstate = %s\n", res.ServerState())
	}
	if msg := res.ClientError(); msg != "" {
		_, _ = fmt.Fprintln(w, msg)
	}
	if msg := res.TransportError(); msg != "" {
		_, _ = fmt.Fprintln(w, msg)
	}
}

// exitCode maps an error to the appropriate process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var qe *prestoclient.QueryError
	if errors.As(err, &qe) {
		return exitQuery
	}
	return exitConnection
}

// resolveEnvVars applies env var values for flags not explicitly set via CLI.
func (c *rootConfig) resolveEnvVars(changed func(string) bool) error {
	applyEnvStr(&c.host, changed("host"), "PRESTO_HOST")
	applyEnvStr(&c.catalog, changed("catalog"), "PRESTO_CATALOG")
	applyEnvStr(&c.schema, changed("schema"), "PRESTO_SCHEMA")
	applyEnvStr(&c.user, changed("user"), "PRESTO_USER")
	if !changed("port") {
		if v := os.Getenv("PRESTO_PORT"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("PRESTO_PORT %q: not a valid port number", v)
			}
			c.port = n
		}
	}
	return nil
}

// applyEnvStr sets *dst to the env var value when the flag was not explicitly set.
func applyEnvStr(dst *string, flagChanged bool, key string) {
	if flagChanged {
		return
	}
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
