package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/harvest/internal/config"
	"github.com/roach88/harvest/internal/dispatch"
	"github.com/roach88/harvest/internal/httpapi"
	"github.com/roach88/harvest/internal/store"
)

// Defaults for serve and history.
const (
	DefaultDatabase = "harvest.db"
	DefaultAddr     = ":8080"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Database string
	Addr     string
	Crops    []string
	Seeds    []string

	// IDGenerator overrides the interaction id generator (for testing).
	// If nil, the dispatcher's UUIDv7 default is used.
	IDGenerator dispatch.IDGenerator
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the replant engine over HTTP",
		Long: `Start the HTTP adapter in front of the dispatcher.

The config is loaded (a missing or unreadable one is replaced by the
built-in catalog and written back), the harvest log is opened (created if
it doesn't exist) and every decided interaction is appended to it.

Examples:
  harvest serve
  harvest serve --db ./harvest.db --addr 127.0.0.1:9000 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", DefaultDatabase, "path to the SQLite harvest log")
	cmd.Flags().StringVar(&opts.Addr, "addr", DefaultAddr, "listen address")
	cmd.Flags().StringSliceVar(&opts.Crops, "crop", nil, "extra crop tag members")
	cmd.Flags().StringSliceVar(&opts.Seeds, "seed", nil, "extra seed tag members")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	logger := setupLogging(opts.RootOptions)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	h, st, err := buildHandler(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s. Press Ctrl-C to stop.\n", opts.Addr)
	logger.Info("server starting", "addr", opts.Addr, "db", opts.Database)

	// Spin blocks until SIGINT/SIGTERM and shuts down gracefully.
	httpapi.NewServer(opts.Addr, h).Spin()

	logger.Info("server stopped")
	return nil
}

// buildHandler wires config, harvest log and dispatcher. The caller owns
// the returned store.
func buildHandler(ctx context.Context, opts *ServeOptions, logger *slog.Logger) (httpapi.Handler, *store.Store, error) {
	catalog, report := config.LoadOrDefault(opts.Config, logger)
	logger.Info("catalog ready",
		"path", report.Path,
		"source", report.Source,
		"crops", catalog.Len(),
		"hash", catalog.Hash(),
	)

	tags, err := extendTags(opts.Crops, opts.Seeds)
	if err != nil {
		return httpapi.Handler{}, nil, WrapExitError(ExitCommandError, "invalid tag member", err)
	}

	logger.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return httpapi.Handler{}, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	fail := func(msg string, err error) (httpapi.Handler, *store.Store, error) {
		_ = st.Close()
		return httpapi.Handler{}, nil, WrapExitError(ExitCommandError, msg, err)
	}

	content, err := config.Marshal(catalog)
	if err != nil {
		return fail("failed to marshal catalog", err)
	}
	if err := st.WriteCatalog(ctx, catalog.Hash(), content, catalog.Len()); err != nil {
		return fail("failed to record catalog", err)
	}

	// Resume the sequence after the last logged interaction.
	maxSeq, err := st.MaxSeq(ctx)
	if err != nil {
		return fail("failed to read log position", err)
	}

	dopts := []dispatch.Option{
		dispatch.WithRecorder(st),
		dispatch.WithClock(dispatch.NewClockAt(maxSeq)),
		dispatch.WithLogger(logger),
	}
	if opts.IDGenerator != nil {
		dopts = append(dopts, dispatch.WithIDGenerator(opts.IDGenerator))
	}
	d, err := dispatch.New(catalog, tags, dopts...)
	if err != nil {
		return fail("failed to create dispatcher", err)
	}

	return httpapi.Handler{Dispatcher: d, Log: st, Logger: logger}, st, nil
}
