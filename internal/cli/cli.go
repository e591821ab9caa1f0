// Package cli is the command tree shared by every adapter binary.
//
// Run without a subcommand, an adapter reads one request envelope from stdin
// and writes one response document to stdout. "serve" exposes the same
// functions over HTTP and "functions" lists them.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mcpguard/fnadapter/internal/api"
	"github.com/mcpguard/fnadapter/internal/config"
	"github.com/mcpguard/fnadapter/internal/detection"
	"github.com/mcpguard/fnadapter/internal/dispatch"
	"github.com/mcpguard/fnadapter/internal/logging"
)

// Registrar registers an adapter's target functions.
type Registrar func(d *dispatch.Dispatcher)

type app struct {
	name       string
	register   Registrar
	cfg        *config.Config
	log        zerolog.Logger
	dispatcher *dispatch.Dispatcher
}

// Execute runs the adapter command and exits non-zero on failure.
func Execute(name string, register Registrar) {
	if err := NewRootCommand(name, register).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		os.Exit(1)
	}
}

func NewRootCommand(name string, register Registrar) *cobra.Command {
	a := &app{name: name, register: register}

	root := &cobra.Command{
		Use:           name,
		Short:         "Call a function with a JSON request read from stdin",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatcher.Run(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	config.AddFlags(root.PersistentFlags())

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the adapter's functions over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	config.AddServerFlags(serve.Flags())

	functions := &cobra.Command{
		Use:   "functions",
		Short: "List the functions this adapter exposes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range a.dispatcher.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	root.AddCommand(serve, functions)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	v, err := config.New(cmd.Flags())
	if err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	log = log.With().Str("adapter", a.name).Str("invocation_id", cfg.InvocationID).Logger()

	opts := []dispatch.Option{dispatch.WithLogger(log)}
	if cfg.ScreenEnabled {
		engine, err := detection.NewEngine(cfg.ScreenRules)
		if err != nil {
			return fmt.Errorf("failed to create detection engine: %w", err)
		}
		opts = append(opts, dispatch.WithScreener(engine))
	}

	a.cfg = cfg
	a.log = log
	a.dispatcher = dispatch.New(opts...)
	a.register(a.dispatcher)
	return nil
}

func (a *app) serve(ctx context.Context) error {
	h := api.NewAPI(a.dispatcher, a.log)

	server := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener
	serverErrors := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", server.Addr).Strs("functions", a.dispatcher.Names()).Msg("starting adapter server")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("error starting server: %w", err)
	case <-shutdown:
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
