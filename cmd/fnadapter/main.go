package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mcpguard/fnadapter/internal/client"
	"github.com/mcpguard/fnadapter/internal/config"
	"github.com/mcpguard/fnadapter/internal/envelope"
	"github.com/mcpguard/fnadapter/internal/gen"
	"github.com/mcpguard/fnadapter/internal/logging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fnadapter: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var log zerolog.Logger

	rootCmd := &cobra.Command{
		Use:           "fnadapter",
		Short:         "Generate and call JSON-over-stdio function adapters",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.New(cmd.Flags())
			if err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			log, err = logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			log = log.With().Str("invocation_id", cfg.InvocationID).Logger()
			return nil
		},
	}
	config.AddLogFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newGenCommand(&log), newCallCommand(&log))
	return rootCmd
}

func newGenCommand(log *zerolog.Logger) *cobra.Command {
	var signature, out string

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate an adapter main package from a signature file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := gen.LoadSignature(signature)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := gen.Generate(&buf, sig); err != nil {
				return err
			}

			if out == "" || out == "-" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			log.Info().Str("function", sig.Function).Str("out", out).Msg("generated adapter")
			return nil
		},
	}
	cmd.Flags().StringVar(&signature, "signature", "", "signature file (json, yaml or toml)")
	cmd.Flags().StringVar(&out, "out", "-", "output file, - for stdout")
	cobra.CheckErr(cmd.MarkFlagRequired("signature"))
	return cmd
}

func newCallCommand(log *zerolog.Logger) *cobra.Command {
	var (
		adapter    string
		adapterArg []string
		function   string
		params     string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "call",
		Short: "Call a function through an adapter binary and print its response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !json.Valid([]byte(params)) {
				return fmt.Errorf("--params is not valid JSON")
			}

			runner := client.NewRunner(adapter, adapterArg...)
			runner.DefaultTimeout = timeout

			start := time.Now()
			resp, err := runner.Do(cmd.Context(), envelope.Request{
				FunctionName: function,
				Params:       json.RawMessage(params),
			})
			if err != nil {
				return err
			}
			log.Debug().Str("function", function).Str("status", string(resp.Status)).Dur("elapsed", time.Since(start)).Msg("call finished")

			if err := resp.Encode(cmd.OutOrStdout()); err != nil {
				return err
			}
			if resp.Status == envelope.StatusError {
				return &client.RemoteError{Function: function, Message: *resp.ErrorMessage}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&adapter, "adapter", "", "path to the adapter binary")
	cmd.Flags().StringArrayVar(&adapterArg, "adapter-arg", nil, "argument passed to the adapter (repeatable)")
	cmd.Flags().StringVar(&function, "function", "", "function name")
	cmd.Flags().StringVar(&params, "params", "{}", "params as a JSON value")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "call timeout")
	cobra.CheckErr(cmd.MarkFlagRequired("adapter"))
	cobra.CheckErr(cmd.MarkFlagRequired("function"))
	return cmd
}
