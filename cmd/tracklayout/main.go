package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/GruiaChiscop/top-speed/pkg/loader"
)

// options are the flags shared by every command.
type options struct {
	config  string
	roots   []string
	verbose bool
	log     *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "tracklayout",
		Short:         "Parse, check and place race track layouts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			opts.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			loader.SetLogger(opts.log)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.config, "config", "c", "", "YAML loader config file")
	flags.StringArrayVarP(&opts.roots, "root", "r", nil, "directory to search for tracks (repeatable)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.AddCommand(validateCmd(opts))
	rootCmd.AddCommand(buildCmd(opts))
	rootCmd.AddCommand(fmtCmd(opts))
	rootCmd.AddCommand(poseCmd(opts))
	rootCmd.AddCommand(dumpCmd(opts))
	rootCmd.AddCommand(serveCmd(opts))
	return rootCmd
}

func validateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [track]",
		Short: "Parse a track, place it and report every problem found",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), opts, cmd.OutOrStdout(), args[0])
		},
	}
}

func buildCmd(opts *options) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "build [track]",
		Short: "Place a track and print its layout and world frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), opts, cmd.OutOrStdout(), args[0], format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	return cmd
}

func fmtCmd(opts *options) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "fmt [track]",
		Short: "Print a track in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(cmd.Context(), opts, cmd.OutOrStdout(), args[0], write)
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to the track file")
	return cmd
}

func poseCmd(opts *options) *cobra.Command {
	var distance, hint float64
	cmd := &cobra.Command{
		Use:   "pose [track]",
		Short: "Drive along the primary route and print the pose reached",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPose(cmd.Context(), opts, cmd.OutOrStdout(), args[0], distance, hint)
		},
	}
	cmd.Flags().Float64VarP(&distance, "distance", "d", 0, "meters to drive from the start of the primary route")
	cmd.Flags().Float64Var(&hint, "hint", 0, "branch hint: negative keeps left, positive keeps right")
	return cmd
}

func dumpCmd(opts *options) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "dump [track]",
		Short: "Dump the parsed layout structure for debugging",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd.Context(), opts, cmd.OutOrStdout(), args[0], depth)
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 0, "maximum nesting depth, 0 for no limit")
	return cmd
}

func serveCmd(opts *options) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local dev server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts, port)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 3000, "HTTP server port")
	return cmd
}
