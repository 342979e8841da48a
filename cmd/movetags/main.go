// Command movetags is the only external interface to the tag
// synchronizer: it reads pending scan batches out of a source ("tag")
// database and folds them into a target ("track") database, the two
// being the same file unless -s and -d differ.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "movetags",
		Short: "Fold scanned tag updates into the browse-optimized track database",
		SilenceUsage: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.source == "" || opts.dest == "" {
				return fmt.Errorf("both -s (source) and -d (dest) are required")
			}
			if opts.verbose && opts.quiet {
				return fmt.Errorf("-v and -q are mutually exclusive")
			}
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.source, "source", "s", "", "source (tag) database path")
	flags.StringVarP(&opts.dest, "dest", "d", "", "destination (track) database path")
	flags.StringVarP(&opts.theProcessing, "the", "t", "", "override the_processing (before, after, remove)")
	flags.IntVarP(&opts.count, "count", "c", 0, "maximum number of scan batches to process (0 = unlimited)")
	flags.BoolVarP(&opts.regenerate, "regenerate", "r", false, "drop and recreate the target schema before processing")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug-level logging")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "warn-level logging only")
	flags.StringVar(&opts.config, "config", "scan.ini", "path to the scan.ini configuration file")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "optional address to serve /metrics and /healthz on")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log output format (text, json)")

	return cmd
}

type runOptions struct {
	source        string
	dest          string
	theProcessing string
	count         int
	regenerate    bool
	verbose       bool
	quiet         bool
	config        string
	metricsAddr   string
	logFormat     string
}
