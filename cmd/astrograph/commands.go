package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oxhq/astrograph/discover"
	"github.com/oxhq/astrograph/engine"
	"github.com/oxhq/astrograph/index"
	"github.com/oxhq/astrograph/internal/config"
	"github.com/oxhq/astrograph/plugin"
	"github.com/oxhq/astrograph/plugin/golang"
	"github.com/oxhq/astrograph/plugin/javascript"
	"github.com/oxhq/astrograph/plugin/python"
	"github.com/oxhq/astrograph/plugin/registry"
)

func newRegistry() (*registry.Registry, error) {
	reg := registry.New()
	if err := reg.Register(golang.New()); err != nil {
		return nil, err
	}
	if err := reg.Register(python.New()); err != nil {
		return nil, err
	}
	if err := reg.Register(javascript.New()); err != nil {
		return nil, err
	}
	return reg, nil
}

func newEngine(cfg config.Config) (*engine.Engine, error) {
	store, err := index.Open(cfg.DatabaseDSN, false)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	reg, err := newRegistry()
	if err != nil {
		return nil, fmt.Errorf("register plugins: %w", err)
	}
	return engine.New(reg, store), nil
}

// newRootCmd builds the full astrograph command tree over cfg. Split out
// from main so tests can exercise flag parsing and Args validation without
// calling os.Exit.
func newRootCmd(cfg config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "astrograph",
		Short: "Structural code duplication analyzer",
		Long:  "astrograph transforms source trees into labeled graphs and reports structurally duplicated functions, classes, and blocks.",
	}

	root.AddCommand(newAnalyzeCmd(cfg), newSuppressCmd(cfg), newSuppressionsCmd(cfg))
	return root
}

func newAnalyzeCmd(cfg config.Config) *cobra.Command {
	var languages []string
	var minNodeCountExact, minNodeCountBlock, minBlockLines int
	var includeBlocks bool
	var includeGlobs, excludeGlobs []string

	cmd := &cobra.Command{
		Use:   "analyze [root_path]",
		Short: "Run a duplicate-detection pass over a source tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}

			e, err := newEngine(cfg)
			if err != nil {
				return err
			}

			reportPath, summary, err := e.Analyze(context.Background(), root, engine.Options{
				Languages: languages,
				Thresholds: discover.Thresholds{
					MinNodeCountExact: minNodeCountExact,
					MinNodeCountBlock: minNodeCountBlock,
					MinBlockLines:     minBlockLines,
					IncludeBlocks:     includeBlocks,
				},
				IncludeGlobs: includeGlobs,
				ExcludeGlobs: excludeGlobs,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "report: %s\n", reportPath)
			fmt.Fprintf(out, "files scanned: %d, units: %d, clusters: %d\n", summary.FilesScanned, summary.UnitsFound, summary.ClustersFound)
			if len(summary.Warnings) > 0 {
				fmt.Fprintf(out, "warnings:\n  %s\n", strings.Join(summary.Warnings, "\n  "))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&languages, "languages", nil, "restrict analysis to these registered language ids (default: all)")
	cmd.Flags().IntVar(&minNodeCountExact, "min-node-count-exact", 0, "minimum node count for exact/pattern clusters (default 5)")
	cmd.Flags().IntVar(&minNodeCountBlock, "min-node-count-block", 0, "minimum node count for block clusters (default 10)")
	cmd.Flags().IntVar(&minBlockLines, "min-block-lines", 0, "minimum line count for block clusters (default 3)")
	cmd.Flags().BoolVar(&includeBlocks, "include-blocks", true, "include control-flow block clusters")
	cmd.Flags().StringSliceVar(&includeGlobs, "include", nil, "glob patterns a file must match to be analyzed")
	cmd.Flags().StringSliceVar(&excludeGlobs, "exclude", nil, "glob patterns excluding files from analysis")
	return cmd
}

func newSuppressCmd(cfg config.Config) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "suppress <cluster_key>",
		Short: "Suppress a duplicate cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := index.Open(cfg.DatabaseDSN, false)
			if err != nil {
				return err
			}
			entries, err := store.AllEntries()
			if err != nil {
				return err
			}
			// Keep only the entries of the cluster named by the key
			// ("<kind>:<hex digest>"), matching how discover builds keys.
			kind, hash, _ := strings.Cut(args[0], ":")
			digests := make([]string, 0, len(entries))
			for _, e := range entries {
				if (e.Kind == string(plugin.KindBlock)) != (kind == string(discover.ClusterBlock)) {
					continue
				}
				h := e.ExactHash
				if kind == string(discover.ClusterPattern) {
					h = e.PatternHash
				}
				if h == hash {
					digests = append(digests, e.EvidenceDigest)
				}
			}
			return store.AddSuppression(args[0], digests, reason)
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason for suppressing this cluster")
	return cmd
}

func newSuppressionsCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "suppressions",
		Short: "List active suppressions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := index.Open(cfg.DatabaseDSN, false)
			if err != nil {
				return err
			}
			active, err := store.ListActiveSuppressions()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range active {
				fmt.Fprintf(out, "%s  reason=%q\n", s.ClusterKey, s.Reason)
			}
			return nil
		},
	}
}
