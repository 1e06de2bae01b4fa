package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhamidi/csmark/csharp/codebase"
)

func newScanCmd(s *settings) *cobra.Command {
	var jobs int
	var timeout time.Duration
	var listTypes bool

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Scan every C# file below a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("jobs") {
				s.cfg.Jobs = jobs
			}
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			return runScan(ctx, s, s.rootDir(args), listTypes)
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", codebase.DefaultJobs, "files scanned in parallel")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "give up after this long (0 for no limit)")
	cmd.Flags().BoolVar(&listTypes, "types", false, "list the types of every namespace")

	return cmd
}

func runScan(ctx context.Context, s *settings, rootDir string, listTypes bool) error {
	c := codebase.New(rootDir, s.codebaseOptions()...)

	start := time.Now()
	report, err := c.ScanAll(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	out := s.out()
	fmt.Fprintf(out, "Scanned %d files in %s\n", len(report.Results), elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "  parsed:    %d\n", report.Count(codebase.StatusParsed))
	fmt.Fprintf(out, "  unchanged: %d\n", report.Count(codebase.StatusUnchanged))
	fmt.Fprintf(out, "  failed:    %d\n", report.Count(codebase.StatusFailed))
	fmt.Fprintf(out, "  error:     %d\n", report.Count(codebase.StatusError))

	namespaces := c.Namespaces()
	fmt.Fprintf(out, "\n%d namespaces\n", len(namespaces))
	if listTypes {
		for _, ns := range namespaces {
			fmt.Fprintf(out, "  %s\n", ns)
			for _, sym := range c.TypesIn(ns) {
				fmt.Fprintf(out, "    %-10s %s  %s:%d\n", sym.Kind, sym.Name, relPath(rootDir, sym.Path), sym.Line)
			}
		}
	}

	failures := report.Failures()
	if len(failures) == 0 {
		return nil
	}
	fmt.Fprintf(out, "\nErrors:\n")
	for _, f := range failures {
		fmt.Fprintf(out, "  %s: %v\n", relPath(rootDir, f.Path), f.Err)
	}
	return fmt.Errorf("%d of %d files failed", len(failures), len(report.Results))
}

func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return path
}
