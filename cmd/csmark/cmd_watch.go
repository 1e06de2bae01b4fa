package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dhamidi/csmark/csharp/codebase"
)

func newWatchCmd(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Scan a directory and rescan files as they change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rootDir := s.rootDir(args)
			c := codebase.New(rootDir, s.codebaseOptions()...)

			report, err := c.ScanAll(cmd.Context())
			if err != nil {
				return err
			}
			out := s.out()
			fmt.Fprintf(out, "Watching %d files in %s\n", len(report.Results), rootDir)
			for _, f := range report.Failures() {
				fmt.Fprintf(out, "  %s: %v\n", relPath(rootDir, f.Path), f.Err)
			}

			w, err := codebase.NewFileWatcher(c,
				codebase.WithDebounce(s.cfg.Debounce),
				codebase.OnChange(func(changes []codebase.Change) {
					for _, ch := range changes {
						switch {
						case ch.Removed:
							fmt.Fprintf(out, "removed  %s\n", relPath(rootDir, ch.Path))
						case ch.Err != nil:
							fmt.Fprintf(out, "failed   %s: %v\n", relPath(rootDir, ch.Path), ch.Err)
						default:
							fmt.Fprintf(out, "scanned  %s\n", relPath(rootDir, ch.Path))
						}
					}
				}))
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				return err
			}
			defer w.Stop()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sig)
			select {
			case <-sig:
			case <-cmd.Context().Done():
			}
			return nil
		},
	}
	return cmd
}
