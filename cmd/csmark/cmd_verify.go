package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/csmark/csharp/crosscheck"
	"github.com/dhamidi/csmark/csharp/parser"
)

func newVerifyCmd(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <file.cs>...",
		Short: "Compare scanned declarations with the tree-sitter C# grammar",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := s.out()
			disagree := 0
			for _, path := range args {
				ok, err := verifyFile(s, path)
				if err != nil {
					return err
				}
				if !ok {
					disagree++
				}
			}
			if disagree > 0 {
				return fmt.Errorf("%d of %d files disagree", disagree, len(args))
			}
			fmt.Fprintf(out, "%d files agree\n", len(args))
			return nil
		},
	}
	return cmd
}

func verifyFile(s *settings, path string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	tree, err := parser.Scan(string(content), parser.WithFile(path), parser.WithDefines(s.cfg.Defines...))
	if err != nil {
		return false, err
	}
	res, err := crosscheck.Check(content, tree)
	if err != nil {
		return false, err
	}

	out := s.out()
	if res.GrammarError {
		fmt.Fprintf(out, "%s: tree-sitter reported syntax errors\n", path)
	}
	if res.Agree() {
		return true, nil
	}
	for _, d := range res.OnlyMarkers {
		fmt.Fprintf(out, "%s: only scanner: %s\n", path, d)
	}
	for _, d := range res.OnlyGrammar {
		fmt.Fprintf(out, "%s: only grammar: %s\n", path, d)
	}
	return false, nil
}
