package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/csmark/csharp"
	"github.com/dhamidi/csmark/csharp/parser"
	"github.com/dhamidi/csmark/format"
)

func newParseCmd(s *settings) *cobra.Command {
	var outputFormat string
	var noStatements bool
	var noTrivia bool

	cmd := &cobra.Command{
		Use:   "parse <file.cs>",
		Short: "Scan a C# file and print its marker tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFormat == "" {
				outputFormat = s.cfg.Format
			}

			popts := []parser.Option{parser.WithDefines(s.cfg.Defines...)}
			if noStatements {
				popts = append(popts, parser.WithoutStatements())
			}
			doc, err := csharp.Open(args[0], csharp.WithParserOptions(popts...))
			if err != nil {
				return err
			}

			opts := format.Options{Trivia: !noTrivia, Statements: !noStatements}
			out := s.out()
			enc, err := format.New(outputFormat, out, opts)
			if err != nil {
				return err
			}
			if tree, ok := enc.(*format.TreeEncoder); ok {
				tree.SetColor(format.ColorEnabled(s.cfg.Color, out))
			}
			if err := enc.Encode(doc.Tree()); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format: json, line or tree")
	cmd.Flags().BoolVar(&noStatements, "no-statements", false, "omit statement markers")
	cmd.Flags().BoolVar(&noTrivia, "no-trivia", false, "omit comments and directives")

	return cmd
}
