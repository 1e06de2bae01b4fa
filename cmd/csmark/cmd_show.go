package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/csmark/csharp"
	"github.com/dhamidi/csmark/csharp/parser"
)

func newShowCmd(s *settings) *cobra.Command {
	var preamble bool

	cmd := &cobra.Command{
		Use:   "show <file.cs> [full.name...]",
		Short: "Print the source text of named markers",
		Long: `Print the source text of the markers with the given dotted names, such as
Shop.Cart.Add. With --preamble the text before the first namespace is printed
first, so the output can serve as a standalone file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := csharp.Open(args[0], csharp.WithParserOptions(parser.WithDefines(s.cfg.Defines...)))
			if err != nil {
				return err
			}
			out := s.out()

			var ids []parser.MarkerID
			for _, name := range args[1:] {
				id, _ := doc.Tree().Find(name)
				if id == parser.NoMarker {
					return fmt.Errorf("%s: no declaration named %s", args[0], name)
				}
				ids = append(ids, id)
			}

			if preamble {
				info := doc.GenerationInfo().Subset(ids...)
				fmt.Fprint(out, info.Render())
				return nil
			}
			for _, id := range ids {
				text, err := doc.LoadMarkerText(id)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, text)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&preamble, "preamble", false, "prefix the output with the file preamble")

	return cmd
}
