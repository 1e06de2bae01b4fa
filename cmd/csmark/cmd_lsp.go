package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/csmark/csharp/codebase"
)

func newLSPCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the language server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := codebase.NewLSPServer(version, s.codebaseOptions()...)
			return server.RunStdio()
		},
	}
}
