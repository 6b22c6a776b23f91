package main

import (
	"github.com/spf13/cobra"

	"github.com/sweetpotato0/krishimitra/mcpserver"
)

func newMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the ask_krishimitra tool over MCP stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// stdout carries the protocol
			quietLogging()

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			return mcpserver.ServeStdio(cmd.Context(), mcpserver.New(a.advisor, version))
		},
	}
}
