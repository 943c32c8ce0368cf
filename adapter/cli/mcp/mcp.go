// Package mcp provides the commands for the MCP interface.
package mcp

import (
	"github.com/felixgeelhaar/quadra/adapter/cli"
	"github.com/spf13/cobra"
)

// Cmd is the MCP command group.
var Cmd = &cobra.Command{
	Use:         "mcp",
	Short:       "Manage the Quadra MCP interface",
	Annotations: map[string]string{cli.StandaloneAnnotation: "true"},
}

func init() {
	Cmd.AddCommand(serveCmd)
}
