package main

import (
	"github.com/spf13/cobra"
)

// Version is set at build time
var Version = "0.1.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "insurance-api",
		Short: "Multi-tenant insurance platform API",
		Long: `insurance-api serves the insurance platform HTTP API.

Every data access runs on a connection bound to the caller's tenant so that
PostgreSQL row-level security scopes each statement. Configuration is read
from the environment and an optional .env file.`,
		Version:      Version,
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newHashPasswordCmd())
	return root
}
