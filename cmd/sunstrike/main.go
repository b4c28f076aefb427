package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sunstrike-inc/sunstrike/internal/interfaces/cli/migrate"
	"github.com/sunstrike-inc/sunstrike/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sunstrike",
		Short: "Sunstrike - VPN subscription management",
		Long:  `Sunstrike manages VPN subscriptions and keeps the local xray server configuration converged with the subscription database.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
