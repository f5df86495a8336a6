package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags "-X main.Version=..."
var Version = "0.1.0"

var (
	rootCmd = &cobra.Command{
		Use:   "kilodb",
		Short: "in-memory key-value server speaking RESP",
		Long: fmt.Sprintf(`KiloDB (v%s)

An in-memory key-value server compatible with Redis clients: strings, hashes,
lists, sets and sorted sets with per-key expiration.`, Version),
		SilenceUsage: true,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of KiloDB",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "KiloDB v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(loadEnvFiles)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cliCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadEnvFiles reads .env.local and .env into the environment. Variables that are already set win
func loadEnvFiles() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")
}
