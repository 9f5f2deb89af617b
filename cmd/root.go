package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "globizora",
	Short: "Globizora API service",
	Long: `Globizora API service: account registration, session tokens, API keys,
metered data endpoints and Stripe-backed subscriptions.`,
	SilenceUsage: true,
}

// Execute runs the root command. It is called once by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
