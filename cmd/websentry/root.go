// Package main provides the entry point for the websentry CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for websentry.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "websentry",
		Short: "Website security posture scanner",
		Long: `Websentry analyzes a website's security posture across six weighted
dimensions: SSL/TLS configuration, security headers, technology stack,
malware reputation, open ports, and domain registration. The weighted
results aggregate into a single risk score and a prioritized list of
remediation recommendations.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
