package main

import (
	"github.com/mynextid/zk-age/cmd/zkproof"
	"github.com/spf13/cobra"
)

// Init the cmd
func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "zkage",
		Short:        "Zero-knowledge age eligibility proofs",
		Long:         `Issue credentials, prove that a credential holder was born before a cutoff year without revealing the credential, and verify such proofs locally, over HTTP or on chain.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML configuration file (default: built-in defaults)")

	rootCmd.AddCommand(
		zkproof.NewServeCmd(&configPath),
		zkproof.NewSetupCmd(&configPath),
		zkproof.NewDemoCmd(&configPath),
		zkproof.NewCalldataCmd(&configPath),
		zkproof.NewExportSolidityCmd(&configPath),
		NewVersionCmd(),
	)

	return rootCmd
}
