package main

import (
	"github.com/calehh/hac-dao/config"
	"github.com/spf13/cobra"
)

const (
	FlagHome      = "home"
	FlagChainID   = "chain-id"
	FlagOverwrite = "overwrite"
)

var rootCmd = &cobra.Command{
	Use:          "daod",
	Short:        "Token-weighted DAO governance chain",
	SilenceUsage: true,
}

func homeFlag(cmd *cobra.Command, home *string) {
	cmd.Flags().StringVarP(home, FlagHome, "d", config.DefaultHome(), "node home directory")
}

func urlFlag(cmd *cobra.Command, url *string) {
	cmd.Flags().StringVarP(url, "url", "u", "http://127.0.0.1:26657", "daod rpc url")
}

func keyFlag(cmd *cobra.Command, key *string) {
	cmd.Flags().StringVarP(key, "key", "k", "", "hex encoded private key file")
}
