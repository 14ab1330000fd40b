package main

import (
	"fmt"
	"os"
)

func main() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(addressCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(proposalCmd)
	rootCmd.AddCommand(paramsCmd)
	rootCmd.AddCommand(addProposalCmd)
	rootCmd.AddCommand(depositCmd)
	rootCmd.AddCommand(voteCmd)
	rootCmd.AddCommand(finishCmd)
	rootCmd.AddCommand(withdrawCmd)
	rootCmd.AddCommand(transferCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
