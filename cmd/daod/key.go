package main

import (
	"encoding/hex"
	"fmt"

	"github.com/calehh/hac-dao/crypto"
	"github.com/cometbft/cometbft/libs/os"
	"github.com/spf13/cobra"
)

type keygenArguments struct {
	Out       string
	Overwrite bool
}

var keygenArgs keygenArguments

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an account key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.FileExists(keygenArgs.Out) && !keygenArgs.Overwrite {
			return fmt.Errorf("key file %s already exists", keygenArgs.Out)
		}
		key, err := crypto.GenerateKey()
		if err != nil {
			return err
		}
		if err = key.Save(keygenArgs.Out); err != nil {
			return err
		}
		fmt.Println("address:", key.Address().Hex())
		return nil
	},
}

func init() {
	keygenCmd.Flags().StringVarP(&keygenArgs.Out, "out", "o", "account_priv_key", "key file to write")
	keygenCmd.Flags().BoolVar(&keygenArgs.Overwrite, FlagOverwrite, false, "replace an existing key file")
}

type addressArguments struct {
	Key string
}

var addressArgs addressArguments

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the address and public key of a key file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := crypto.LoadKeyFile(addressArgs.Key)
		if err != nil {
			return err
		}
		fmt.Println("pubkey:", hex.EncodeToString(key.PublicKey()))
		fmt.Println("address:", key.Address().Hex())
		return nil
	},
}

func init() {
	keyFlag(addressCmd, &addressArgs.Key)
	if err := addressCmd.MarkFlagRequired("key"); err != nil {
		panic(err)
	}
}
