package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/calehh/hac-dao/app"
	"github.com/calehh/hac-dao/crypto"
	"github.com/calehh/hac-dao/dao"
	"github.com/calehh/hac-dao/state"
	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

var ErrQueryFailed = errors.New("query failed")

func newClient(url string) (*http.HTTP, error) {
	cli, err := http.New(url, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	return cli, nil
}

func abciQuery(ctx context.Context, cli *http.HTTP, path string, data string, v any) error {
	res, err := cli.ABCIQuery(ctx, path, []byte(data))
	if err != nil {
		return err
	}
	if res.Response.Code != 0 {
		return fmt.Errorf("%w: code %d: %s", ErrQueryFailed, res.Response.Code, res.Response.Log)
	}
	return json.Unmarshal(res.Response.Value, v)
}

func queryAccount(ctx context.Context, cli *http.HTTP, addr common.Address) (*state.Account, error) {
	act := new(state.Account)
	if err := abciQuery(ctx, cli, "/accounts/", addr.Hex(), act); err != nil {
		return nil, err
	}
	return act, nil
}

func formatAmount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return humanize.BigComma(v.ToBig())
}

// resolveAddress prefers an explicit address and falls back to the key file.
func resolveAddress(address, keyPath string) (common.Address, error) {
	if address != "" {
		if !common.IsHexAddress(address) {
			return common.Address{}, fmt.Errorf("invalid address %q", address)
		}
		return common.HexToAddress(address), nil
	}
	if keyPath == "" {
		return common.Address{}, errors.New("either --address or --key is required")
	}
	key, err := crypto.LoadKeyFile(keyPath)
	if err != nil {
		return common.Address{}, err
	}
	return key.Address(), nil
}

type accountArguments struct {
	Url     string
	Address string
	Key     string
}

var accountArgs accountArguments

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show token balance, nonce and governance deposit of an account",
	Args:  cobra.NoArgs,
	RunE:  accountRun,
}

func init() {
	urlFlag(accountCmd, &accountArgs.Url)
	keyFlag(accountCmd, &accountArgs.Key)
	accountCmd.Flags().StringVarP(&accountArgs.Address, "address", "a", "", "account address")
}

func accountRun(cmd *cobra.Command, args []string) error {
	addr, err := resolveAddress(accountArgs.Address, accountArgs.Key)
	if err != nil {
		return err
	}
	cli, err := newClient(accountArgs.Url)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	act, err := queryAccount(ctx, cli, addr)
	if err != nil {
		return err
	}
	var voter app.VoterView
	if err = abciQuery(ctx, cli, "/voters/", addr.Hex(), &voter); err != nil {
		return err
	}
	deposited, err := uint256.FromDecimal(voter.Deposited)
	if err != nil {
		return err
	}
	fmt.Printf("address:   %v\nnonce:     %v\nbalance:   %v\ndeposited: %v\nlocks:     %v\n",
		addr.Hex(), act.Nonce, formatAmount(act.Balance), formatAmount(deposited), voter.Locks)
	return nil
}

type proposalArguments struct {
	Url   string
	From  uint64
	Limit uint64
}

var proposalArgs proposalArguments

var proposalCmd = &cobra.Command{
	Use:   "proposal [id]",
	Short: "Show one proposal, or list proposals",
	Args:  cobra.MaximumNArgs(1),
	RunE:  proposalRun,
}

func init() {
	urlFlag(proposalCmd, &proposalArgs.Url)
	proposalCmd.Flags().Uint64Var(&proposalArgs.From, "from", 0, "first proposal id when listing")
	proposalCmd.Flags().Uint64Var(&proposalArgs.Limit, "limit", 20, "number of proposals when listing")
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func proposalRun(cmd *cobra.Command, args []string) error {
	cli, err := newClient(proposalArgs.Url)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		var p app.ProposalView
		if err = abciQuery(cmd.Context(), cli, "/proposals/", args[0], &p); err != nil {
			return err
		}
		return printJSON(p)
	}
	var ps []app.ProposalView
	if err = abciQuery(cmd.Context(), cli, "/proposals/", fmt.Sprintf("%d/%d", proposalArgs.From, proposalArgs.Limit), &ps); err != nil {
		return err
	}
	return printJSON(ps)
}

type paramsArguments struct {
	Url string
}

var paramsArgs paramsArguments

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Show the governance parameters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := newClient(paramsArgs.Url)
		if err != nil {
			return err
		}
		var p dao.Params
		if err = abciQuery(cmd.Context(), cli, "/params/", "", &p); err != nil {
			return err
		}
		return printJSON(p)
	},
}

func init() {
	urlFlag(paramsCmd, &paramsArgs.Url)
}
