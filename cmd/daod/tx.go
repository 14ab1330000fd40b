package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/calehh/hac-dao/crypto"
	"github.com/calehh/hac-dao/tx"
	"github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var ErrTxFailed = errors.New("transaction failed")

type txArguments struct {
	Url string
	Key string
}

func txFlags(cmd *cobra.Command, args *txArguments) {
	urlFlag(cmd, &args.Url)
	keyFlag(cmd, &args.Key)
	if err := cmd.MarkFlagRequired("key"); err != nil {
		panic(err)
	}
}

// sendTx signs payload with the key at args.Key using the sender's current
// nonce, broadcasts it in commit mode and prints its events.
func sendTx(cmd *cobra.Command, args *txArguments, tp tx.DAOTxType, payload any) error {
	key, err := crypto.LoadKeyFile(args.Key)
	if err != nil {
		return err
	}
	cli, err := newClient(args.Url)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	status, err := cli.Status(ctx)
	if err != nil {
		return fmt.Errorf("get node status: %w", err)
	}
	act, err := queryAccount(ctx, cli, key.Address())
	if err != nil {
		return err
	}
	btx := &tx.DAOTx{
		Version: tx.DAOTxVersion0,
		Type:    tp,
		Nonce:   act.Nonce,
		Tx:      payload,
	}
	if err = key.SignTx(status.NodeInfo.Network, btx); err != nil {
		return fmt.Errorf("sign tx: %w", err)
	}
	dat, err := tx.MarshalDAOTx(btx)
	if err != nil {
		return err
	}
	res, err := cli.BroadcastTxCommit(ctx, dat)
	if err != nil {
		return fmt.Errorf("broadcast tx: %w", err)
	}
	if res.CheckTx.Code != types.CodeTypeOK {
		return fmt.Errorf("%w: check code %d: %s", ErrTxFailed, res.CheckTx.Code, res.CheckTx.Log)
	}
	fmt.Printf("%s tx %s included at height %d\n", tp, res.Hash, res.Height)
	if res.TxResult.Code != types.CodeTypeOK {
		return fmt.Errorf("%w: code %d: %s", ErrTxFailed, res.TxResult.Code, res.TxResult.Log)
	}
	for _, ev := range res.TxResult.Events {
		attrs := make([]string, 0, len(ev.Attributes))
		for _, a := range ev.Attributes {
			attrs = append(attrs, a.Key+"="+a.Value)
		}
		fmt.Printf("  %s %s\n", ev.Type, strings.Join(attrs, " "))
	}
	if res.TxResult.Log != "" {
		fmt.Printf("  log: %s\n", res.TxResult.Log)
	}
	return nil
}

func parseProposalID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid proposal id %q", s)
	}
	return id, nil
}

type addProposalArguments struct {
	txArguments
	Recipient   string
	Description string
	Payload     string
}

var addProposalArgs addProposalArguments

var addProposalCmd = &cobra.Command{
	Use:   "addproposal",
	Short: "Submit a proposal (chairperson only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !common.IsHexAddress(addProposalArgs.Recipient) {
			return fmt.Errorf("invalid recipient %q", addProposalArgs.Recipient)
		}
		payload, err := hexutil.Decode(addProposalArgs.Payload)
		if err != nil {
			return fmt.Errorf("invalid payload: %w", err)
		}
		return sendTx(cmd, &addProposalArgs.txArguments, tx.DAOTxTypeAddProposal, &tx.AddProposalTx{
			Recipient:   common.HexToAddress(addProposalArgs.Recipient),
			Description: addProposalArgs.Description,
			Payload:     payload,
		})
	},
}

func init() {
	txFlags(addProposalCmd, &addProposalArgs.txArguments)
	addProposalCmd.Flags().StringVarP(&addProposalArgs.Recipient, "recipient", "r", "", "target of the approved call")
	addProposalCmd.Flags().StringVar(&addProposalArgs.Description, "description", "", "proposal description")
	addProposalCmd.Flags().StringVarP(&addProposalArgs.Payload, "payload", "p", "", "0x prefixed call payload")
}

type depositArguments struct {
	txArguments
	Amount string
}

var depositArgs depositArguments

var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Deposit tokens to gain voting rights",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := tx.ParseAmount(depositArgs.Amount); err != nil {
			return err
		}
		return sendTx(cmd, &depositArgs.txArguments, tx.DAOTxTypeDeposit, &tx.DepositTx{Amount: depositArgs.Amount})
	},
}

func init() {
	txFlags(depositCmd, &depositArgs.txArguments)
	depositCmd.Flags().StringVarP(&depositArgs.Amount, "amount", "m", "", "amount in base units")
}

type voteArguments struct {
	txArguments
	Support bool
}

var voteArgs voteArguments

var voteCmd = &cobra.Command{
	Use:   "vote <proposal>",
	Short: "Vote on a proposal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProposalID(args[0])
		if err != nil {
			return err
		}
		return sendTx(cmd, &voteArgs.txArguments, tx.DAOTxTypeVote, &tx.VoteTx{Proposal: id, Support: voteArgs.Support})
	},
}

func init() {
	txFlags(voteCmd, &voteArgs.txArguments)
	voteCmd.Flags().BoolVar(&voteArgs.Support, "support", false, "vote in favour")
}

var finishArgs txArguments

var finishCmd = &cobra.Command{
	Use:   "finish <proposal>",
	Short: "Resolve a proposal whose debate period is over",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProposalID(args[0])
		if err != nil {
			return err
		}
		return sendTx(cmd, &finishArgs, tx.DAOTxTypeFinishProposal, &tx.FinishProposalTx{Proposal: id})
	},
}

func init() {
	txFlags(finishCmd, &finishArgs)
}

var withdrawArgs txArguments

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw the whole deposit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(cmd, &withdrawArgs, tx.DAOTxTypeWithdraw, &tx.WithdrawTx{})
	},
}

func init() {
	txFlags(withdrawCmd, &withdrawArgs)
}

type transferArguments struct {
	txArguments
	To     string
	Amount string
}

var transferArgs transferArguments

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Transfer tokens to another account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !common.IsHexAddress(transferArgs.To) {
			return fmt.Errorf("invalid recipient %q", transferArgs.To)
		}
		if _, err := tx.ParseAmount(transferArgs.Amount); err != nil {
			return err
		}
		return sendTx(cmd, &transferArgs.txArguments, tx.DAOTxTypeTransfer, &tx.TransferTx{
			To:     common.HexToAddress(transferArgs.To),
			Amount: transferArgs.Amount,
		})
	},
}

func init() {
	txFlags(transferCmd, &transferArgs.txArguments)
	transferCmd.Flags().StringVar(&transferArgs.To, "to", "", "recipient address")
	transferCmd.Flags().StringVarP(&transferArgs.Amount, "amount", "m", "", "amount in base units")
}
