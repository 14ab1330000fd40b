package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/calehh/hac-dao/config"
	"github.com/calehh/hac-dao/types"
	cmtconfig "github.com/cometbft/cometbft/config"
	cmtos "github.com/cometbft/cometbft/libs/os"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/spf13/cobra"
)

type printInfo struct {
	Moniker     string          `json:"moniker"`
	ChainID     string          `json:"chain_id"`
	NodeID      string          `json:"node_id"`
	Chairperson string          `json:"chairperson"`
	AppMessage  json.RawMessage `json:"app_message"`
}

func displayInfo(info printInfo) error {
	out, err := json.MarshalIndent(info, "", " ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(os.Stderr, "%s\n", out)
	return err
}

type initArguments struct {
	Home         string
	ChainID      string
	Overwrite    bool
	MinQuorum    uint64
	DebatePeriod uint64
}

var initArgs initArguments

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize validator, p2p, genesis, chairperson key and application configuration files",
	Args:  cobra.NoArgs,
	RunE:  initRun,
}

func init() {
	homeFlag(initCmd, &initArgs.Home)
	initCmd.Flags().BoolVarP(&initArgs.Overwrite, FlagOverwrite, "o", false, "overwrite an existing genesis.json")
	initCmd.Flags().StringVar(&initArgs.ChainID, FlagChainID, "", "genesis chain-id, randomly generated if blank")
	initCmd.Flags().Uint64Var(&initArgs.MinQuorum, "min-quorum", 3, "minimum number of votes for a proposal to pass")
	initCmd.Flags().Uint64Var(&initArgs.DebatePeriod, "debate-period", 600, "voting window in seconds")
}

func initRun(cmd *cobra.Command, args []string) error {
	chainID := initArgs.ChainID
	if chainID == "" {
		chainID = fmt.Sprintf("dao-chain-%v", rand.Uint64())
	}
	cfg := config.DefaultConfig(initArgs.Home)
	cmtconfig.EnsureRoot(cfg.RootDir)

	genFile := cfg.GenesisFile()
	if cmtos.FileExists(genFile) && !initArgs.Overwrite {
		return fmt.Errorf("genesis file %s already exists, use --%s to replace it", genFile, FlagOverwrite)
	}

	nodeID, pk, err := config.InitializeNodeValidatorFiles(cfg, nil)
	if err != nil {
		return err
	}
	owner, err := config.InitializeOwner(cfg)
	if err != nil {
		return err
	}

	dg := types.DefaultDAOGenesis(owner)
	dg.MinQuorum = initArgs.MinQuorum
	dg.DebatePeriod = initArgs.DebatePeriod
	if err = dg.Validate(); err != nil {
		return err
	}
	appState, err := json.Marshal(dg)
	if err != nil {
		return err
	}

	genDoc := &types.GenesisDoc{
		GenesisTime:     time.Now(),
		ChainID:         chainID,
		ConsensusParams: cmttypes.DefaultConsensusParams(),
		InitialHeight:   1,
		Validators: []types.GenesisValidator{
			{Address: pk.Address(), PubKey: pk, Power: types.DefaultPower, Name: cfg.Moniker},
		},
		AppState: appState,
	}
	if err = types.ExportGenesisFile(genDoc, genFile); err != nil {
		return fmt.Errorf("failed to export genesis file: %w", err)
	}
	cmtconfig.WriteConfigFile(filepath.Join(cfg.RootDir, cmtconfig.DefaultConfigDir, cmtconfig.DefaultConfigFileName), cfg.Config)
	if err = config.WriteAppConfigFile(cfg.AppConfigFile(), cfg); err != nil {
		return err
	}

	return displayInfo(printInfo{
		Moniker:     cfg.Moniker,
		ChainID:     chainID,
		NodeID:      nodeID,
		Chairperson: owner.Hex(),
		AppMessage:  appState,
	})
}
