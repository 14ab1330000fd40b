package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/calehh/hac-dao/dao"
	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
)

type GenesisState map[string]json.RawMessage

type GenesisValidator struct {
	Address crypto.Address `json:"address"`
	PubKey  crypto.PubKey  `json:"pub_key"`
	Power   int64          `json:"power"`
	Name    string         `json:"name"`
}

// GenesisDoc defines the initial conditions for a CometBFT blockchain, in particular its validator set.
type GenesisDoc struct {
	GenesisTime     time.Time                 `json:"genesis_time"`
	ChainID         string                    `json:"chain_id"`
	InitialHeight   int64                     `json:"initial_height"`
	ConsensusParams *cmttypes.ConsensusParams `json:"consensus_params,omitempty"`
	Validators      []GenesisValidator        `json:"validators"`
	AppHash         []byte                    `json:"app_hash"`
	AppState        json.RawMessage           `json:"app_state"`
}

// SaveAs is a utility method for saving GenensisDoc as a JSON file.
func (genDoc *GenesisDoc) SaveAs(file string) error {
	genDocBytes, err := cmtjson.MarshalIndent(genDoc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, genDocBytes, 0o600)
}

func (ag *GenesisDoc) ValidateAndComplete() error {
	if ag.ChainID == "" {
		return errors.New("genesis doc must include non-empty chain_id")
	}

	if ag.InitialHeight < 0 {
		return fmt.Errorf("initial_height cannot be negative (got %v)", ag.InitialHeight)
	}

	if ag.InitialHeight == 0 {
		ag.InitialHeight = 1
	}

	if ag.GenesisTime.IsZero() {
		ag.GenesisTime = time.Now().Round(0).UTC()
	}

	return nil
}

func ExportGenesisFile(genesis *GenesisDoc, genFile string) error {
	if err := genesis.ValidateAndComplete(); err != nil {
		return err
	}
	return genesis.SaveAs(genFile)
}

const DAOModuleName = "dao"
const DefaultPower = 1000

var validate = validator.New()

type GenesisBalance struct {
	Address string `json:"address" validate:"required,eth_addr"`
	Amount  string `json:"amount" validate:"required,numeric"`
}

// DAOGenesis is the app_state of the genesis file.
type DAOGenesis struct {
	Token        string           `json:"token" validate:"required"`
	Chairperson  string           `json:"chairperson" validate:"required,eth_addr"`
	MinQuorum    uint64           `json:"min_quorum" validate:"gt=0"`
	DebatePeriod uint64           `json:"debate_period" validate:"gte=180"`
	Balances     []GenesisBalance `json:"balances" validate:"dive"`
}

func DefaultDAOGenesis(chairperson common.Address) *DAOGenesis {
	return &DAOGenesis{
		Token:        "DAO",
		Chairperson:  chairperson.Hex(),
		MinQuorum:    3,
		DebatePeriod: 600,
		Balances: []GenesisBalance{
			{Address: chairperson.Hex(), Amount: "1000000000000000000000000"},
		},
	}
}

func ParseDAOGenesis(appState []byte) (*DAOGenesis, error) {
	g := new(DAOGenesis)
	if err := json.Unmarshal(appState, g); err != nil {
		return nil, fmt.Errorf("decode app_state: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *DAOGenesis) Validate() error {
	if g.DebatePeriod < dao.MinDebatePeriod {
		return dao.ErrInvalidDebatePeriod
	}
	if err := validate.Struct(g); err != nil {
		return fmt.Errorf("invalid dao genesis: %w", err)
	}
	seen := make(map[common.Address]bool, len(g.Balances))
	for _, b := range g.Balances {
		addr := common.HexToAddress(b.Address)
		if addr == dao.EscrowAddress {
			return fmt.Errorf("invalid dao genesis: balance for escrow account")
		}
		if seen[addr] {
			return fmt.Errorf("invalid dao genesis: duplicate balance for %s", addr)
		}
		seen[addr] = true
	}
	return nil
}

func (g *DAOGenesis) Params() dao.Params {
	return dao.Params{
		Chairperson:  common.HexToAddress(g.Chairperson),
		MinQuorum:    g.MinQuorum,
		DebatePeriod: g.DebatePeriod,
	}
}
