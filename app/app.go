package app

import (
	"context"
	"fmt"

	"github.com/calehh/hac-dao/config"
	"github.com/calehh/hac-dao/state"
	"github.com/calehh/hac-dao/tx"
	"github.com/calehh/hac-dao/tx/handler"
	"github.com/calehh/hac-dao/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
)

const AppVersion uint64 = 1

var _ abcitypes.Application = &DAOApp{}

type DAOApp struct {
	cfg    *config.AppConfig
	logger cmtlog.Logger

	db       *state.StateDB
	txHdlrs  map[tx.DAOTxType]handler.TxHandler
	queriers map[string]Querier

	// genesis holds the InitChain state until the first block commits it.
	genesis *state.State
	st      *state.State
}

func NewDAOApp(cfg *config.AppConfig, logger cmtlog.Logger) (app *DAOApp, err error) {
	db, err := state.NewStateDB(cfg.DataDir(), logger)
	if err != nil {
		return nil, err
	}
	return NewDAOAppWithDB(cfg, db, logger), nil
}

func NewDAOAppWithDB(cfg *config.AppConfig, db *state.StateDB, logger cmtlog.Logger) (app *DAOApp) {
	logger = logger.With("module", "app")
	app = &DAOApp{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		txHdlrs:  make(map[tx.DAOTxType]handler.TxHandler),
		queriers: make(map[string]Querier),
	}
	app.registerTxHandler()
	app.registerQuerier()
	return
}

func (app *DAOApp) DB() *state.StateDB {
	return app.db
}

func (app *DAOApp) Stop() {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("close db fail", "err", err)
	}
	app.logger.Info("DAO app stopped")
}

func (app *DAOApp) registerTxHandler() {
	app.txHdlrs = handler.Handlers(app.logger)
}

func (app *DAOApp) registerQuerier() {
	app.queriers["/accounts/"] = NewAccountQuerier(app.db, app.logger)
	app.queriers["/voters/"] = NewVoterQuerier(app.db, app.logger)
	app.queriers["/proposals/"] = NewProposalQuerier(app.db, app.logger)
	app.queriers["/votes/"] = NewVoteQuerier(app.db, app.logger)
	app.queriers["/params/"] = NewParamsQuerier(app.db, app.logger)
	app.queriers["/actions/"] = NewActionQuerier(app.db, app.logger)
}

// InitChain loads the DAO genesis. The resulting state is not committed
// here; the first block builds on it, so a replayed InitChain starts clean.
func (app *DAOApp) InitChain(_ context.Context, chain *abcitypes.RequestInitChain) (res *abcitypes.ResponseInitChain, err error) {
	g, err := types.ParseDAOGenesis(chain.AppStateBytes)
	if err != nil {
		app.logger.Error("InitChain parse genesis fail", "err", err)
		return nil, err
	}
	st := app.db.NewState()
	st.SetChainId(chain.ChainId)
	st.SetBlock(genesisHeight(chain.InitialHeight), chain.Time)
	if err = st.SetParams(g.Params()); err != nil {
		app.logger.Error("InitChain set params fail", "err", err)
		return nil, err
	}
	for _, b := range g.Balances {
		amount, err := tx.ParseAmount(b.Amount)
		if err != nil {
			return nil, fmt.Errorf("genesis balance of %s: %w", b.Address, err)
		}
		if err = st.Mint(common.HexToAddress(b.Address), amount); err != nil {
			return nil, fmt.Errorf("genesis balance of %s: %w", b.Address, err)
		}
	}
	h, err := st.Update()
	if err != nil {
		app.logger.Error("InitChain update state fail", "err", err)
		return nil, err
	}
	app.genesis = st
	app.logger.Info("InitChain", "chain", chain.ChainId, "chairperson", g.Chairperson,
		"minQuorum", g.MinQuorum, "debatePeriod", g.DebatePeriod, "balances", len(g.Balances))
	return &abcitypes.ResponseInitChain{
		AppHash: h.Bytes(),
	}, nil
}

func genesisHeight(initial int64) uint64 {
	if initial <= 1 {
		return 0
	}
	return uint64(initial - 1)
}

func (app *DAOApp) Info(ctx context.Context, info *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	header := app.db.Header()
	return &abcitypes.ResponseInfo{
		Version:          "dao",
		AppVersion:       AppVersion,
		LastBlockHeight:  int64(header.Height),
		LastBlockAppHash: header.Hash,
	}, nil
}

func (app *DAOApp) ExtendVote(_ context.Context, extend *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (app *DAOApp) VerifyVoteExtension(_ context.Context, verify *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

func (app *DAOApp) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{}, nil
}

func (app *DAOApp) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

func (app *DAOApp) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

func (app *DAOApp) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{}, nil
}
