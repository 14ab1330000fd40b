package agent

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/calehh/hac-dao/dao"
	daotypes "github.com/calehh/hac-dao/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

const (
	maxRelayAttempts = 5
	relayBatch       = 20
)

// ChainIndexer follows committed blocks, mirrors DAO events into sqlite and
// hands recorded actions to the relay.
type ChainIndexer struct {
	logger        cmtlog.Logger
	Url           string
	Height        int64
	interval      time.Duration
	db            *gorm.DB
	cli           *comethttp.HTTP
	relay         Relay
	eventHandlers map[string]eventHandler
}

func OpenIndexDB(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Height{}, &Proposal{}, &Vote{}, &Movement{}, &Action{}).Error; err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func NewChainIndexer(logger cmtlog.Logger, dbPath string, chainUrl string, relay Relay, interval time.Duration) (*ChainIndexer, error) {
	logger.Info("NewChainIndexer", "dbPath", dbPath, "url", chainUrl)
	cli, err := comethttp.New(chainUrl, "/websocket")
	if err != nil {
		return nil, err
	}
	db, err := OpenIndexDB(dbPath)
	if err != nil {
		return nil, err
	}
	c, err := newChainIndexer(logger, db, relay)
	if err != nil {
		return nil, err
	}
	c.Url = chainUrl
	c.cli = cli
	c.interval = interval
	return c, nil
}

func newChainIndexer(logger cmtlog.Logger, db *gorm.DB, relay Relay) (*ChainIndexer, error) {
	h := Height{Id: 1}
	if err := db.First(&h).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if relay == nil {
		relay = NopRelay{}
	}
	c := &ChainIndexer{
		logger:   logger.With("module", "indexer"),
		Height:   int64(h.Height + 1),
		interval: time.Second,
		db:       db,
		relay:    relay,
	}
	c.eventHandlers = map[string]eventHandler{
		daotypes.EventProposalCreatedType:  c.handleEventProposalCreated,
		daotypes.EventVotedType:            c.handleEventVoted,
		daotypes.EventDepositType:          c.handleEventDeposit,
		daotypes.EventWithdrawType:         c.handleEventWithdraw,
		daotypes.EventProposalFinishedType: c.handleEventProposalResolved,
		daotypes.EventProposalRejectedType: c.handleEventProposalResolved,
		daotypes.EventActionType:           c.handleEventAction,
	}
	return c, nil
}

func (c *ChainIndexer) Close() error {
	return c.db.Close()
}

// blockTx is the sqlite transaction one block is indexed in. Actions it
// records are relayed only after the transaction commits.
type blockTx struct {
	db      *gorm.DB
	actions []*Action
}

type eventHandler func(tx *blockTx, event abci.Event, height int64) error

func (c *ChainIndexer) handleEvent(tx *blockTx, event abci.Event, height int64) error {
	if h, ok := c.eventHandlers[event.Type]; ok {
		return h(tx, event, height)
	}
	return nil
}

var errDecodeEvent = errors.New("decode event fail")

func (c *ChainIndexer) handleEventProposalCreated(tx *blockTx, event abci.Event, height int64) error {
	ev := daotypes.DecodeEventProposalCreated(event)
	if ev == nil {
		return errDecodeEvent
	}
	proposal := Proposal{
		ProposalId:  ev.ProposalID,
		Recipient:   ev.Recipient.Hex(),
		Description: ev.Description,
		Status:      dao.ProposalStatusAdded.String(),
		StartTime:   ev.StartTime,
		NewHeight:   uint64(height),
	}
	return tx.db.Where("proposal_id = ?", ev.ProposalID).Assign(proposal).FirstOrCreate(&Proposal{}).Error
}

func (c *ChainIndexer) handleEventVoted(tx *blockTx, event abci.Event, height int64) error {
	ev := daotypes.DecodeEventVoted(event)
	if ev == nil {
		return errDecodeEvent
	}
	vote := Vote{
		ProposalId: ev.ProposalID,
		Voter:      ev.Voter.Hex(),
		Support:    ev.Support,
		Height:     uint64(height),
	}
	err := tx.db.Where("proposal_id = ? AND voter = ?", vote.ProposalId, vote.Voter).First(&Vote{}).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err := tx.db.Create(&vote).Error; err != nil {
		return err
	}
	column := "votes_against"
	if ev.Support {
		column = "votes_for"
	}
	return tx.db.Model(&Proposal{}).Where("proposal_id = ?", ev.ProposalID).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1)).Error
}

func (c *ChainIndexer) handleEventDeposit(tx *blockTx, event abci.Event, height int64) error {
	ev := daotypes.DecodeEventDeposit(event)
	if ev == nil {
		return errDecodeEvent
	}
	return tx.db.Create(&Movement{
		Account: ev.Account.Hex(),
		Kind:    MovementDeposit,
		Amount:  ev.Amount.ToBig().String(),
		Balance: ev.Balance.ToBig().String(),
		Height:  uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventWithdraw(tx *blockTx, event abci.Event, height int64) error {
	ev := daotypes.DecodeEventWithdraw(event)
	if ev == nil {
		return errDecodeEvent
	}
	return tx.db.Create(&Movement{
		Account: ev.Account.Hex(),
		Kind:    MovementWithdraw,
		Amount:  ev.Amount.ToBig().String(),
		Balance: "0",
		Height:  uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventProposalResolved(tx *blockTx, event abci.Event, height int64) error {
	ev := daotypes.DecodeEventProposalResolved(event)
	if ev == nil {
		return errDecodeEvent
	}
	return tx.db.Model(&Proposal{}).Where("proposal_id = ?", ev.ProposalID).Updates(map[string]interface{}{
		"status":          ev.Status.String(),
		"resolved_height": uint64(height),
		"votes_for":       ev.VotesFor,
		"votes_against":   ev.VotesAgainst,
		"exec_error":      ev.ExecError,
	}).Error
}

func (c *ChainIndexer) handleEventAction(tx *blockTx, event abci.Event, height int64) error {
	ev := daotypes.DecodeEventAction(event)
	if ev == nil {
		return errDecodeEvent
	}
	var action Action
	err := tx.db.Where("seq = ?", ev.Seq).First(&action).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil {
		return nil
	}
	action = Action{
		Seq:        ev.Seq,
		ProposalId: ev.ProposalID,
		Recipient:  ev.Recipient.Hex(),
		Payload:    hex.EncodeToString(ev.Payload),
		Height:     uint64(height),
	}
	if err := tx.db.Create(&action).Error; err != nil {
		return err
	}
	tx.actions = append(tx.actions, &action)
	return nil
}

// forward hands one action to the relay. A relay failure is recorded on
// the row and retried later; it is not an indexing error.
func (c *ChainIndexer) forward(ctx context.Context, action *Action) error {
	payload, err := hex.DecodeString(action.Payload)
	if err != nil {
		return err
	}
	ev := &daotypes.EventAction{
		Seq:        action.Seq,
		ProposalID: action.ProposalId,
		Recipient:  common.HexToAddress(action.Recipient),
		Payload:    payload,
	}
	action.Attempts++
	if err := c.relay.Forward(ctx, ev); err != nil {
		c.logger.Error("relay action fail", "seq", action.Seq, "attempts", action.Attempts, "err", err)
		action.RelayError = err.Error()
	} else {
		action.Relayed = true
		action.RelayError = ""
		action.RelayedAt = time.Now().Unix()
	}
	return c.db.Save(action).Error
}

func (c *ChainIndexer) retryPending(ctx context.Context) {
	var actions []Action
	err := c.db.Where("relayed = ? AND attempts < ?", false, maxRelayAttempts).
		Order("seq asc").Limit(relayBatch).Find(&actions).Error
	if err != nil {
		c.logger.Error("find pending actions fail", "err", err)
		return
	}
	for i := range actions {
		if err := c.forward(ctx, &actions[i]); err != nil {
			c.logger.Error("save action fail", "seq", actions[i].Seq, "err", err)
		}
	}
}

// indexBlock applies the events of every successful tx in the block and
// advances the stored height, all in one sqlite transaction. A block that
// fails leaves nothing behind and is retried whole.
func (c *ChainIndexer) indexBlock(ctx context.Context, height int64, results []*abci.ExecTxResult) error {
	tx := &blockTx{db: c.db.Begin()}
	if err := tx.db.Error; err != nil {
		return err
	}
	for _, res := range results {
		if res == nil || res.Code != abci.CodeTypeOK {
			continue
		}
		for _, event := range res.Events {
			if err := c.handleEvent(tx, event, height); err != nil {
				c.logger.Error("handle event fail", "height", height, "type", event.Type, "err", err)
				tx.db.Rollback()
				return err
			}
		}
	}
	if err := tx.db.Save(&Height{Id: 1, Height: uint64(height)}).Error; err != nil {
		tx.db.Rollback()
		return err
	}
	if err := tx.db.Commit().Error; err != nil {
		return err
	}
	for _, action := range tx.actions {
		if err := c.forward(ctx, action); err != nil {
			c.logger.Error("save action fail", "seq", action.Seq, "err", err)
		}
	}
	return nil
}

func (c *ChainIndexer) reconnect() {
	if c.cli.IsRunning() {
		return
	}
	c.cli.Stop()
	cli, err := comethttp.New(c.Url, "/websocket")
	if err != nil {
		c.logger.Error("reconnect fail", "err", err)
		return
	}
	c.cli = cli
}

func (c *ChainIndexer) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b, err := c.cli.Status(ctx)
			if err != nil {
				c.logger.Error("get status fail", "err", err)
				c.reconnect()
				continue
			}
			for b.SyncInfo.LatestBlockHeight >= c.Height && ctx.Err() == nil {
				height := c.Height
				c.logger.Debug("indexer syncing", "height", height)
				res, err := c.cli.BlockResults(ctx, &height)
				if err != nil {
					c.logger.Error("get block results fail", "height", height, "err", err)
					c.reconnect()
					break
				}
				if err := c.indexBlock(ctx, height, res.TxsResults); err != nil {
					break
				}
				c.Height++
			}
			c.retryPending(ctx)
		}
	}
}

func (c *ChainIndexer) getProposal(id uint64) (Proposal, error) {
	var proposal Proposal
	err := c.db.Where("proposal_id = ?", id).First(&proposal).Error
	return proposal, err
}

func (c *ChainIndexer) getProposals(status string, page int, pageSize int) ([]Proposal, uint64, error) {
	var proposals []Proposal
	q := c.db.Model(&Proposal{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("proposal_id desc").Offset(page * pageSize).Limit(pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getVotes(proposal *uint64, voter string, page int, pageSize int) ([]Vote, error) {
	var votes []Vote
	q := c.db.Model(&Vote{})
	if proposal != nil {
		q = q.Where("proposal_id = ?", *proposal)
	}
	if voter != "" {
		q = q.Where("voter = ?", voter)
	}
	err := q.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	return votes, err
}

func (c *ChainIndexer) getActions(pending bool, page int, pageSize int) ([]Action, uint64, error) {
	var actions []Action
	q := c.db.Model(&Action{})
	if pending {
		q = q.Where("relayed = ?", false)
	}
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("seq desc").Offset(page * pageSize).Limit(pageSize).Find(&actions).Error
	return actions, total, err
}

func (c *ChainIndexer) getMovements(account string, page int, pageSize int) ([]Movement, error) {
	var movements []Movement
	err := c.db.Where("account = ?", account).Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&movements).Error
	return movements, err
}

func normalizeAddress(s string) string {
	if s == "" {
		return ""
	}
	return common.HexToAddress(s).Hex()
}
