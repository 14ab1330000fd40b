package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/calehh/hac-dao/dao"
	"github.com/calehh/hac-dao/state"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	CodeUnknownPath uint32 = 404
	CodeBadQuery    uint32 = 400

	maxProposalsPerQuery = 100
)

var ErrBadQuery = errors.New("bad query data")

func (app *DAOApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code = CodeUnknownPath
		res.Log = "unknown query path " + req.Path
		return
	}
	res, err = q.Query(ctx, req)
	return
}

type Querier interface {
	Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

type ProposalView struct {
	ID           uint64         `json:"id"`
	Recipient    common.Address `json:"recipient"`
	Description  string         `json:"description"`
	Payload      hexutil.Bytes  `json:"payload"`
	Status       string         `json:"status"`
	StartTime    int64          `json:"start_time"`
	DebateEnd    int64          `json:"debate_end"`
	VotesFor     uint64         `json:"votes_for"`
	VotesAgainst uint64         `json:"votes_against"`
}

func NewProposalView(p *dao.Proposal, params dao.Params) ProposalView {
	return ProposalView{
		ID:           p.ID,
		Recipient:    p.Recipient,
		Description:  p.Description,
		Payload:      p.Payload,
		Status:       p.Status.String(),
		StartTime:    p.StartTime,
		DebateEnd:    p.DebateEnd(params.DebatePeriod),
		VotesFor:     p.VotesFor,
		VotesAgainst: p.VotesAgainst,
	}
}

type VoterView struct {
	Address   common.Address `json:"address"`
	Deposited string         `json:"deposited"`
	Locks     []uint64       `json:"locks"`
}

type VoteView struct {
	Proposal uint64         `json:"proposal"`
	Voter    common.Address `json:"voter"`
	Voted    bool           `json:"voted"`
	Support  bool           `json:"support"`
}

func parseAddress(data []byte) (common.Address, error) {
	if len(data) == common.AddressLength {
		return common.BytesToAddress(data), nil
	}
	s := strings.TrimSpace(string(data))
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q is not an address", ErrBadQuery, s)
	}
	return common.HexToAddress(s), nil
}

func parseUint(data []byte) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadQuery, err)
	}
	return v, nil
}

func respond(res *abcitypes.ResponseQuery, height uint64, v any, err error) {
	if err != nil {
		res.Code = ErrorCode(err)
		if errors.Is(err, ErrBadQuery) {
			res.Code = CodeBadQuery
		}
		if errors.Is(err, state.ErrNotFound) {
			res.Code = CodeNotFound
		}
		res.Codespace = Codespace
		res.Log = err.Error()
		return
	}
	res.Height = int64(height)
	res.Value, err = json.Marshal(v)
	if err != nil {
		res.Code = CodeInternal
		res.Log = err.Error()
	}
}

type AccountQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewAccountQuerier(db *state.StateDB, logger cmtlog.Logger) (q *AccountQuerier) {
	q = &AccountQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *AccountQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	addr, err := parseAddress(req.Data)
	if err != nil {
		respond(res, 0, nil, err)
		return res, nil
	}
	a, height, err := q.db.GetAccount(addr)
	respond(res, height, a, err)
	return res, nil
}

type VoterQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewVoterQuerier(db *state.StateDB, logger cmtlog.Logger) (q *VoterQuerier) {
	q = &VoterQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *VoterQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	addr, err := parseAddress(req.Data)
	if err != nil {
		respond(res, 0, nil, err)
		return res, nil
	}
	v, height, err := q.db.GetVoter(addr)
	if err != nil {
		respond(res, height, nil, err)
		return res, nil
	}
	respond(res, height, VoterView{
		Address:   v.Address,
		Deposited: v.Deposited.ToBig().String(),
		Locks:     v.Locks,
	}, nil)
	return res, nil
}

// ProposalQuerier answers a single proposal for a decimal id, or a page
// of proposals for "from/limit" or empty data.
type ProposalQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewProposalQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ProposalQuerier) {
	q = &ProposalQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *ProposalQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	params, _, err := q.db.Params()
	if err != nil {
		respond(res, 0, nil, err)
		return res, nil
	}
	data := strings.TrimSpace(string(req.Data))
	if data != "" && !strings.Contains(data, "/") {
		id, err := parseUint(req.Data)
		if err != nil {
			respond(res, 0, nil, err)
			return res, nil
		}
		p, height, err := q.db.GetProposal(id)
		if err != nil {
			respond(res, height, nil, err)
			return res, nil
		}
		respond(res, height, NewProposalView(p, params), nil)
		return res, nil
	}

	from, limit := uint64(0), uint64(maxProposalsPerQuery)
	if data != "" {
		parts := strings.SplitN(data, "/", 2)
		if from, err = parseUint([]byte(parts[0])); err == nil {
			limit, err = parseUint([]byte(parts[1]))
		}
		if err != nil {
			respond(res, 0, nil, err)
			return res, nil
		}
		if limit > maxProposalsPerQuery {
			limit = maxProposalsPerQuery
		}
	}
	ps, height, err := q.db.Proposals(from, limit)
	views := make([]ProposalView, 0, len(ps))
	for _, p := range ps {
		views = append(views, NewProposalView(p, params))
	}
	respond(res, height, views, err)
	return res, nil
}

// VoteQuerier expects "id/address".
type VoteQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewVoteQuerier(db *state.StateDB, logger cmtlog.Logger) (q *VoteQuerier) {
	q = &VoteQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *VoteQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	parts := strings.SplitN(string(req.Data), "/", 2)
	if len(parts) != 2 {
		respond(res, 0, nil, ErrBadQuery)
		return res, nil
	}
	id, err := parseUint([]byte(parts[0]))
	if err != nil {
		respond(res, 0, nil, err)
		return res, nil
	}
	addr, err := parseAddress([]byte(parts[1]))
	if err != nil {
		respond(res, 0, nil, err)
		return res, nil
	}
	support, ok, height, err := q.db.GetVote(addr, id)
	respond(res, height, VoteView{Proposal: id, Voter: addr, Voted: ok, Support: support}, err)
	return res, nil
}

type ParamsQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewParamsQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ParamsQuerier) {
	q = &ParamsQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *ParamsQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	p, height, err := q.db.Params()
	respond(res, height, p, err)
	return res, nil
}

type ActionQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewActionQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ActionQuerier) {
	q = &ActionQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *ActionQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	seq, err := parseUint(req.Data)
	if err != nil {
		respond(res, 0, nil, err)
		return res, nil
	}
	a, height, err := q.db.GetAction(seq)
	respond(res, height, a, err)
	return res, nil
}
