package state

import (
	"sync"

	"github.com/calehh/hac-dao/dao"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
)

const treeCacheSize = 128

// StateDB owns the iavl tree and the last committed State. Block execution
// works on NewState copies over the working tree; queries read the
// immutable snapshot of the last saved version.
type StateDB struct {
	mtx sync.RWMutex

	dir    string
	logger cmtlog.Logger
	db     *iavl.MutableTree

	state    *State
	snapshot *iavl.ImmutableTree
}

func NewStateDB(dir string, logger cmtlog.Logger) (db *StateDB, err error) {
	ldb, err := dbm.NewDB("dao", "goleveldb", dir)
	if err != nil {
		return nil, err
	}
	return openStateDB(ldb, dir, logger)
}

// NewMemStateDB is backed by memory only.
func NewMemStateDB(logger cmtlog.Logger) (*StateDB, error) {
	return openStateDB(dbm.NewMemDB(), "", logger)
}

func openStateDB(ldb dbm.DB, dir string, logger cmtlog.Logger) (db *StateDB, err error) {
	logger = logger.With("module", "daodb")
	tdb := iavl.NewMutableTree(ldb, treeCacheSize, true, NewTreeLogger(logger))
	version, err := tdb.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("load db success", "version", version)
	st := newState(tdb, logger)
	st.dbVer = version
	err = st.load()
	if err != nil {
		logger.Error("from daodb load fail", "err", err)
		return nil, err
	}
	db = &StateDB{
		dir:    dir,
		logger: logger,
		db:     tdb,
		state:  st,
	}
	if db.snapshot, err = db.loadSnapshot(version); err != nil {
		return nil, err
	}
	return
}

func (db *StateDB) loadSnapshot(version int64) (*iavl.ImmutableTree, error) {
	if version == 0 {
		return iavl.NewImmutableTree(dbm.NewMemDB(), 0, true, NewTreeLogger(db.logger)), nil
	}
	return db.db.GetImmutable(version)
}

func (db *StateDB) Close() (err error) {
	err = db.db.Close()
	return
}

func (db *StateDB) Header() (header *StateHeader) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	header = db.state.Header().Clone()
	return
}

func (db *StateDB) State() *State {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state
}

func (db *StateDB) NewState() (st *State) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	st = db.state.nextState()
	return
}

func (db *StateDB) SetState(st *State) (hash common.Hash, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	hash, err = st.save()
	if err != nil {
		return
	}
	snapshot, err := db.loadSnapshot(st.dbVer)
	if err != nil {
		return
	}
	db.state = st
	db.snapshot = snapshot
	return
}

// CheckState is a private copy of the committed state for mempool checks.
func (db *StateDB) CheckState() *State {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	st := db.state.Clone()
	st.snapshot = db.snapshot
	return st
}

// view runs fn on a scratch copy of the committed state. Cache misses read
// the committed snapshot, never the working tree a block may be writing.
func (db *StateDB) view(fn func(st *State) error) (height uint64, err error) {
	db.mtx.RLock()
	st := db.state.Clone()
	st.snapshot = db.snapshot
	height = db.state.header.Height
	db.mtx.RUnlock()
	return height, fn(st)
}

func (db *StateDB) GetAccount(addr common.Address) (acnt *Account, height uint64, err error) {
	height, err = db.view(func(st *State) (err error) {
		acnt, err = st.GetAccount(addr)
		return
	})
	return
}

func (db *StateDB) GetVoter(addr common.Address) (v *dao.Voter, height uint64, err error) {
	height, err = db.view(func(st *State) (err error) {
		v, err = st.GetVoter(addr)
		return
	})
	return
}

func (db *StateDB) GetProposal(id uint64) (p *dao.Proposal, height uint64, err error) {
	height, err = db.view(func(st *State) (err error) {
		p, err = st.GetProposal(id)
		return
	})
	return
}

// Proposals lists up to limit proposals starting at id from.
func (db *StateDB) Proposals(from, limit uint64) (ps []*dao.Proposal, height uint64, err error) {
	height, err = db.view(func(st *State) error {
		for id := from; id < st.ProposalCount() && uint64(len(ps)) < limit; id++ {
			p, err := st.GetProposal(id)
			if err != nil {
				return err
			}
			ps = append(ps, p)
		}
		return nil
	})
	return
}

func (db *StateDB) GetVote(addr common.Address, id uint64) (support, ok bool, height uint64, err error) {
	height, err = db.view(func(st *State) (err error) {
		support, ok, err = st.GetVote(addr, id)
		return
	})
	return
}

func (db *StateDB) Params() (p dao.Params, height uint64, err error) {
	height, err = db.view(func(st *State) (err error) {
		p, err = st.Params()
		return
	})
	return
}

func (db *StateDB) GetAction(seq uint64) (a *Action, height uint64, err error) {
	height, err = db.view(func(st *State) (err error) {
		a, err = st.GetAction(seq)
		return
	})
	return
}
