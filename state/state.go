package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/calehh/hac-dao/dao"
	"github.com/calehh/hac-dao/tx"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"
)

var (
	KeyState         = "s"
	KeyParams        = "g"
	KeyAccountBody   = "a%x"
	KeyVoterBody     = "v%x"
	KeyVoteRecord    = "r%x/%d"
	KeyProposalBody  = "p%v"
	KeyProposalIndex = "pi"
	KeyActionBody    = "x%v"
	KeyActionIndex   = "xi"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrTxNonceInvalid       = errors.New("nonce invalid")
	ErrTxSigInvalid         = errors.New("signature invalid")
	ErrParamsNotInitialized = errors.New("dao params not initialized")
	ErrParamsAlreadySet     = errors.New("dao params already set")
	ErrProposalGap          = errors.New("proposal id out of sequence")
)

// State is a block's view of the application state. Reads fall through the
// caches to the iavl tree; writes stay in the caches until Update.
type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
	dbVer  int64
	// snapshot, when set, serves reads instead of the working tree.
	snapshot *iavl.ImmutableTree

	header   *StateHeader
	params   *dao.Params
	modParam bool

	acnts         map[common.Address]*Account
	modifiedAcnts map[common.Address]bool

	voters         map[common.Address]*dao.Voter
	modifiedVoters map[common.Address]bool

	proposalCount     uint64
	proposals         map[uint64]*dao.Proposal
	modifiedProposals map[uint64]bool

	votes map[voteKey]bool

	actionCount uint64
	newActions  []*Action
}

func newState(db *iavl.MutableTree, logger cmtlog.Logger) *State {
	return &State{
		logger:            logger,
		db:                db,
		header:            new(StateHeader),
		acnts:             make(map[common.Address]*Account),
		modifiedAcnts:     make(map[common.Address]bool),
		voters:            make(map[common.Address]*dao.Voter),
		modifiedVoters:    make(map[common.Address]bool),
		proposals:         make(map[uint64]*dao.Proposal),
		modifiedProposals: make(map[uint64]bool),
		votes:             make(map[voteKey]bool),
	}
}

// nextState starts the state of the block following s.
func (s *State) nextState() *State {
	n := newState(s.db, s.logger)
	n.dbVer = s.dbVer
	n.header = s.header.Clone()
	if s.header.Hash != nil {
		n.header.Height = s.header.Height + 1
	}
	if s.params != nil {
		p := *s.params
		n.params = &p
	}
	n.proposalCount = s.proposalCount
	n.actionCount = s.actionCount
	return n
}

func deepCopyMap[K comparable, V any](source map[K]V) map[K]V {
	res := make(map[K]V, len(source))
	for k, v := range source {
		switch x := any(v).(type) {
		case *Account:
			res[k] = any(x.Clone()).(V)
		case *dao.Voter:
			res[k] = any(x.Clone()).(V)
		case *dao.Proposal:
			res[k] = any(x.Clone()).(V)
		default:
			res[k] = v
		}
	}
	return res
}

// Clone returns a scratch copy sharing the tree. Discarding the copy drops
// everything done to it.
func (s *State) Clone() *State {
	n := &State{
		logger:            s.logger,
		db:                s.db,
		dbVer:             s.dbVer,
		snapshot:          s.snapshot,
		header:            s.header.Clone(),
		modParam:          s.modParam,
		acnts:             deepCopyMap(s.acnts),
		modifiedAcnts:     deepCopyMap(s.modifiedAcnts),
		voters:            deepCopyMap(s.voters),
		modifiedVoters:    deepCopyMap(s.modifiedVoters),
		proposalCount:     s.proposalCount,
		proposals:         deepCopyMap(s.proposals),
		modifiedProposals: deepCopyMap(s.modifiedProposals),
		votes:             deepCopyMap(s.votes),
		actionCount:       s.actionCount,
		newActions:        append([]*Action(nil), s.newActions...),
	}
	if s.params != nil {
		p := *s.params
		n.params = &p
	}
	return n
}

func notFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

func (s *State) get(key string) (val []byte, err error) {
	if s.snapshot != nil {
		val, err = s.snapshot.Get([]byte(key))
	} else {
		val, err = s.db.Get([]byte(key))
	}
	if err != nil && !notFound(err) {
		return nil, err
	}
	return val, nil
}

func (s *State) iterator(start, end []byte) (dbm.Iterator, error) {
	if s.snapshot != nil {
		return s.snapshot.Iterator(start, end, true)
	}
	return s.db.Iterator(start, end, true)
}

func (s *State) load() (err error) {
	val, err := s.get(KeyProposalIndex)
	if err != nil {
		return err
	}
	s.proposalCount = new(big.Int).SetBytes(val).Uint64()
	val, err = s.get(KeyActionIndex)
	if err != nil {
		return err
	}
	s.actionCount = new(big.Int).SetBytes(val).Uint64()
	val, err = s.get(KeyParams)
	if err != nil {
		return err
	}
	if val != nil {
		s.params = new(dao.Params)
		if err = json.Unmarshal(val, s.params); err != nil {
			return err
		}
	}
	val, err = s.get(KeyState)
	if err != nil {
		return err
	}
	if val != nil {
		err = json.Unmarshal(val, s.header)
		if err != nil {
			return
		}
		h := s.db.Hash()
		if h != nil {
			s.calcHash(h, true)
		}
	}
	return
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		s.header.RootHash = common.CopyBytes(rootHash)
		s.header.Hash = common.CopyBytes(h[:])
	}
	return
}

type kv struct {
	key []byte
	val []byte
}

func (s *State) collect() (kvs []kv, err error) {
	put := func(key string, val []byte) {
		kvs = append(kvs, kv{[]byte(key), val})
	}
	var val []byte
	if val, err = json.Marshal(s.header); err != nil {
		return
	}
	put(KeyState, val)

	if s.modParam && s.params != nil {
		if val, err = json.Marshal(s.params); err != nil {
			return
		}
		put(KeyParams, val)
	}
	for addr := range s.modifiedAcnts {
		if val, err = rlp.EncodeToBytes(s.acnts[addr]); err != nil {
			return
		}
		put(fmt.Sprintf(KeyAccountBody, addr), val)
	}
	for addr := range s.modifiedVoters {
		if val, err = rlp.EncodeToBytes(s.voters[addr]); err != nil {
			return
		}
		put(fmt.Sprintf(KeyVoterBody, addr), val)
	}
	if len(s.modifiedProposals) > 0 {
		put(KeyProposalIndex, new(big.Int).SetUint64(s.proposalCount).Bytes())
	}
	for id := range s.modifiedProposals {
		if val, err = json.Marshal(s.proposals[id]); err != nil {
			return
		}
		put(fmt.Sprintf(KeyProposalBody, id), val)
	}
	for k, support := range s.votes {
		b := byte(0)
		if support {
			b = 1
		}
		put(fmt.Sprintf(KeyVoteRecord, k.addr, k.id), []byte{b})
	}
	if len(s.newActions) > 0 {
		put(KeyActionIndex, new(big.Int).SetUint64(s.actionCount).Bytes())
	}
	for _, a := range s.newActions {
		if val, err = json.Marshal(a); err != nil {
			return
		}
		put(fmt.Sprintf(KeyActionBody, a.Seq), val)
	}
	sort.Slice(kvs, func(i, j int) bool {
		return string(kvs[i].key) < string(kvs[j].key)
	})
	return
}

// Update writes the block's modifications to the working tree and returns
// the resulting app hash.
func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	kvs, err := s.collect()
	if err != nil {
		return
	}
	for _, e := range kvs {
		if _, err = s.db.Set(e.key, e.val); err != nil {
			return
		}
	}
	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.modParam = false
	s.modifiedAcnts = make(map[common.Address]bool)
	s.modifiedVoters = make(map[common.Address]bool)
	s.modifiedProposals = make(map[uint64]bool)
	s.votes = make(map[voteKey]bool)
	s.newActions = nil
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}
	s.dbVer = ver
	h = s.calcHash(hash, true)
	return
}

func (s *State) Header() *StateHeader {
	return s.header
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) SetChainId(chainId string) {
	s.header.ChainId = chainId
}

// SetBlock pins the height and block time the block's transactions run at.
func (s *State) SetBlock(height uint64, t time.Time) {
	s.header.Height = height
	s.header.Time = t.Unix()
}

func (s *State) BlockTime() time.Time {
	return time.Unix(s.header.Time, 0)
}

func (s *State) Params() (dao.Params, error) {
	if s.params == nil {
		return dao.Params{}, ErrParamsNotInitialized
	}
	return *s.params, nil
}

// SetParams stores the governance parameters once, at genesis.
func (s *State) SetParams(p dao.Params) error {
	if s.params != nil {
		return ErrParamsAlreadySet
	}
	if err := p.Validate(); err != nil {
		return err
	}
	s.params = &p
	s.modParam = true
	return nil
}

// Engine builds a governance engine over this state. The state serves as
// store, collateral ledger and action executor.
func (s *State) Engine(logger cmtlog.Logger) (*dao.Engine, error) {
	params, err := s.Params()
	if err != nil {
		return nil, err
	}
	return dao.NewEngine(params, s, s, s, logger)
}

func (s *State) Verify(btx *tx.DAOTx, allowNonceGap bool) (err error) {
	a, err := s.GetAccount(btx.Sender)
	if err != nil {
		return err
	}
	if !(a.Nonce == btx.Nonce || (allowNonceGap && a.Nonce < btx.Nonce)) {
		return ErrTxNonceInvalid
	}
	signer, err := btx.Signer(s.header.ChainId)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTxSigInvalid, err)
	}
	if signer != btx.Sender {
		return ErrTxSigInvalid
	}
	return nil
}

func PrefixEndBytes(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}

	end := make([]byte, len(prefix))
	copy(end, prefix)

	for {
		if end[len(end)-1] != byte(255) {
			end[len(end)-1]++
			break
		}

		end = end[:len(end)-1]

		if len(end) == 0 {
			end = nil
			break
		}
	}

	return end
}
