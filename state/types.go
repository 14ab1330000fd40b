package state

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

type StateHeader struct {
	ChainId  string `json:"chain_id"`
	Height   uint64 `json:"height"`
	Time     int64  `json:"time"`
	RootHash []byte `json:"root_hash"`
	Hash     []byte `json:"hash"`
}

func (h *StateHeader) Clone() *StateHeader {
	n := *h
	n.RootHash = common.CopyBytes(h.RootHash)
	n.Hash = common.CopyBytes(h.Hash)
	return &n
}

// Account is a collateral token holder. Stored RLP-encoded.
type Account struct {
	Address common.Address
	Nonce   uint64
	Balance *uint256.Int
}

func NewAccount(addr common.Address) *Account {
	return &Account{Address: addr, Balance: new(uint256.Int)}
}

func (a *Account) Clone() *Account {
	n := &Account{Address: a.Address, Nonce: a.Nonce, Balance: new(uint256.Int)}
	if a.Balance != nil {
		n.Balance.Set(a.Balance)
	}
	return n
}

type accountSt struct {
	Address common.Address `json:"address"`
	Nonce   uint64         `json:"nonce"`
	Balance string         `json:"balance"`
}

func (a *Account) MarshalJSON() (dat []byte, err error) {
	o := accountSt{
		Address: a.Address,
		Nonce:   a.Nonce,
		Balance: "0",
	}
	if a.Balance != nil {
		o.Balance = a.Balance.ToBig().String()
	}
	return json.Marshal(o)
}

func (a *Account) UnmarshalJSON(dat []byte) (err error) {
	var o accountSt
	err = json.Unmarshal(dat, &o)
	if err != nil {
		return
	}
	a.Address = o.Address
	a.Nonce = o.Nonce
	a.Balance, err = uint256.FromDecimal(o.Balance)
	return
}

// Action is a recorded execution of an approved proposal, picked up by the
// off-chain relay.
type Action struct {
	Seq        uint64         `json:"seq"`
	ProposalID uint64         `json:"proposal_id"`
	Recipient  common.Address `json:"recipient"`
	Payload    hexutil.Bytes  `json:"payload"`
	Height     uint64         `json:"height"`
	Time       int64          `json:"time"`
}

type voteKey struct {
	addr common.Address
	id   uint64
}
