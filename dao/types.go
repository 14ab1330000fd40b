package dao

import (
	"math"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

const (
	// MinDebatePeriod is the shortest debate window, in seconds, an engine
	// can be constructed with.
	MinDebatePeriod = 180

	MaxPayloadSize       = 64 * 1024
	MaxDescriptionLength = 4096
)

var (
	// EscrowAddress is the ledger account holding every deposit.
	EscrowAddress = common.BytesToAddress(crypto.Keccak256([]byte("dao/escrow"))[12:])

	RoleChairperson = crypto.Keccak256Hash([]byte("CHAIR_PERSON"))
)

type ProposalStatus uint8

const (
	ProposalStatusNone     ProposalStatus = 0
	ProposalStatusAdded    ProposalStatus = 1
	ProposalStatusFinished ProposalStatus = 2
	ProposalStatusRejected ProposalStatus = 3
)

func (s ProposalStatus) String() string {
	switch s {
	case ProposalStatusAdded:
		return "added"
	case ProposalStatusFinished:
		return "finished"
	case ProposalStatusRejected:
		return "rejected"
	default:
		return "none"
	}
}

func (s ProposalStatus) Resolved() bool {
	return s == ProposalStatusFinished || s == ProposalStatusRejected
}

type Proposal struct {
	ID           uint64         `json:"id"`
	Recipient    common.Address `json:"recipient"`
	Description  string         `json:"description"`
	Payload      []byte         `json:"payload"`
	Status       ProposalStatus `json:"status"`
	StartTime    int64          `json:"start_time"`
	VotesFor     uint64         `json:"votes_for"`
	VotesAgainst uint64         `json:"votes_against"`
}

// DebateEnd is the first instant, in unix seconds, outside the debate window.
// It saturates at math.MaxInt64, so a window too long to represent never ends.
func (p *Proposal) DebateEnd(debatePeriod uint64) int64 {
	room := uint64(math.MaxInt64) - uint64(p.StartTime)
	if p.StartTime < 0 {
		room = uint64(math.MaxInt64) + uint64(-p.StartTime)
	}
	if debatePeriod >= room {
		return math.MaxInt64
	}
	return int64(uint64(p.StartTime) + debatePeriod)
}

func (p *Proposal) TotalVotes() uint64 {
	return p.VotesFor + p.VotesAgainst
}

func (p *Proposal) Clone() *Proposal {
	n := *p
	if p.Payload != nil {
		n.Payload = make([]byte, len(p.Payload))
		copy(n.Payload, p.Payload)
	}
	return &n
}

// Voter is the per-account voting record. Locks holds the proposals the
// account voted on that were still open when last observed; entries are
// pruned lazily once the referenced proposal resolves.
type Voter struct {
	Address   common.Address
	Deposited *uint256.Int
	Locks     []uint64
}

func NewVoter(addr common.Address) *Voter {
	return &Voter{
		Address:   addr,
		Deposited: new(uint256.Int),
		Locks:     []uint64{},
	}
}

func (v *Voter) Clone() *Voter {
	n := &Voter{
		Address:   v.Address,
		Deposited: new(uint256.Int),
		Locks:     make([]uint64, len(v.Locks)),
	}
	if v.Deposited != nil {
		n.Deposited.Set(v.Deposited)
	}
	copy(n.Locks, v.Locks)
	return n
}

func (v *Voter) HasDeposit() bool {
	return v.Deposited != nil && !v.Deposited.IsZero()
}

type Params struct {
	Chairperson  common.Address `json:"chairperson"`
	MinQuorum    uint64         `json:"min_quorum"`
	DebatePeriod uint64         `json:"debate_period"`
}

func (p Params) Validate() error {
	if p.Chairperson == (common.Address{}) {
		return ErrInvalidChairperson
	}
	if p.MinQuorum == 0 {
		return ErrInvalidMinQuorum
	}
	if p.DebatePeriod < MinDebatePeriod {
		return ErrInvalidDebatePeriod
	}
	return nil
}
