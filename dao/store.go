package dao

import (
	"github.com/ethereum/go-ethereum/common"
)

// Store persists proposals, voter records and the per-proposal vote set.
// Getters return copies; callers write back through the setters.
type Store interface {
	ProposalCount() uint64
	GetProposal(id uint64) (*Proposal, error)
	SetProposal(p *Proposal) error

	GetVoter(addr common.Address) (*Voter, error)
	SetVoter(v *Voter) error

	HasVoted(addr common.Address, id uint64) (bool, error)
	SetVoted(addr common.Address, id uint64, support bool) error
}

type voteKey struct {
	addr common.Address
	id   uint64
}

// MemStore is an in-memory Store.
type MemStore struct {
	proposals []*Proposal
	voters    map[common.Address]*Voter
	votes     map[voteKey]bool
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		voters: make(map[common.Address]*Voter),
		votes:  make(map[voteKey]bool),
	}
}

func (s *MemStore) ProposalCount() uint64 {
	return uint64(len(s.proposals))
}

func (s *MemStore) GetProposal(id uint64) (*Proposal, error) {
	if id >= uint64(len(s.proposals)) {
		return nil, ErrNotFound
	}
	return s.proposals[id].Clone(), nil
}

func (s *MemStore) SetProposal(p *Proposal) error {
	switch {
	case p.ID < uint64(len(s.proposals)):
		s.proposals[p.ID] = p.Clone()
	case p.ID == uint64(len(s.proposals)):
		s.proposals = append(s.proposals, p.Clone())
	default:
		return ErrNotFound
	}
	return nil
}

// GetVoter returns a fresh zero record for unknown accounts.
func (s *MemStore) GetVoter(addr common.Address) (*Voter, error) {
	v, ok := s.voters[addr]
	if !ok {
		return NewVoter(addr), nil
	}
	return v.Clone(), nil
}

func (s *MemStore) SetVoter(v *Voter) error {
	s.voters[v.Address] = v.Clone()
	return nil
}

func (s *MemStore) HasVoted(addr common.Address, id uint64) (bool, error) {
	_, ok := s.votes[voteKey{addr, id}]
	return ok, nil
}

func (s *MemStore) SetVoted(addr common.Address, id uint64, support bool) error {
	s.votes[voteKey{addr, id}] = support
	return nil
}

// Voters lists every account record the store holds.
func (s *MemStore) Voters() []*Voter {
	res := make([]*Voter, 0, len(s.voters))
	for _, v := range s.voters {
		res = append(res, v.Clone())
	}
	return res
}
