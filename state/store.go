package state

import (
	"encoding/json"
	"fmt"

	"github.com/calehh/hac-dao/dao"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

var _ dao.Store = (*State)(nil)

func (s *State) ProposalCount() uint64 {
	return s.proposalCount
}

func (s *State) GetProposal(id uint64) (*dao.Proposal, error) {
	if id >= s.proposalCount {
		return nil, dao.ErrNotFound
	}
	if p, ok := s.proposals[id]; ok {
		return p.Clone(), nil
	}
	val, err := s.get(fmt.Sprintf(KeyProposalBody, id))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, dao.ErrNotFound
	}
	p := new(dao.Proposal)
	if err = json.Unmarshal(val, p); err != nil {
		return nil, err
	}
	s.proposals[id] = p
	return p.Clone(), nil
}

func (s *State) SetProposal(p *dao.Proposal) error {
	switch {
	case p.ID == s.proposalCount:
		s.proposalCount++
	case p.ID > s.proposalCount:
		return ErrProposalGap
	}
	s.proposals[p.ID] = p.Clone()
	s.modifiedProposals[p.ID] = true
	return nil
}

func (s *State) GetVoter(addr common.Address) (*dao.Voter, error) {
	if v, ok := s.voters[addr]; ok {
		return v.Clone(), nil
	}
	val, err := s.get(fmt.Sprintf(KeyVoterBody, addr))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return dao.NewVoter(addr), nil
	}
	v, err := decodeVoter(val)
	if err != nil {
		return nil, err
	}
	s.voters[addr] = v
	return v.Clone(), nil
}

func decodeVoter(val []byte) (*dao.Voter, error) {
	v := new(dao.Voter)
	if err := rlp.DecodeBytes(val, v); err != nil {
		return nil, err
	}
	if v.Deposited == nil {
		v.Deposited = dao.NewVoter(v.Address).Deposited
	}
	if v.Locks == nil {
		v.Locks = []uint64{}
	}
	return v, nil
}

func (s *State) SetVoter(v *dao.Voter) error {
	s.voters[v.Address] = v.Clone()
	s.modifiedVoters[v.Address] = true
	return nil
}

func (s *State) HasVoted(addr common.Address, id uint64) (bool, error) {
	_, ok, err := s.GetVote(addr, id)
	return ok, err
}

// GetVote returns the recorded support flag of addr on proposal id.
func (s *State) GetVote(addr common.Address, id uint64) (support bool, ok bool, err error) {
	if support, ok = s.votes[voteKey{addr, id}]; ok {
		return
	}
	val, err := s.get(fmt.Sprintf(KeyVoteRecord, addr, id))
	if err != nil || len(val) == 0 {
		return false, false, err
	}
	return val[0] == 1, true, nil
}

func (s *State) SetVoted(addr common.Address, id uint64, support bool) error {
	s.votes[voteKey{addr, id}] = support
	return nil
}

// Voters iterates every persisted voter record, overlaid with the cache.
func (s *State) Voters() (voters []*dao.Voter, err error) {
	seen := make(map[common.Address]bool)
	start := []byte("v")
	it, err := s.iterator(start, PrefixEndBytes(start))
	if err != nil {
		return nil, err
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		v, err := decodeVoter(it.Value())
		if err != nil {
			return nil, err
		}
		if c, ok := s.voters[v.Address]; ok {
			v = c.Clone()
		}
		seen[v.Address] = true
		voters = append(voters, v)
	}
	for addr, v := range s.voters {
		if !seen[addr] {
			voters = append(voters, v.Clone())
		}
	}
	return voters, it.Error()
}
