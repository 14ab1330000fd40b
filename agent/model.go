package agent

// sqlite models

type Height struct {
	Id     uint64 `gorm:"primary_key" json:"id"`
	Height uint64 `json:"height"`
}

type Proposal struct {
	Id             uint64 `gorm:"primary_key" json:"-"`
	ProposalId     uint64 `gorm:"unique_index" json:"proposal_id"`
	Recipient      string `json:"recipient"`
	Description    string `json:"description"`
	Status         string `json:"status"`
	StartTime      int64  `json:"start_time"`
	NewHeight      uint64 `json:"new_height"`
	ResolvedHeight uint64 `json:"resolved_height"`
	VotesFor       uint64 `json:"votes_for"`
	VotesAgainst   uint64 `json:"votes_against"`
	ExecError      string `json:"exec_error"`
}

type Vote struct {
	Id         uint64 `gorm:"primary_key" json:"-"`
	ProposalId uint64 `gorm:"index" json:"proposal_id"`
	Voter      string `gorm:"index" json:"voter"`
	Support    bool   `json:"support"`
	Height     uint64 `json:"height"`
}

const (
	MovementDeposit  = "deposit"
	MovementWithdraw = "withdraw"
)

// Movement is a deposit into or a withdrawal out of the escrow.
type Movement struct {
	Id      uint64 `gorm:"primary_key" json:"-"`
	Account string `gorm:"index" json:"account"`
	Kind    string `json:"kind"`
	Amount  string `json:"amount"`
	Balance string `json:"balance"`
	Height  uint64 `json:"height"`
}

type Action struct {
	Id         uint64 `gorm:"primary_key" json:"-"`
	Seq        uint64 `gorm:"unique_index" json:"seq"`
	ProposalId uint64 `json:"proposal_id"`
	Recipient  string `json:"recipient"`
	Payload    string `json:"payload"`
	Height     uint64 `json:"height"`
	Relayed    bool   `json:"relayed"`
	Attempts   uint64 `json:"attempts"`
	RelayError string `json:"relay_error"`
	RelayedAt  int64  `json:"relayed_at"`
}
