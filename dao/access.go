package dao

import (
	"github.com/ethereum/go-ethereum/common"
)

// AccessRegistry maps roles to the accounts holding them. Roles are granted
// once when the engine is built and never revoked.
type AccessRegistry struct {
	roles map[common.Hash]map[common.Address]struct{}
}

func NewAccessRegistry() *AccessRegistry {
	return &AccessRegistry{roles: make(map[common.Hash]map[common.Address]struct{})}
}

func (r *AccessRegistry) grant(role common.Hash, account common.Address) {
	members, ok := r.roles[role]
	if !ok {
		members = make(map[common.Address]struct{})
		r.roles[role] = members
	}
	members[account] = struct{}{}
}

func (r *AccessRegistry) HasRole(role common.Hash, account common.Address) bool {
	_, ok := r.roles[role][account]
	return ok
}
