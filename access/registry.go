// Package access implements the role registry: 32-byte role identifiers,
// membership sets, and admin-of-role relationships.
//
// Every role has exactly one admin role (the super-admin role by default,
// which administers itself). Only holders of a role's admin role may mutate
// its membership. Separating critical roles (admin, upgrader) from
// operational ones (pauser, allowlist admin) lets routine operations run
// from hot wallets while upgrade authority stays in governed custody.
package access

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Role is a 32-byte role identifier, derived from the role name.
type Role common.Hash

// RoleID derives a role identifier from its name.
func RoleID(name string) Role {
	return Role(crypto.Keccak256Hash([]byte(name)))
}

// Hex returns the role id as a 0x-prefixed hex string.
func (r Role) Hex() string {
	return common.Hash(r).Hex()
}

// Roles recognized by the token core. RoleAdmin is the zero hash and
// administers itself and, by default, every other role. RoleBridge is not a
// registry role: the bridge is a single-holder capability pinned on the
// token, and the identifier exists only so authorization failures can name
// it.
var (
	RoleAdmin          = Role{}
	RolePauser         = RoleID("PAUSER_ROLE")
	RoleAllowlistAdmin = RoleID("ALLOWLIST_ADMIN_ROLE")
	RoleUpgrader       = RoleID("UPGRADER_ROLE")
	RoleBridge         = RoleID("BRIDGE")
)

// ErrUnauthorized is the common authorization failure. Errors returned by
// the registry wrap it, so errors.Is(err, ErrUnauthorized) matches while the
// concrete *Unauthorized value still names the missing role.
var ErrUnauthorized = errors.New("access: unauthorized")

// Unauthorized reports an account missing a required role.
type Unauthorized struct {
	Role    Role
	Account common.Address
}

func (e *Unauthorized) Error() string {
	return fmt.Sprintf("access: account %s is missing role %s", e.Account.Hex(), e.Role.Hex())
}

func (e *Unauthorized) Unwrap() error { return ErrUnauthorized }

// Registry tracks role membership and role admins.
type Registry struct {
	members map[Role]map[common.Address]bool
	admins  map[Role]Role
}

// NewRegistry creates an empty registry. No account holds any role until
// Bootstrap or GrantRole runs.
func NewRegistry() *Registry {
	return &Registry{
		members: make(map[Role]map[common.Address]bool),
		admins:  make(map[Role]Role),
	}
}

// HasRole reports whether account holds role.
func (r *Registry) HasRole(role Role, account common.Address) bool {
	return r.members[role][account]
}

// AdminOf returns the role that administers role. Unconfigured roles are
// administered by RoleAdmin.
func (r *Registry) AdminOf(role Role) Role {
	if admin, ok := r.admins[role]; ok {
		return admin
	}
	return RoleAdmin
}

// GrantRole adds account to role. The caller must hold role's admin role.
func (r *Registry) GrantRole(caller common.Address, role Role, account common.Address) error {
	if err := r.CheckRole(r.AdminOf(role), caller); err != nil {
		return err
	}
	r.Bootstrap(role, account)
	return nil
}

// RevokeRole removes account from role. The caller must hold role's admin
// role.
func (r *Registry) RevokeRole(caller common.Address, role Role, account common.Address) error {
	if err := r.CheckRole(r.AdminOf(role), caller); err != nil {
		return err
	}
	if set, ok := r.members[role]; ok {
		delete(set, account)
		if len(set) == 0 {
			delete(r.members, role)
		}
	}
	return nil
}

// SetRoleAdmin re-points role's admin role. Restricted to RoleAdmin holders.
func (r *Registry) SetRoleAdmin(caller common.Address, role, admin Role) error {
	if err := r.CheckRole(RoleAdmin, caller); err != nil {
		return err
	}
	r.admins[role] = admin
	return nil
}

// CheckRole returns a role-parameterized Unauthorized error when account
// does not hold role.
func (r *Registry) CheckRole(role Role, account common.Address) error {
	if !r.HasRole(role, account) {
		return &Unauthorized{Role: role, Account: account}
	}
	return nil
}

// Bootstrap grants role to account without an authorization check. It exists
// for the initialization path, before any admin holds RoleAdmin; all later
// mutation goes through GrantRole/RevokeRole.
func (r *Registry) Bootstrap(role Role, account common.Address) {
	set, ok := r.members[role]
	if !ok {
		set = make(map[common.Address]bool)
		r.members[role] = set
	}
	set[account] = true
}

// Members returns the accounts holding role, in unspecified order.
func (r *Registry) Members(role Role) []common.Address {
	set := r.members[role]
	out := make([]common.Address, 0, len(set))
	for addr := range set {
		out = append(out, addr)
	}
	return out
}
