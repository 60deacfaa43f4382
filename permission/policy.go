package permission

import (
	"errors"
	"sync"
)

// ErrForbidden is returned by [Policy.Authorize] when the role lacks the permission.
var ErrForbidden = errors.New("forbidden")

// Permission names used by the account and user administration flows.
const (
	PermAccountRead      = "account:read"
	PermAccountPassword  = "account:password"
	PermUsersCreate      = "users:create"
	PermUsersList        = "users:list"
	PermUsersSetPassword = "users:set_password"
	PermUsersActivation  = "users:activation"
	PermUsersRoles       = "users:roles"
)

// Policy maps permission names to bits and roles to masks.
//
// Register and Grant are setup-time calls; after Freeze the policy is read-only
// and safe for concurrent use.
type Policy struct {
	mu        sync.RWMutex
	nameToBit map[string]int
	bitToName map[int]string
	roles     map[Role]Mask64
	frozen    bool
}

// NewPolicy returns an empty policy. Super admins always hold the root bit.
func NewPolicy() *Policy {
	root := Mask64(0)
	root.Set(rootBit)
	return &Policy{
		nameToBit: make(map[string]int),
		bitToName: make(map[int]string),
		roles:     map[Role]Mask64{RoleSuperAdmin: root},
	}
}

// DefaultPolicy registers the built-in permissions: users manage their own
// account, admins additionally administer regular users, and role changes are
// left to the super admin root bit.
func DefaultPolicy() *Policy {
	p := NewPolicy()
	for _, name := range []string{
		PermAccountRead,
		PermAccountPassword,
		PermUsersCreate,
		PermUsersList,
		PermUsersSetPassword,
		PermUsersActivation,
		PermUsersRoles,
	} {
		if _, err := p.Register(name); err != nil {
			panic(err)
		}
	}
	mustGrant(p, RoleUser, PermAccountRead, PermAccountPassword)
	mustGrant(p, RoleAdmin,
		PermAccountRead,
		PermAccountPassword,
		PermUsersCreate,
		PermUsersList,
		PermUsersSetPassword,
		PermUsersActivation,
	)
	p.Freeze()
	return p
}

func mustGrant(p *Policy, role Role, names ...string) {
	if err := p.Grant(role, names...); err != nil {
		panic(err)
	}
}

// Register assigns the next free bit to name.
func (p *Policy) Register(name string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frozen {
		return -1, errors.New("policy frozen")
	}
	if name == "" {
		return -1, errors.New("permission name cannot be empty")
	}
	if _, exists := p.nameToBit[name]; exists {
		return -1, errors.New("permission already registered")
	}

	nextBit := len(p.nameToBit)
	if nextBit >= rootBit {
		return -1, errors.New("permission limit exceeded (root bit reserved)")
	}

	p.nameToBit[name] = nextBit
	p.bitToName[nextBit] = name
	return nextBit, nil
}

// Grant adds registered permissions to role.
func (p *Policy) Grant(role Role, names ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frozen {
		return errors.New("policy frozen")
	}
	if !role.Valid() {
		return ErrUnknownRole
	}

	mask := p.roles[role]
	for _, name := range names {
		bit, ok := p.nameToBit[name]
		if !ok {
			return errors.New("permission not registered: " + name)
		}
		mask.Set(bit)
	}
	p.roles[role] = mask
	return nil
}

// Freeze prevents further changes.
func (p *Policy) Freeze() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frozen = true
}

// Mask returns the permission mask of role.
func (p *Policy) Mask(role Role) Mask64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.roles[role]
}

// Permissions lists the permission names held by role, in bit order.
func (p *Policy) Permissions(role Role) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	mask := p.roles[role]
	out := make([]string, 0, len(p.nameToBit))
	for bit := 0; bit < len(p.bitToName); bit++ {
		if mask.Has(bit) {
			out = append(out, p.bitToName[bit])
		}
	}
	return out
}

// Allows reports whether role holds the named permission.
func (p *Policy) Allows(role Role, name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	bit, ok := p.nameToBit[name]
	if !ok {
		return false
	}
	return p.roles[role].Has(bit)
}

// Authorize returns [ErrForbidden] unless role holds the named permission.
func (p *Policy) Authorize(role Role, name string) error {
	if !p.Allows(role, name) {
		return ErrForbidden
	}
	return nil
}
