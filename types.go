package goAccounts

import (
	"github.com/MrEthical07/goAccounts/permission"
	"github.com/MrEthical07/goAccounts/user"
)

type (
	User       = user.User
	Role       = permission.Role
	ListParams = user.ListParams
	SortOrder  = user.SortOrder
)

const (
	RoleUser       = permission.RoleUser
	RoleAdmin      = permission.RoleAdmin
	RoleSuperAdmin = permission.RoleSuperAdmin

	SortAsc  = user.SortAsc
	SortDesc = user.SortDesc
)

// UserPage is one page of [Request.ListUsers].
type UserPage struct {
	Users  []*User `json:"users"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
