package user

import (
	"time"

	"github.com/MrEthical07/goAccounts/permission"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is an account. PasswordHash is never serialized.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           uuid.UUID       `bun:"id,pk,type:uuid" json:"id"`
	Username     string          `bun:"username,notnull,unique" json:"username"`
	PasswordHash string          `bun:"password_hash,notnull" json:"-"`
	Role         permission.Role `bun:"role,notnull" json:"role"`
	IsActive     bool            `bun:"is_active,notnull" json:"is_active"`
	CreatedAt    time.Time       `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt    time.Time       `bun:"updated_at,notnull" json:"updated_at"`
}
