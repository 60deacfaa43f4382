package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/goAccounts/permission"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	ByID(ctx context.Context, id uuid.UUID) (*User, error)
	ByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, u *User) error
	List(ctx context.Context, p ListParams) ([]*User, int, error)
	CountByRole(ctx context.Context, role permission.Role) (int, error)
	RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

// BunRepository implements [Repository] with bun. Queries are dialect neutral;
// SQLite and PostgreSQL unique violations are both mapped to [ErrUsernameTaken].
type BunRepository struct {
	db   bun.IDB
	root *bun.DB
}

var _ Repository = (*BunRepository)(nil)

// NewBunRepository wraps db.
func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db, root: db}
}

// CreateSchema creates the users table if it does not exist.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("%w: create users table: %v", ErrStorage, err)
	}
	return nil
}

// Create inserts u. A taken username yields [ErrUsernameTaken].
func (r *BunRepository) Create(ctx context.Context, u *User) error {
	if _, err := r.db.NewInsert().Model(u).Exec(ctx); err != nil {
		return mapWriteError(err)
	}
	return nil
}

// ByID loads one user or returns [ErrNotFound].
func (r *BunRepository) ByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u := new(User)
	err := r.db.NewSelect().
		Model(u).
		Where("? = ?", bun.Ident("id"), id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapReadError(err)
	}
	return u, nil
}

// ByUsername loads one user by exact username or returns [ErrNotFound].
func (r *BunRepository) ByUsername(ctx context.Context, username string) (*User, error) {
	u := new(User)
	err := r.db.NewSelect().
		Model(u).
		Where("? = ?", bun.Ident("username"), username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapReadError(err)
	}
	return u, nil
}

// Update writes every column of u. A missing row yields [ErrNotFound].
func (r *BunRepository) Update(ctx context.Context, u *User) error {
	res, err := r.db.NewUpdate().
		Model(u).
		WherePK().
		Exec(ctx)
	if err != nil {
		return mapWriteError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of users and the total number of users.
func (r *BunRepository) List(ctx context.Context, p ListParams) ([]*User, int, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, 0, err
	}

	users := make([]*User, 0, p.Limit)
	q := r.db.NewSelect().
		Model(&users).
		OrderExpr("? "+string(p.SortOrder), bun.Ident(p.SortField)).
		Limit(p.Limit).
		Offset(p.Offset)
	if p.SortField != "id" {
		q = q.OrderExpr("? ASC", bun.Ident("id"))
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return users, total, nil
}

// CountByRole counts users holding role.
func (r *BunRepository) CountByRole(ctx context.Context, role permission.Role) (int, error) {
	n, err := r.db.NewSelect().
		Model((*User)(nil)).
		Where("? = ?", bun.Ident("role"), role).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return n, nil
}

// RunInTx runs fn against a transaction-bound repository. Nested calls reuse
// the outer transaction.
func (r *BunRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	if r.root == nil {
		return fn(ctx, r)
	}
	return r.root.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &BunRepository{db: tx})
	})
}

func mapReadError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

func mapWriteError(err error) error {
	if isUniqueViolation(err) {
		return ErrUsernameTaken
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}
