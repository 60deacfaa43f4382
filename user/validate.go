package user

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/MrEthical07/goAccounts/permission"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Length limits, in runes.
const (
	UsernameMinLen = 5
	UsernameMaxLen = 20
	PasswordMinLen = 6
)

var (
	usernameChars      = regexp.MustCompile(`^[a-zA-Z0-9._-]*$`)
	usernameBounds     = regexp.MustCompile(`^[a-zA-Z0-9](?:.*[a-zA-Z0-9])?$`)
	usernameSpecialRun = regexp.MustCompile(`[._-]{2}`)
)

var usernameRules = []validation.Rule{
	validation.Required,
	validation.RuneLength(UsernameMinLen, UsernameMaxLen),
	validation.Match(usernameChars).Error("may only contain letters, digits, dots, hyphens and underscores"),
	validation.Match(usernameBounds).Error("must start and end with a letter or digit"),
	validation.By(noConsecutiveSpecials),
}

func noConsecutiveSpecials(value interface{}) error {
	s, _ := value.(string)
	if usernameSpecialRun.MatchString(s) {
		return fmt.Errorf("cannot contain consecutive special characters")
	}
	return nil
}

// InvalidInputError carries the field-level messages of a validation failure.
// It matches [ErrInvalidInput] with errors.Is.
type InvalidInputError struct {
	Fields validation.Errors
}

func (e *InvalidInputError) Error() string {
	return ErrInvalidInput.Error() + ": " + e.Fields.Error()
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field string, err error) error {
	if err == nil {
		return nil
	}
	if errs, ok := err.(validation.Errors); ok {
		return &InvalidInputError{Fields: errs}
	}
	return &InvalidInputError{Fields: validation.Errors{field: err}}
}

// ValidateUsername checks length (5..20), the allowed alphabet, alphanumeric
// first and last characters and the absence of consecutive '.', '-' or '_'.
func ValidateUsername(username string) error {
	return invalid("username", validation.Validate(username, usernameRules...))
}

// ValidatePassword checks the minimum length of a raw password.
func ValidatePassword(raw string) error {
	return invalid("password", validation.Validate(raw,
		validation.Required,
		validation.RuneLength(PasswordMinLen, 0),
	))
}

// ValidateID parses a user id in canonical UUID form.
func ValidateID(raw string) error {
	return invalid("id", validation.Validate(raw, validation.Required, is.UUID))
}

// ValidateRole parses a role name supplied by a client.
func ValidateRole(raw string) (permission.Role, error) {
	role, err := permission.ParseRole(raw)
	if err != nil {
		return "", invalid("role", err)
	}
	return role, nil
}

// SortOrder is the direction of a listing.
type SortOrder string

// Sort directions.
const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// Sortable columns accepted by [ListParams].
var SortFields = []interface{}{"id", "username", "role", "is_active", "created_at"}

// Page size used when ListParams.Limit is zero, and the largest accepted.
const (
	DefaultListLimit = 20
	MaxListLimit     = 1000
)

// ListParams selects a page of users.
type ListParams struct {
	Limit     int
	Offset    int
	SortField string
	SortOrder SortOrder
}

// Normalize fills defaults for zero values.
func (p ListParams) Normalize() ListParams {
	if p.Limit == 0 {
		p.Limit = DefaultListLimit
	}
	if p.SortField == "" {
		p.SortField = "username"
	}
	p.SortOrder = SortOrder(strings.ToUpper(string(p.SortOrder)))
	if p.SortOrder == "" {
		p.SortOrder = SortAsc
	}
	return p
}

// Validate checks bounds and the sort column whitelist.
func (p ListParams) Validate() error {
	return invalid("list", validation.ValidateStruct(&p,
		validation.Field(&p.Limit, validation.Min(1), validation.Max(MaxListLimit)),
		validation.Field(&p.Offset, validation.Min(0)),
		validation.Field(&p.SortField, validation.Required, validation.In(SortFields...)),
		validation.Field(&p.SortOrder, validation.Required, validation.In(SortAsc, SortDesc)),
	))
}
