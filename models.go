package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account record backing every identity operation
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Name          string     `bun:"name" json:"name,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	IsActive      bool       `bun:"is_active" json:"is_active,omitempty"`
	IsStaff       bool       `bun:"is_staff" json:"is_staff,omitempty"`
	IsSuperuser   bool       `bun:"is_superuser" json:"is_superuser,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Profile is the self-service view of a user. It carries only the
// non-secret fields; the password hash and internal flags are excluded
// by contract, not by serializer accident.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Profile returns the non-secret view of the user.
func (u *User) Profile() Profile {
	return Profile{
		Name:  u.Name,
		Email: u.Email,
	}
}

// Token is an opaque session credential owned by exactly one user.
// Keys never change after issuance; a user may hold several live
// tokens at once.
type Token struct {
	bun.BaseModel `bun:"table:auth_tokens,alias:tok"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Key           string     `bun:"key,notnull,unique" json:"-"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// NormalizeEmail lowercases and trims an email so lookups are
// case-insensitive. Applied at every write and lookup site.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
