package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProviderLocal is the provider key for password-credential accounts.
// Third-party accounts carry the external provider's name instead.
const ProviderLocal = "local"

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FirstName      string     `bun:"first_name" json:"first_name,omitempty"`
	LastName       string     `bun:"last_name" json:"last_name,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone          string     `bun:"phone_number" json:"phone_number,omitempty"`
	ProfilePicture string     `bun:"profile_picture" json:"profile_picture,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"-"`
	Provider       string     `bun:"provider,notnull,default:'local'" json:"provider,omitempty"`
	ProviderID     string     `bun:"provider_id" json:"provider_id,omitempty"`
	Active         bool       `bun:"is_active" json:"is_active"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// IsLocal reports whether the account authenticates with local credentials.
func (u *User) IsLocal() bool {
	return u.Provider == "" || u.Provider == ProviderLocal
}

// UserView is the sanitized projection returned by auth workflows. The
// password hash never leaves the package.
type UserView struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	Email          string `json:"email"`
	Phone          string `json:"phone_number,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	Provider       string `json:"provider"`
	Active         bool   `json:"is_active"`
}

// NewUserView builds the sanitized view of a user record.
func NewUserView(u *User) *UserView {
	if u == nil {
		return nil
	}
	provider := u.Provider
	if provider == "" {
		provider = ProviderLocal
	}
	return &UserView{
		ID:             u.ID.String(),
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		Phone:          u.Phone,
		ProfilePicture: u.ProfilePicture,
		Provider:       provider,
		Active:         u.Active,
	}
}

// VerificationToken is the single-use token record backing the email
// verification and password reset flows. Records transition from unused to
// used exactly once and are never physically deleted.
type VerificationToken struct {
	bun.BaseModel `bun:"table:verification_tokens,alias:vtk"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	TokenID       uuid.UUID  `bun:"token_id,notnull,unique,type:uuid" json:"token_id,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	Token         string     `bun:"token,notnull" json:"token,omitempty"`
	Purpose       string     `bun:"purpose,notnull" json:"purpose,omitempty"`
	IsUsed        bool       `bun:"is_used,notnull,default:false" json:"is_used"`
	UsedAt        *time.Time `bun:"used_at,nullzero" json:"used_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// NormalizeEmail lower-cases and trims an email. Every workflow keys the
// identity dimension by this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
