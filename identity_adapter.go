package auth

// UserIdentity adapts a User into the Identity interface for token issuance.
type UserIdentity struct {
	user *User
}

// NewIdentityFromUser returns an Identity adapter for the provided user.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return UserIdentity{user: user}
}

// ID returns the user's ID as a string.
func (u UserIdentity) ID() string {
	if u.user == nil {
		return ""
	}
	return u.user.ID.String()
}

// Email returns the user's email address.
func (u UserIdentity) Email() string {
	if u.user == nil {
		return ""
	}
	return u.user.Email
}

// Provider returns the identity provider that owns the account.
func (u UserIdentity) Provider() string {
	if u.user == nil {
		return ""
	}
	if u.user.Provider == "" {
		return ProviderLocal
	}
	return u.user.Provider
}

var _ Identity = UserIdentity{}

// SocialProfile is the verified profile handed back by an external identity
// provider after its own handshake. The handshake itself is out of scope;
// by the time a profile reaches this package it is trusted.
type SocialProfile struct {
	Provider   string
	ExternalID string
	Emails     []string
	Photos     []string
	GivenName  string
	FamilyName string
}

// PrimaryEmail returns the profile's first email, normalized.
func (p *SocialProfile) PrimaryEmail() string {
	if p == nil || len(p.Emails) == 0 {
		return ""
	}
	return NormalizeEmail(p.Emails[0])
}

func (p *SocialProfile) primaryPhoto() string {
	if p == nil || len(p.Photos) == 0 {
		return ""
	}
	return p.Photos[0]
}

// toUser maps the profile onto a new active user record. The password hash
// is a random throwaway: third-party accounts never log in with it.
func (p *SocialProfile) toUser() *User {
	return &User{
		FirstName:      p.GivenName,
		LastName:       p.FamilyName,
		Email:          p.PrimaryEmail(),
		ProfilePicture: p.primaryPhoto(),
		PasswordHash:   RandomPasswordHash(),
		Provider:       p.Provider,
		ProviderID:     p.ExternalID,
		Active:         true,
	}
}
