package domain

import "time"

// Credentials is one user's OAuth state for one service.
//
// A non-empty AccessToken means the user completed the handshake for the
// service. The request-token fields only live between "connect" and the
// callback.
type Credentials struct {
	RequestToken       string `json:"request_token,omitempty"`
	RequestTokenSecret string `json:"request_token_secret,omitempty"`
	AccessToken        string `json:"access_token,omitempty"`
	AccessTokenSecret  string `json:"access_token_secret,omitempty"`
	Username           string `json:"username,omitempty"`
}

// Connected reports whether the access credentials are present.
func (c Credentials) Connected() bool {
	return c.AccessToken != ""
}

// IsZero reports whether no field is set.
func (c Credentials) IsZero() bool {
	return c == Credentials{}
}

// CredentialPatch is a partial update of Credentials.
// Nil fields are left untouched; a pointer to "" clears the field.
type CredentialPatch struct {
	RequestToken       *string
	RequestTokenSecret *string
	AccessToken        *string
	AccessTokenSecret  *string
	Username           *string
}

// Apply returns c with every non-nil field of p written over it.
func (p CredentialPatch) Apply(c Credentials) Credentials {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.RequestToken, p.RequestToken)
	set(&c.RequestTokenSecret, p.RequestTokenSecret)
	set(&c.AccessToken, p.AccessToken)
	set(&c.AccessTokenSecret, p.AccessTokenSecret)
	set(&c.Username, p.Username)
	return c
}

// Value returns a pointer to s, for building patches.
func Value(s string) *string { return &s }

// UserRecord is everything persisted for one chat user.
type UserRecord struct {
	UserID   string
	Services map[ServiceKind]Credentials
	// UpdatedAt is the time of the last merge, zero for a fresh record.
	UpdatedAt time.Time
}

// NewUserRecord returns an empty record for userID.
func NewUserRecord(userID string) UserRecord {
	return UserRecord{UserID: userID, Services: map[ServiceKind]Credentials{}}
}

// For returns the credentials stored for kind (zero value when absent).
func (u UserRecord) For(kind ServiceKind) Credentials {
	return u.Services[kind]
}

// Connected reports whether the user completed OAuth for kind.
func (u UserRecord) Connected(kind ServiceKind) bool {
	return u.For(kind).Connected()
}

// UserPatch is a merge-update of a UserRecord, one CredentialPatch per service.
type UserPatch map[ServiceKind]CredentialPatch

// Merge applies patch per service and per field. Services absent from the
// patch, and fields left nil, keep their current values.
func (u UserRecord) Merge(patch UserPatch) UserRecord {
	merged := UserRecord{
		UserID:    u.UserID,
		Services:  make(map[ServiceKind]Credentials, len(u.Services)+len(patch)),
		UpdatedAt: u.UpdatedAt,
	}
	for k, c := range u.Services {
		merged.Services[k] = c
	}
	for k, p := range patch {
		c := p.Apply(merged.Services[k])
		if c.IsZero() {
			delete(merged.Services, k)
			continue
		}
		merged.Services[k] = c
	}
	return merged
}
