package domain

import "strings"

// Identity represents the authenticated actor. Exactly one identity is live
// per process; only the session manager may replace it.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	// Token is the opaque credential handed out by the persistence service.
	// The core never inspects it; transport adapters may.
	Token string `json:"token,omitempty"`
}

// DisplayName returns the profile name, falling back to the email local part.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	if i.Name != "" {
		return i.Name
	}
	if at := strings.IndexByte(i.Email, '@'); at > 0 {
		return i.Email[:at]
	}
	return i.Email
}

// Valid reports whether the identity carries the fields a restored session
// must have to be usable.
func (i *Identity) Valid() bool {
	return i != nil && i.ID != "" && i.Email != ""
}
