// Package session resolves who is calling the portal and whether they may see a page.
//
// Two stored entries can identify a caller: the cached profile written at sign-in and the
// session token issued by the loan backend. Neither is verified here; the backend checks
// the token on every API call. The guard only decides between rendering a page and
// redirecting, so it never makes network calls.
package session

import (
	"encoding/json"
	"strings"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole normalizes role claims such as "admin" or "ROLE_ADMIN".
func ParseRole(raw string) Role {
	r := strings.ToUpper(strings.TrimSpace(raw))
	r = strings.TrimPrefix(r, "ROLE_")
	return Role(r)
}

type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Role        Role   `json:"role,omitempty"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Label is the name to greet the caller with.
func (i Identity) Label() string {
	if strings.TrimSpace(i.DisplayName) != "" {
		return i.DisplayName
	}
	return i.Email
}

// Profile is the cached profile object as the sign-in flow stores it.
type Profile struct {
	ID    json.RawMessage `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Email string          `json:"email,omitempty"`
	Role  string          `json:"role,omitempty"`
}

func (p Profile) identity() Identity {
	return Identity{
		ID:          rawString(p.ID),
		DisplayName: strings.TrimSpace(p.Name),
		Email:       strings.TrimSpace(p.Email),
		Role:        ParseRole(p.Role),
	}
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}

func ProfileFromIdentity(id Identity) Profile {
	var rawID json.RawMessage
	if id.ID != "" {
		rawID, _ = json.Marshal(id.ID)
	}
	return Profile{ID: rawID, Name: id.DisplayName, Email: id.Email, Role: string(id.Role)}
}
