package session

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Evidence is what one source knows about the caller. Identity.Role may be set even when
// Authenticated is false: a cached profile without a name still carries a role.
type Evidence struct {
	Authenticated bool
	Identity      Identity
}

type IdentitySource interface {
	Name() string
	Resolve(now time.Time) Evidence
}

// ProfileSource reads the cached profile. A profile that does not parse is deleted.
type ProfileSource struct {
	repo Repository
}

func NewProfileSource(repo Repository) ProfileSource {
	return ProfileSource{repo: repo}
}

func (ProfileSource) Name() string { return "profile" }

func (s ProfileSource) Resolve(_ time.Time) Evidence {
	raw, ok := s.repo.Get(ProfileKey)
	if !ok || strings.TrimSpace(raw) == "" {
		return Evidence{}
	}
	var p *Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.repo.Clear(ProfileKey)
		return Evidence{}
	}
	if p == nil {
		return Evidence{}
	}
	id := p.identity()
	return Evidence{
		Authenticated: id.DisplayName != "" || id.Email != "",
		Identity:      id,
	}
}

// roleClaims are checked in order; the first non-empty wins.
var roleClaims = []string{"role", "authorities", "roles"}

var subjectClaims = []string{"sub", "id", "userId"}

// TokenSource decodes the session token without verifying its signature.
type TokenSource struct {
	repo   Repository
	parser *jwt.Parser
}

func NewTokenSource(repo Repository) TokenSource {
	return TokenSource{repo: repo, parser: jwt.NewParser()}
}

func (TokenSource) Name() string { return "token" }

func (s TokenSource) Resolve(now time.Time) Evidence {
	raw, ok := s.repo.Get(TokenKey)
	if !ok || strings.TrimSpace(raw) == "" {
		return Evidence{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := s.parser.ParseUnverified(strings.TrimSpace(raw), claims); err != nil {
		return Evidence{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return Evidence{}
	}
	if exp != nil && !exp.Time.After(now) {
		return Evidence{}
	}
	return Evidence{
		Authenticated: true,
		Identity: Identity{
			ID:          firstClaim(claims, subjectClaims),
			DisplayName: claimString(claims["name"]),
			Email:       claimString(claims["email"]),
			Role:        ParseRole(firstClaim(claims, roleClaims)),
		},
	}
}

func firstClaim(claims jwt.MapClaims, names []string) string {
	for _, name := range names {
		if v := claimString(claims[name]); v != "" {
			return v
		}
	}
	return ""
}

// claimString flattens string, numeric and list claims. Lists yield their first usable entry,
// including Spring-style {"authority": "..."} objects.
func claimString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		b, _ := json.Marshal(t)
		return string(b)
	case json.Number:
		return t.String()
	case []any:
		for _, item := range t {
			if s := claimString(item); s != "" {
				return s
			}
		}
	case map[string]any:
		return claimString(t["authority"])
	}
	return ""
}

// Result is the outcome of identity resolution: Authenticated or Unauthenticated.
type Result interface {
	isResult()
}

type Authenticated struct {
	Identity Identity
}

type Unauthenticated struct{}

func (Authenticated) isResult()   {}
func (Unauthenticated) isResult() {}

// Resolver consults its sources in order. The first authenticated source supplies the
// identity fields it has; the first source with a role supplies the role.
type Resolver struct {
	sources []IdentitySource
}

func NewResolver(sources ...IdentitySource) *Resolver {
	return &Resolver{sources: sources}
}

// DefaultResolver orders the cached profile ahead of the session token.
func DefaultResolver(repo Repository) *Resolver {
	return NewResolver(NewProfileSource(repo), NewTokenSource(repo))
}

func (r *Resolver) Resolve(now time.Time) Result {
	var (
		found bool
		out   Identity
	)
	for _, src := range r.sources {
		ev := src.Resolve(now)
		if out.Role == "" {
			out.Role = ev.Identity.Role
		}
		if !ev.Authenticated {
			continue
		}
		found = true
		if out.ID == "" {
			out.ID = ev.Identity.ID
		}
		if out.DisplayName == "" {
			out.DisplayName = ev.Identity.DisplayName
		}
		if out.Email == "" {
			out.Email = ev.Identity.Email
		}
	}
	if !found {
		return Unauthenticated{}
	}
	return Authenticated{Identity: out}
}
