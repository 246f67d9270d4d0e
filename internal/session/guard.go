package session

import (
	"encoding/json"
	"time"
)

type Outcome string

const (
	Allow         Outcome = "ALLOW"
	RedirectLogin Outcome = "REDIRECT_LOGIN"
	RedirectHome  Outcome = "REDIRECT_HOME"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

type Decision struct {
	Outcome  Outcome
	Identity Identity
}

func (d Decision) Redirect() string {
	switch d.Outcome {
	case RedirectLogin:
		return LoginPath
	case RedirectHome:
		return HomePath
	}
	return ""
}

// Guard decides page access. It is cheap to build and must be evaluated on every request;
// decisions are never cached.
type Guard struct {
	resolver *Resolver
	now      func() time.Time
}

func NewGuard(resolver *Resolver, now func() time.Time) *Guard {
	if now == nil {
		now = time.Now
	}
	return &Guard{resolver: resolver, now: now}
}

// Authorize checks the caller against required. An empty required role admits any signed-in
// caller.
func (g *Guard) Authorize(required Role) Decision {
	res, ok := g.resolver.Resolve(g.now()).(Authenticated)
	if !ok {
		return Decision{Outcome: RedirectLogin}
	}
	if required != "" && res.Identity.Role != required {
		return Decision{Outcome: RedirectHome, Identity: res.Identity}
	}
	return Decision{Outcome: Allow, Identity: res.Identity}
}

// SignIn stores what the external sign-in flow produced.
func SignIn(repo Repository, profile Profile, token string) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	repo.Set(ProfileKey, string(raw))
	if token != "" {
		repo.Set(TokenKey, token)
	}
	return nil
}

// SignOut clears both entries, which ends the session.
func SignOut(repo Repository) {
	repo.Clear(ProfileKey)
	repo.Clear(TokenKey)
}
