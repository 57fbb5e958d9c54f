package middleware

import (
	"context"
	"errors"

	"github.com/aidattendance/portal/internal/core/domain"
	"github.com/aidattendance/portal/internal/core/ports"
)

type stubTokens struct {
	claims map[string]ports.Claims
}

func (s stubTokens) Issue(string, domain.Identity) (string, error) { return "", nil }

func (s stubTokens) Parse(token string) (ports.Claims, error) {
	c, ok := s.claims[token]
	if !ok {
		return ports.Claims{}, errors.New("invalid token")
	}
	return c, nil
}

type stubFlow struct {
	ports.LoginFlow
	id      string
	session domain.Session
}

func (f *stubFlow) ID() string              { return f.id }
func (f *stubFlow) Session() domain.Session { return f.session }

type stubRegistry struct {
	flows    map[string]*stubFlow
	restored []string
}

func (r *stubRegistry) Create(context.Context) (ports.LoginFlow, error) { return nil, errors.New("unused") }

func (r *stubRegistry) Lookup(id string) (ports.LoginFlow, error) {
	if f, ok := r.flows[id]; ok {
		return f, nil
	}
	return nil, domain.ErrFlowNotFound
}

func (r *stubRegistry) Restore(_ context.Context, id string) ports.LoginFlow {
	r.restored = append(r.restored, id)
	if f, ok := r.flows[id]; ok {
		return f
	}
	return &stubFlow{id: id, session: domain.NewSession(nil, false)}
}

func (r *stubRegistry) Release(string) {}

func authenticated(role domain.Role) domain.Session {
	return domain.NewSession(&domain.Identity{Email: "a@b.c", Role: role}, false)
}
