package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/aidattendance/portal/internal/api/middleware"
	"github.com/aidattendance/portal/internal/core/domain"
	"github.com/aidattendance/portal/internal/core/ports"
)

type stubFlow struct {
	id      string
	state   ports.FlowState
	submit  func(email, password string) (domain.LoginResult, error)
	confirm func(code string) (domain.LoginResult, error)
	resend  func() (int, error)
	update  func(domain.ProfileUpdate) (domain.Identity, error)

	abandoned bool
	loggedOut bool
	logoutErr error
}

func (f *stubFlow) ID() string { return f.id }

func (f *stubFlow) SubmitPassword(_ context.Context, email, password string) (domain.LoginResult, error) {
	return f.submit(email, password)
}

func (f *stubFlow) ConfirmOtp(_ context.Context, code string) (domain.LoginResult, error) {
	return f.confirm(code)
}

func (f *stubFlow) ResendOtp(context.Context) (int, error) { return f.resend() }

func (f *stubFlow) Abandon(context.Context) error {
	if f.state.Stage != domain.StageOtpPending {
		return domain.ErrInvalidTransition
	}
	f.abandoned = true
	return nil
}

func (f *stubFlow) Logout(context.Context) error {
	f.loggedOut = true
	return f.logoutErr
}

func (f *stubFlow) UpdateProfile(_ context.Context, u domain.ProfileUpdate) (domain.Identity, error) {
	return f.update(u)
}

func (f *stubFlow) Session() domain.Session { return f.state.Session }
func (f *stubFlow) State() ports.FlowState  { return f.state }

type stubRegistry struct {
	flows    map[string]*stubFlow
	next     *stubFlow
	released []string
}

func newStubRegistry(flows ...*stubFlow) *stubRegistry {
	r := &stubRegistry{flows: make(map[string]*stubFlow)}
	for _, f := range flows {
		r.flows[f.id] = f
	}
	return r
}

func (r *stubRegistry) Create(context.Context) (ports.LoginFlow, error) {
	if r.next == nil {
		return nil, errors.New("no flow prepared")
	}
	r.flows[r.next.id] = r.next
	return r.next, nil
}

func (r *stubRegistry) Lookup(id string) (ports.LoginFlow, error) {
	if f, ok := r.flows[id]; ok {
		return f, nil
	}
	return nil, domain.ErrFlowNotFound
}

func (r *stubRegistry) Restore(_ context.Context, id string) ports.LoginFlow { return r.flows[id] }

func (r *stubRegistry) Release(id string) {
	r.released = append(r.released, id)
	delete(r.flows, id)
}

type stubTokens struct {
	issueErr error
}

func (s stubTokens) Issue(flowID string, id domain.Identity) (string, error) {
	if s.issueErr != nil {
		return "", s.issueErr
	}
	return "token-" + flowID, nil
}

func (stubTokens) Parse(string) (ports.Claims, error) { return ports.Claims{}, errors.New("unused") }

type stubAccounts struct {
	forgot []string
	reset  func(token, password string) error
	change func(email, current, next, confirm string) error
}

func (s *stubAccounts) ForgotPassword(_ context.Context, email string) error {
	s.forgot = append(s.forgot, email)
	return nil
}

func (s *stubAccounts) ResetPassword(_ context.Context, token, password string) error {
	return s.reset(token, password)
}

func (s *stubAccounts) ChangePassword(_ context.Context, email, current, next, confirm string) error {
	return s.change(email, current, next, confirm)
}

func identity(role domain.Role) *domain.Identity {
	return &domain.Identity{ID: "u-1", Email: "ana@example.com", FirstName: "Ana", Role: role}
}

// authenticatedFlow returns a flow already past the code step for role.
func authenticatedFlow(id string, role domain.Role) *stubFlow {
	return &stubFlow{
		id: id,
		state: ports.FlowState{
			Stage:   domain.StageAuthenticated,
			Session: domain.NewSession(identity(role), false),
		},
	}
}

// newContext builds an echo context for a JSON request. A non-nil flow is
// attached the way middleware.Authenticate does.
func newContext(method, target, body string, flow *stubFlow) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	c.Set(middleware.SessionKey, domain.NewSession(nil, false))
	if flow != nil {
		c.Set(middleware.FlowKey, ports.LoginFlow(flow))
		c.Set(middleware.SessionKey, flow.Session())
	}
	return c, rec
}

func httpCode(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}
