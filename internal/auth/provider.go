package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
)

// Provider is the hosted auth backend. Passwords never touch this service's storage.
type Provider interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (*User, *Tokens, error)
	SignIn(ctx context.Context, email, password string) (*User, *Tokens, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPassword(ctx context.Context, email, redirectTo string) error
	User(ctx context.Context, accessToken string) (*User, error)
}

// SupabaseConfig points the provider at a Supabase project.
type SupabaseConfig struct {
	URL     string
	AnonKey string
	Timeout time.Duration
}

type supabaseProvider struct {
	client    gotrue.Client
	transport http.RoundTripper
	timeout   time.Duration
}

// NewSupabaseProvider talks to the GoTrue API of a Supabase project. httpClient may be nil.
func NewSupabaseProvider(cfg SupabaseConfig, httpClient *http.Client) Provider {
	transport := http.DefaultTransport
	if httpClient != nil && httpClient.Transport != nil {
		transport = httpClient.Transport
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(cfg.URL, "/") + "/auth/v1"
	return &supabaseProvider{
		client:    gotrue.New("", cfg.AnonKey).WithCustomGoTrueURL(baseURL),
		transport: transport,
		timeout:   cfg.Timeout,
	}
}

// scopedTransport binds the gotrue client, which has no context parameters,
// to one call's context and extra query values.
type scopedTransport struct {
	ctx   context.Context
	base  http.RoundTripper
	query url.Values
}

func (t scopedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(t.ctx)
	if len(t.query) > 0 {
		q := req.URL.Query()
		for k, values := range t.query {
			for _, v := range values {
				q.Add(k, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}
	return t.base.RoundTrip(req)
}

func (p *supabaseProvider) api(ctx context.Context, accessToken string, query url.Values) gotrue.Client {
	c := p.client.WithClient(http.Client{Transport: scopedTransport{ctx: ctx, base: p.transport, query: query}})
	if accessToken != "" {
		c = c.WithToken(accessToken)
	}
	return c
}

func toUser(u types.User) *User {
	return &User{ID: u.ID, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

func toTokens(s types.Session) *Tokens {
	if s.AccessToken == "" {
		return nil
	}
	return &Tokens{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		ExpiresIn:    int64(s.ExpiresIn),
	}
}

func (p *supabaseProvider) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*User, *Tokens, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req := types.SignupRequest{Email: email, Password: password}
	if len(metadata) > 0 {
		req.Data = make(map[string]interface{}, len(metadata))
		for k, v := range metadata {
			req.Data[k] = v
		}
	}

	// Sign-up without a session (email confirmation pending) returns the bare user.
	resp, err := p.api(ctx, "", nil).Signup(req)
	if err != nil {
		return nil, nil, mapError("signup", err)
	}
	return toUser(resp.User), toTokens(resp.Session), nil
}

func (p *supabaseProvider) SignIn(ctx context.Context, email, password string) (*User, *Tokens, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.api(ctx, "", nil).SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, nil, mapError("signin", err)
	}
	return toUser(resp.User), toTokens(resp.Session), nil
}

func (p *supabaseProvider) SignOut(ctx context.Context, accessToken string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.api(ctx, accessToken, nil).Logout(); err != nil {
		return mapError("signout", err)
	}
	return nil
}

func (p *supabaseProvider) ResetPassword(ctx context.Context, email, redirectTo string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var query url.Values
	if redirectTo != "" {
		query = url.Values{"redirect_to": {redirectTo}}
	}
	if err := p.api(ctx, "", query).Recover(types.RecoverRequest{Email: email}); err != nil {
		return mapError("reset_password", err)
	}
	return nil
}

func (p *supabaseProvider) User(ctx context.Context, accessToken string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.api(ctx, accessToken, nil).GetUser()
	if err != nil {
		return nil, mapError("user", err)
	}
	return toUser(resp.User), nil
}

// mapError turns a gotrue failure into a domain error. gotrue reports HTTP
// failures as "response status code <n>: <body>"; anything else never got an answer.
func mapError(op string, err error) error {
	var status int
	if _, scanErr := fmt.Sscanf(err.Error(), "response status code %d", &status); scanErr != nil {
		return &ProviderError{Op: op, Err: err}
	}
	_, body, _ := strings.Cut(err.Error(), ": ")
	msg := errorText([]byte(body))

	switch {
	case op == "signin" && (status == http.StatusBadRequest || status == http.StatusUnauthorized):
		return ErrInvalidCredentials
	case op == "signup" && strings.Contains(strings.ToLower(msg), "already"):
		return ErrUserAlreadyExists
	case (op == "user" || op == "signout") && (status == http.StatusUnauthorized || status == http.StatusForbidden):
		return ErrInvalidToken
	}
	return &ProviderError{Op: op, StatusCode: status, Message: msg}
}
