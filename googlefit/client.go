package googlefit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// ErrAuthorizationDenied is returned when the user declines the consent screen
var ErrAuthorizationDenied = errors.New("authorization denied")

// Config holds the OAuth client settings
type Config struct {
	ClientID     string
	ClientSecret string
	// RedirectHost is the loopback host the authorization callback listens on
	RedirectHost string
	// Endpoint defaults to Google's OAuth endpoints
	Endpoint oauth2.Endpoint
	// FlowTimeout bounds how long a sign-in or permission flow waits for the
	// user to finish in the browser
	FlowTimeout time.Duration
	// HTTPClient is used for token exchange and refresh when set
	HTTPClient *http.Client
	// UserInfoOptions configure the userinfo lookup made after sign-in
	UserInfoOptions []option.ClientOption
}

func (c Config) withDefaults() Config {
	if c.RedirectHost == "" {
		c.RedirectHost = "127.0.0.1"
	}
	if c.Endpoint.AuthURL == "" {
		c.Endpoint = google.Endpoint
	}
	if c.FlowTimeout <= 0 {
		c.FlowTimeout = 5 * time.Minute
	}
	return c
}

// Client signs users in to Google Fit and tracks what they have granted
type Client struct {
	cfg    Config
	store  *AccountStore
	opener URLOpener
	logger Logger
	ctx    context.Context

	mu       sync.Mutex
	onResult ResultHandler
}

// New creates a Google Fit account client
func New(ctx context.Context, cfg Config, store *AccountStore, opener URLOpener, logger Logger) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("google client id must be provided via config file or environment variables")
	}
	return &Client{
		cfg:    cfg.withDefaults(),
		store:  store,
		opener: opener,
		logger: logger,
		ctx:    ctx,
	}, nil
}

// OnActivityResult registers the handler that receives flow outcomes
func (c *Client) OnActivityResult(fn ResultHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onResult = fn
}

// LastSignedInAccount returns the stored account, or nil if nobody signed in
func (c *Client) LastSignedInAccount() *Account {
	return c.store.Current()
}

// HasPermissions reports whether acct has granted every scope opts needs
func (c *Client) HasPermissions(acct *Account, opts FitnessOptions) bool {
	return acct.HasScopes(opts.Scopes())
}

// StartSignIn launches the sign-in flow. The outcome is delivered to the
// activity result handler under requestCode.
func (c *Client) StartSignIn(requestCode int) {
	go c.runFlow(requestCode, SignInScopes, nil)
}

// RequestPermissions launches the consent flow for the scopes opts needs
func (c *Client) RequestPermissions(requestCode int, acct *Account, opts FitnessOptions) {
	go c.runFlow(requestCode, opts.Scopes(), acct)
}

// TokenSource returns credentials for acct that persist refreshed tokens
func (c *Client) TokenSource(ctx context.Context, acct *Account) oauth2.TokenSource {
	if c.cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.cfg.HTTPClient)
	}
	conf := c.oauthConfig(acct.GrantedScopes, "")
	pts := &persistingTokenSource{
		src:    conf.TokenSource(ctx, acct.Token),
		store:  c.store,
		logger: c.logger,
	}
	if acct.Token != nil {
		pts.last = acct.Token.AccessToken
	}
	return pts
}

func (c *Client) runFlow(requestCode int, scopes []string, previous *Account) {
	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.FlowTimeout)
	defer cancel()

	loginHint := ""
	if previous != nil {
		loginHint = previous.Email
	}

	c.logger.Info("starting authorization flow", "request_code", requestCode, "scopes", scopes)
	tok, err := c.authorize(ctx, scopes, loginHint)
	if err != nil {
		c.logger.Warn("authorization flow did not complete", "request_code", requestCode, "error", err)
		c.dispatch(requestCode, ResultCanceled)
		return
	}

	acct, err := c.accountFromToken(ctx, tok, previous)
	if err != nil {
		c.logger.Warn("failed to resolve signed-in account", "error", err)
		c.dispatch(requestCode, ResultCanceled)
		return
	}
	if err := c.store.Save(acct); err != nil {
		c.logger.Warn("failed to persist account", "error", err)
	}

	c.logger.Info("authorization flow completed", "request_code", requestCode, "email", acct.Email)
	c.dispatch(requestCode, ResultOK)
}

func (c *Client) dispatch(requestCode, resultCode int) {
	c.mu.Lock()
	fn := c.onResult
	c.mu.Unlock()

	if fn == nil {
		c.logger.Warn("no activity result handler registered", "request_code", requestCode)
		return
	}
	fn(requestCode, resultCode)
}

// accountFromToken builds the account record after a successful flow, carrying
// over what the previous grant already established
func (c *Client) accountFromToken(ctx context.Context, tok *oauth2.Token, previous *Account) (*Account, error) {
	granted, _ := tok.Extra("scope").(string)

	acct := &Account{Token: tok}
	if previous != nil {
		acct.Email = previous.Email
		acct.GrantedScopes = mergeScopes(previous.GrantedScopes, granted)
		if tok.RefreshToken == "" && previous.Token != nil {
			tok.RefreshToken = previous.Token.RefreshToken
		}
	} else {
		acct.GrantedScopes = mergeScopes(nil, granted)
	}

	if acct.Email == "" {
		email, err := c.lookupEmail(ctx, tok)
		if err != nil {
			return nil, err
		}
		acct.Email = email
	}
	return acct, nil
}

func (c *Client) lookupEmail(ctx context.Context, tok *oauth2.Token) (string, error) {
	opts := append([]option.ClientOption{option.WithTokenSource(oauth2.StaticTokenSource(tok))}, c.cfg.UserInfoOptions...)
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	return info.Email, nil
}

func (c *Client) oauthConfig(scopes []string, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		Endpoint:     c.cfg.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       scopes,
	}
}

type callbackResult struct {
	code string
	err  error
}

// authorize runs an authorization code flow with PKCE against a loopback
// redirect and exchanges the code for a token
func (c *Client) authorize(ctx context.Context, scopes []string, loginHint string) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(c.cfg.RedirectHost, "0"))
	if err != nil {
		return nil, fmt.Errorf("failed to listen for callback: %w", err)
	}

	conf := c.oauthConfig(scopes, fmt.Sprintf("http://%s/callback", ln.Addr().String()))
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go srv.Serve(ln)
	defer srv.Shutdown(context.Background())

	authOpts := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	}
	if loginHint != "" {
		authOpts = append(authOpts, oauth2.SetAuthURLParam("login_hint", loginHint))
	}
	if err := c.opener.OpenURL(conf.AuthCodeURL(state, authOpts...)); err != nil {
		return nil, fmt.Errorf("failed to open authorization url: %w", err)
	}

	var res callbackResult
	select {
	case res = <-results:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.err != nil {
		return nil, res.err
	}

	if c.cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.cfg.HTTPClient)
	}
	tok, err := conf.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return tok, nil
}

func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	send := func(r callbackResult) {
		select {
		case results <- r:
		default:
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/callback" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		if e := q.Get("error"); e != "" {
			send(callbackResult{err: fmt.Errorf("%w: %s", ErrAuthorizationDenied, e)})
			_, _ = w.Write([]byte("Authorization was not granted. You can close this window."))
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		send(callbackResult{code: code})
		_, _ = w.Write([]byte("Signed in to Google Fit. You can close this window."))
	})
}

// persistingTokenSource writes refreshed tokens back to the account store
type persistingTokenSource struct {
	src    oauth2.TokenSource
	store  *AccountStore
	logger Logger

	mu   sync.Mutex
	last string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := p.store.UpdateToken(tok); err != nil {
			p.logger.Warn("failed to persist refreshed token", "error", err)
		}
	}
	return tok, nil
}
