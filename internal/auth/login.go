package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"taskctl/internal/logging"
	"taskctl/internal/service"
)

// TokenPath is the backend path of the password login endpoint.
const TokenPath = "/token"

// TokenStore receives the token of a successful login.
type TokenStore interface {
	Set(tok *oauth2.Token) error
	Clear() error
}

// Authenticator exchanges credentials for a session token.
type Authenticator struct {
	// BaseURL is the API base URL.
	BaseURL string

	// HTTPClient is used for the token request. Nil uses http.DefaultClient.
	HTTPClient *http.Client

	Store TokenStore
	Log   logging.Logger
}

// NewAuthenticator creates an authenticator storing tokens in store.
func NewAuthenticator(baseURL string, store TokenStore, log logging.Logger) *Authenticator {
	if log == nil {
		log = logging.Discard()
	}
	return &Authenticator{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Store:   store,
		Log:     log,
	}
}

// Login posts the form-encoded credentials to the token endpoint and
// stores the returned access token. On any failure nothing is stored.
func (a *Authenticator) Login(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return fmt.Errorf("%w: username and password required", service.ErrValidation)
	}

	conf := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  a.BaseURL + TokenPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	if a.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, a.HTTPClient)
	}

	a.Log.Debug("requesting token", "url", conf.Endpoint.TokenURL, "username", username)
	tok, err := conf.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		a.Log.Debug("login failed", "err", err)
		return classifyLoginError(ctx, err)
	}

	if err := a.Store.Set(tok); err != nil {
		return err
	}
	a.Log.Info("logged in", "username", username)
	return nil
}

// Logout clears the session.
func (a *Authenticator) Logout() error {
	return a.Store.Clear()
}

func classifyLoginError(ctx context.Context, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		switch re.Response.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: invalid credentials", service.ErrUnauthorized)
		case http.StatusUnprocessableEntity:
			return fmt.Errorf("%w: login form rejected", service.ErrValidation)
		default:
			return fmt.Errorf("login failed: server returned %d", re.Response.StatusCode)
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %v", service.ErrNetwork, err)
}
