package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

type tokenState string

const (
	stateNoToken      tokenState = "no_token"
	stateExpiredToken tokenState = "expired_token"
	stateValidToken   tokenState = "valid_token"
)

// Manager hands out HTTP clients authorized for video uploads, reusing the
// cached token when possible.
type Manager struct {
	secrets    SecretSource
	cache      *TokenCache
	authorizer Authorizer
	scopes     []string
}

func NewManager(secrets SecretSource, cache *TokenCache, authorizer Authorizer) *Manager {
	return &Manager{
		secrets:    secrets,
		cache:      cache,
		authorizer: authorizer,
		scopes:     []string{youtube.YoutubeUploadScope},
	}
}

func (m *Manager) Client(ctx context.Context) (*http.Client, error) {
	conf, err := m.oauthConfig(ctx)
	if err != nil {
		return nil, err
	}

	token, err := m.token(ctx, conf)
	if err != nil {
		return nil, err
	}

	source := &savingTokenSource{
		base:  conf.TokenSource(ctx, token),
		cache: m.cache,
		last:  token.AccessToken,
	}
	return oauth2.NewClient(ctx, source), nil
}

// savingTokenSource persists each new access token the base source returns,
// including refreshes made while a request is in flight.
type savingTokenSource struct {
	base  oauth2.TokenSource
	cache *TokenCache

	mu   sync.Mutex
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken == s.last {
		return token, nil
	}
	s.last = token.AccessToken

	if err := s.cache.Save(token); err != nil {
		slog.Warn("Failed to save refreshed token", "path", s.cache.Path(), "error", err)
		return token, nil
	}
	slog.Debug("Refreshed token saved", "path", s.cache.Path())
	return token, nil
}

func (m *Manager) oauthConfig(ctx context.Context) (*oauth2.Config, error) {
	data, err := m.secrets.ClientSecret(ctx)
	if err != nil {
		return nil, err
	}

	conf, err := google.ConfigFromJSON(data, m.scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secret: %w", err)
	}
	return conf, nil
}

func (m *Manager) token(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	cached := m.loadCached()

	state := classify(cached)
	slog.Debug("Token state", "state", state, "path", m.cache.Path())

	var (
		token *oauth2.Token
		err   error
	)
	switch state {
	case stateValidToken:
		return cached, nil
	case stateExpiredToken:
		token, err = conf.TokenSource(ctx, cached).Token()
		if err != nil {
			return nil, fmt.Errorf("failed to refresh token: %w", err)
		}
	default:
		token, err = m.authorizer.Authorize(ctx, conf)
		if err != nil {
			return nil, fmt.Errorf("authorization failed: %w", err)
		}
	}

	if err := m.cache.Save(token); err != nil {
		return nil, err
	}
	slog.Debug("Token saved", "path", m.cache.Path())
	return token, nil
}

func (m *Manager) loadCached() *oauth2.Token {
	token, err := m.cache.Load()
	if err != nil {
		slog.Warn("Ignoring unusable token cache", "path", m.cache.Path(), "error", err)
		return nil
	}
	return token
}

func classify(token *oauth2.Token) tokenState {
	switch {
	case token == nil:
		return stateNoToken
	case token.Valid():
		return stateValidToken
	case token.RefreshToken != "":
		return stateExpiredToken
	default:
		return stateNoToken
	}
}
