// File: internal/infra/googleauth/token_source.go
package googleauth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"unique-ue/internal/domain"
	"unique-ue/internal/infra/metrics"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTokenURL is Google's OAuth2 token endpoint.
	DefaultTokenURL = "https://oauth2.googleapis.com/token"
	// DefaultScope grants Firestore (Datastore API) access.
	DefaultScope = "https://www.googleapis.com/auth/datastore"

	grantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	// refreshSkew forces a mint while the cached token still has this much
	// life left, so a token can never expire mid-request.
	refreshSkew = 300 * time.Second

	assertionLifetime = time.Hour
)

// Credentials is the subset of a service-account JSON key the exchange needs.
type Credentials struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// ParseCredentials decodes a service-account JSON key and validates that
// the fields required for signing are present. No network I/O happens here.
func ParseCredentials(raw []byte) (*Credentials, error) {
	if len(raw) == 0 {
		return nil, &domain.ConfigError{Reason: "service account credentials not set"}
	}
	var c Credentials
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, &domain.ConfigError{Reason: "service account credentials are not valid JSON"}
	}
	var missing []string
	if c.ClientEmail == "" {
		missing = append(missing, "client_email")
	}
	if c.PrivateKey == "" {
		missing = append(missing, "private_key")
	}
	if len(missing) > 0 {
		return nil, &domain.ConfigError{Reason: "incomplete service account credentials", Missing: missing}
	}
	return &c, nil
}

// Token is a short-lived bearer token with its absolute expiry.
type Token struct {
	AccessToken string
	Expiry      time.Time
}

// TokenSource mints and caches bearer tokens for the document store.
// The cache is process-wide and guarded by a mutex; concurrent refreshes
// collapse into a single outbound exchange via singleflight.
type TokenSource struct {
	creds    *Credentials
	key      *rsa.PrivateKey
	tokenURL string
	scope    string
	client   *http.Client
	now      func() time.Time

	mu    sync.Mutex
	token Token

	sf singleflight.Group
}

// Option tweaks a TokenSource; used by tests to inject a fake clock,
// transport or endpoint.
type Option func(*TokenSource)

func WithHTTPClient(c *http.Client) Option  { return func(ts *TokenSource) { ts.client = c } }
func WithClock(now func() time.Time) Option { return func(ts *TokenSource) { ts.now = now } }
func WithTokenURL(u string) Option          { return func(ts *TokenSource) { ts.tokenURL = u } }
func WithScope(scope string) Option         { return func(ts *TokenSource) { ts.scope = scope } }

// NewTokenSource validates the credential and parses its RSA key up front,
// so a malformed configuration fails at startup rather than on first use.
func NewTokenSource(creds *Credentials, opts ...Option) (*TokenSource, error) {
	if creds == nil {
		return nil, &domain.ConfigError{Reason: "service account credentials not set"}
	}
	if !strings.Contains(creds.PrivateKey, "-----BEGIN") || !strings.Contains(creds.PrivateKey, "-----END") {
		return nil, &domain.CredentialFormatError{Reason: "private key is missing PEM markers"}
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(creds.PrivateKey))
	if err != nil {
		return nil, &domain.CredentialFormatError{Reason: fmt.Sprintf("private key: %v", err)}
	}
	ts := &TokenSource{
		creds:    creds,
		key:      key,
		tokenURL: DefaultTokenURL,
		scope:    DefaultScope,
		client:   &http.Client{Timeout: 15 * time.Second},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts, nil
}

// Token returns a bearer token with more than refreshSkew of life left,
// minting a fresh one when needed. Concurrent callers during a refresh all
// wait on the same exchange.
func (ts *TokenSource) Token(ctx context.Context) (Token, error) {
	ts.mu.Lock()
	if ts.token.AccessToken != "" && ts.token.Expiry.Sub(ts.now()) > refreshSkew {
		tok := ts.token
		ts.mu.Unlock()
		return tok, nil
	}
	ts.mu.Unlock()

	v, err, _ := ts.sf.Do("mint", func() (any, error) {
		// Re-check under the flight: a racer may have refreshed already.
		ts.mu.Lock()
		if ts.token.AccessToken != "" && ts.token.Expiry.Sub(ts.now()) > refreshSkew {
			tok := ts.token
			ts.mu.Unlock()
			return tok, nil
		}
		ts.mu.Unlock()

		tok, err := ts.mint(ctx)
		if err != nil {
			metrics.IncTokenMint("error")
			return Token{}, err
		}
		metrics.IncTokenMint("ok")
		ts.mu.Lock()
		ts.token = tok
		ts.mu.Unlock()
		return tok, nil
	})
	if err != nil {
		return Token{}, err
	}
	return v.(Token), nil
}

// mint signs a JWT assertion and exchanges it for an access token.
// Exactly one network call per refresh cycle.
func (ts *TokenSource) mint(ctx context.Context) (Token, error) {
	now := ts.now()
	claims := assertionClaims{
		Scope: ts.scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.creds.ClientEmail,
			Audience:  jwt.ClaimStrings{ts.tokenURL},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(assertionLifetime)),
		},
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(ts.key)
	if err != nil {
		return Token{}, fmt.Errorf("sign assertion: %w", err)
	}

	form := url.Values{}
	form.Set("grant_type", grantType)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.client.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("token endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Token{}, &domain.TokenExchangeError{
			StatusCode:  resp.StatusCode,
			Description: exchangeErrorDescription(body),
		}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.AccessToken == "" {
		return Token{}, &domain.TokenExchangeError{StatusCode: resp.StatusCode, Description: "no access_token in response"}
	}
	if payload.ExpiresIn <= 0 {
		payload.ExpiresIn = 3600
	}
	return Token{
		AccessToken: payload.AccessToken,
		Expiry:      now.Add(time.Duration(payload.ExpiresIn) * time.Second),
	}, nil
}

type assertionClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

func exchangeErrorDescription(body []byte) string {
	var e struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		if e.Description != "" {
			return e.Error + ": " + e.Description
		}
		return e.Error
	}
	s := string(body)
	if len(s) > 500 {
		s = s[:500]
	}
	return s
}
