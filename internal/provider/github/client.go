// Package github is the concrete, out-of-core Provider client: a
// go-github/v55 REST client plus a hand-rolled GraphQL caller for the
// handful of mutations/queries go-github does not cover (branch protection
// rules, org-team listing with slugs), sitting behind a GitHub App
// JWT/installation-token transport with personal-access-token fallback.
// Grounded on the teacher's internal/github/client.go and
// internal/github/githubapp.go.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gogithub "github.com/google/go-github/v55/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Config configures a Client. Exactly one of (AppID, PrivateKeyFile) or
// PATToken must be set: a non-empty PATToken selects the personal-access
// token path, matching the teacher's "if patToken != '' we use the PAT"
// convention (and model.Read.UsesPAT's contract).
type Config struct {
	Server          string // e.g. https://api.github.com
	Organization    string
	AppID           int64
	PrivateKeyFile  string
	PATToken        string
	RateLimitPerSec float64 // requests/sec sustained, 0 disables limiting
	RateLimitBurst  int
}

// Client is the Provider transport: an authenticated, rate-limited
// *http.Client wrapped by go-github for REST calls, plus a raw GraphQL POST
// helper for the calls go-github doesn't expose.
type Client struct {
	rest   *gogithub.Client
	server string
	org    string

	appID          int64
	installationID int64
	appSlug        string
	privateKey     []byte
	patToken       string

	mu              sync.Mutex
	accessToken     string
	tokenExpiration time.Time
}

// New builds a Client, resolving the App installation for cfg.Organization
// up front when no PAT was supplied (mirrors
// NewGitHubClientImpl in the teacher).
func New(cfg Config) (*Client, error) {
	var privateKey []byte
	var err error
	if cfg.PATToken == "" {
		privateKey, err = os.ReadFile(cfg.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading github app private key: %w", err)
		}
	}

	server := cfg.Server
	if server == "" {
		server = "https://api.github.com"
	}

	c := &Client{
		server:     server,
		org:        cfg.Organization,
		appID:      cfg.AppID,
		privateKey: privateKey,
		patToken:   cfg.PATToken,
	}

	if c.patToken == "" {
		jwtToken, err := c.CreateJWT()
		if err != nil {
			return nil, err
		}
		installations, err := c.getInstallations(jwtToken)
		if err != nil {
			return nil, err
		}
		for _, inst := range installations {
			if strings.EqualFold(inst.Account.Login, cfg.Organization) && inst.AppID == cfg.AppID {
				c.installationID = inst.ID
				c.appSlug = inst.AppSlug
				break
			}
		}
		if c.installationID == 0 {
			return nil, fmt.Errorf("no app installation found for organization %s", cfg.Organization)
		}
	}

	var transport http.RoundTripper = &authorizedTransport{client: c}
	if cfg.RateLimitPerSec > 0 {
		transport = &rateLimitedTransport{
			limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst),
			base:    transport,
		}
	}
	httpClient := &http.Client{Transport: transport}

	rest := gogithub.NewClient(httpClient)
	if server != "https://api.github.com" {
		base, err := url.Parse(strings.TrimSuffix(server, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parsing github server url: %w", err)
		}
		rest.BaseURL = base
	}
	c.rest = rest

	return c, nil
}

// isPAT reports whether this client authenticates with a personal access
// token rather than a GitHub App installation token.
func (c *Client) isPAT() bool {
	return c.patToken != ""
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphQLError struct {
	Message string        `json:"message"`
	Path    []interface{} `json:"path"`
}

type graphQLEnvelope struct {
	Errors []graphQLError `json:"errors"`
}

// queryGraphQL posts query/variables to /graphql and decodes the whole
// response envelope (its "data" object included) into out, grounded on
// GitHubClientImpl.QueryGraphQLAPI.
func (c *Client) queryGraphQL(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshalling graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.server+"/graphql", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("preparing graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.rest.Client().Do(req)
	if err != nil {
		return fmt.Errorf("sending graphql request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading graphql response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected graphql status %s: %s", resp.Status, string(respBody))
	}

	var envelope graphQLEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("decoding graphql envelope: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("graphql error: %s (path %v)", envelope.Errors[0].Message, envelope.Errors[0].Path)
	}

	if out != nil {
		// out is expected to be a pointer to a struct with a top-level "Data"
		// field shaped like the query; decode the whole envelope into it so
		// callers declare a single struct mirroring the response.
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding graphql data: %w", err)
		}
	}

	return nil
}

type installation struct {
	ID      int64  `json:"id"`
	AppID   int64  `json:"app_id"`
	AppSlug string `json:"app_slug"`
	Account struct {
		Login string `json:"login"`
	} `json:"account"`
}

// getInstallations lists the app's installations, grounded on
// GitHubClientImpl.getInstallations (internal/github/githubapp.go).
func (c *Client) getInstallations(jwtToken string) ([]installation, error) {
	req, err := http.NewRequest(http.MethodGet, c.server+"/app/installations", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+jwtToken)
	req.Header.Set("Accept", "application/vnd.github.machine-man-preview+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading installations response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected installations status %s: %s", resp.Status, string(body))
	}

	var installations []installation
	if err := json.Unmarshal(body, &installations); err != nil {
		return nil, fmt.Errorf("decoding installations: %w", err)
	}
	return installations, nil
}

// CreateJWT signs a short-lived App JWT, grounded on
// GitHubClientImpl.CreateJWT.
func (c *Client) CreateJWT() (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(c.privateKey)
	if err != nil {
		return "", fmt.Errorf("parsing app private key: %w", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iat": now.Add(-30 * time.Second).Unix(),
		"exp": now.Add(9 * time.Minute).Unix(),
		"iss": c.appID,
	})

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("signing app jwt: %w", err)
	}
	return signed, nil
}

type accessTokenResponse struct {
	Token string `json:"token"`
}

func (c *Client) getAccessTokenForInstallation(ctx context.Context, jwtToken string) (string, time.Time, error) {
	url := fmt.Sprintf("%s/app/installations/%d/access_tokens", c.server, c.installationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return "", time.Time{}, err
	}
	req.Header.Set("Authorization", "Bearer "+jwtToken)
	req.Header.Set("Accept", "application/vnd.github.machine-man-preview+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", time.Time{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", time.Time{}, fmt.Errorf("unexpected status %s requesting installation token: %s", resp.Status, string(body))
	}

	var tokenResp accessTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", time.Time{}, fmt.Errorf("decoding installation token: %w", err)
	}
	return tokenResp.Token, time.Now().Add(1 * time.Hour), nil
}

// authorizedTransport adds either the static PAT or a refreshed App
// installation token to every outgoing request, grounded on
// GitHubClientImpl.AuthorizedTransport.
type authorizedTransport struct {
	client *Client
}

func (t *authorizedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c := t.client
	c.mu.Lock()

	if c.patToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.patToken)
		c.mu.Unlock()
		return http.DefaultTransport.RoundTrip(req)
	}

	if c.accessToken == "" || time.Until(c.tokenExpiration) < 5*time.Minute {
		jwtToken, err := c.CreateJWT()
		if err != nil {
			c.mu.Unlock()
			return nil, err
		}
		token, expiresAt, err := c.getAccessTokenForInstallation(req.Context(), jwtToken)
		if err != nil {
			c.mu.Unlock()
			return nil, err
		}
		c.accessToken = token
		c.tokenExpiration = expiresAt
		logrus.Debugf("refreshed github app installation token, expires %v", expiresAt)
	}
	token := c.accessToken
	c.mu.Unlock()

	req.Header.Set("Authorization", "Bearer "+token)
	return http.DefaultTransport.RoundTrip(req)
}

// rateLimitedTransport blocks each request on a token bucket before handing
// it to base, keeping the client under GitHub's documented rate limits
// without retry/backoff policy (that remains the host's concern, §7).
type rateLimitedTransport struct {
	limiter *rate.Limiter
	base    http.RoundTripper
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return t.base.RoundTrip(req)
}
