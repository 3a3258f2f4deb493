package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Jayden1717/fitness-companion/internal/httpkit"
)

const (
	defaultAPIBaseURL = "https://www.strava.com/api/v3"
	defaultTokenURL   = "https://www.strava.com/oauth/token"
	defaultAuthURL    = "https://www.strava.com/oauth/authorize"

	// refreshSkew renews tokens slightly before their reported expiry so
	// an API call never races the expiration.
	refreshSkew = 60 * time.Second
)

// streamKeys are the time-series channels requested for ride analysis.
// All are numeric series; latlng is deliberately excluded (pairs, and
// unused by the analysis).
var streamKeys = []string{"time", "distance", "altitude", "heartrate", "cadence", "watts", "velocity_smooth"}

// Client talks to the Strava API on behalf of linked users. Access
// tokens are refreshed transparently; refreshes for the same user are
// serialized to avoid burning refresh tokens concurrently.
type Client struct {
	clientID     string
	clientSecret string
	redirectURL  string

	apiBaseURL string
	tokenURL   string
	authURL    string

	creds      CredentialStore
	httpClient *http.Client
	logger     *slog.Logger

	mu      sync.Mutex
	userMus map[string]*sync.Mutex

	now func() time.Time
}

// NewClient creates a Strava client. redirectURL is the OAuth callback
// this server answers on.
func NewClient(clientID, clientSecret, redirectURL string, creds CredentialStore, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		apiBaseURL:   defaultAPIBaseURL,
		tokenURL:     defaultTokenURL,
		authURL:      defaultAuthURL,
		creds:        creds,
		httpClient:   httpkit.NewClient(httpkit.WithTimeout(30 * time.Second)),
		logger:       logger.With("provider", "strava"),
		userMus:      make(map[string]*sync.Mutex),
		now:          time.Now,
	}
}

// SetBaseURLs overrides the API and token endpoints. Used by tests.
func (c *Client) SetBaseURLs(api, token string) {
	c.apiBaseURL = api
	c.tokenURL = token
}

// AuthorizeURL builds the consent URL a user visits to link their Strava
// account. The user id travels in the OAuth state parameter and comes
// back on the callback.
func (c *Client) AuthorizeURL(userID string) string {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", c.redirectURL)
	q.Set("approval_prompt", "auto")
	q.Set("scope", "activity:read_all")
	q.Set("state", userID)
	return c.authURL + "?" + q.Encode()
}

// tokenResponse is the token endpoint's reply for both grant types.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Exchange redeems an authorization code for tokens and stores the
// resulting triple for the user.
func (c *Client) Exchange(ctx context.Context, code, userID string) error {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")

	tok, err := c.postToken(ctx, form)
	if err != nil {
		return fmt.Errorf("code exchange: %w", err)
	}

	if err := c.creds.PutCredentials(userID, &Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.ExpiresAt,
	}); err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}

	c.logger.Info("account linked", "user", userID, "expires_at", tok.ExpiresAt)
	return nil
}

// userMu returns the per-user mutex guarding token refresh.
func (c *Client) userMu(userID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	mu, ok := c.userMus[userID]
	if !ok {
		mu = &sync.Mutex{}
		c.userMus[userID] = mu
	}
	return mu
}

// accessToken returns a valid access token for the user, refreshing
// through the refresh-token grant when the stored one is expired or
// about to expire.
func (c *Client) accessToken(ctx context.Context, userID string) (string, error) {
	mu := c.userMu(userID)
	mu.Lock()
	defer mu.Unlock()

	creds, err := c.creds.Credentials(userID)
	if err != nil {
		return "", fmt.Errorf("load credentials: %w", err)
	}
	if creds == nil {
		return "", ErrNotAuthenticated
	}

	if c.now().After(time.Unix(creds.ExpiresAt, 0).Add(-refreshSkew)) {
		c.logger.Info("refreshing access token", "user", userID)

		form := url.Values{}
		form.Set("client_id", c.clientID)
		form.Set("client_secret", c.clientSecret)
		form.Set("refresh_token", creds.RefreshToken)
		form.Set("grant_type", "refresh_token")

		tok, err := c.postToken(ctx, form)
		if err != nil {
			return "", fmt.Errorf("token refresh: %w", err)
		}

		creds.AccessToken = tok.AccessToken
		if tok.RefreshToken != "" {
			creds.RefreshToken = tok.RefreshToken
		}
		creds.ExpiresAt = tok.ExpiresAt

		if err := c.creds.PutCredentials(userID, creds); err != nil {
			return "", fmt.Errorf("store refreshed credentials: %w", err)
		}
	}

	return creds.AccessToken, nil
}

func (c *Client) postToken(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 2048)
		return nil, fmt.Errorf("token endpoint %d: %s", resp.StatusCode, body)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return &tok, nil
}

// Activities lists the user's activities from the last N days,
// oldest-window bounded by the after= epoch parameter.
func (c *Client) Activities(ctx context.Context, userID string, days int) ([]Activity, error) {
	token, err := c.accessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	since := c.now().AddDate(0, 0, -days).Unix()
	u := fmt.Sprintf("%s/athlete/activities?after=%d", c.apiBaseURL, since)

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 2048)
		return nil, fmt.Errorf("activities endpoint %d: %s", resp.StatusCode, body)
	}

	var activities []Activity
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}

	c.logger.Debug("fetched activities", "user", userID, "days", days, "count", len(activities))
	return activities, nil
}

// stream is one entry of the streams endpoint response before re-keying.
type stream struct {
	Type string    `json:"type"`
	Data []float64 `json:"data"`
}

// Streams fetches the time-series channels for one activity at low
// resolution and re-keys the response by stream type.
func (c *Client) Streams(ctx context.Context, userID string, activityID int64) (map[string][]float64, error) {
	token, err := c.accessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/activities/%d/streams?keys=%s&key_by_type=true&resolution=low",
		c.apiBaseURL, activityID, strings.Join(streamKeys, ","))

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 2048)
		return nil, fmt.Errorf("streams endpoint %d: %s", resp.StatusCode, body)
	}

	var raw []stream
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode streams: %w", err)
	}

	keyed := make(map[string][]float64, len(raw))
	for _, s := range raw {
		if s.Type != "" {
			keyed[s.Type] = s.Data
		}
	}

	c.logger.Debug("fetched streams", "user", userID, "activity", activityID, "types", len(keyed))
	return keyed, nil
}
