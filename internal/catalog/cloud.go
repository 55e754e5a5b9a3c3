package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCloudURL is the public session service endpoint.
const DefaultCloudURL = "https://plex.tv"

// Cloud authenticates accounts and discovers playable devices.
type Cloud struct {
	log      *zap.Logger
	http     *http.Client
	baseURL  string
	clientID string
}

// CloudConfig configures the cloud session client.
type CloudConfig struct {
	BaseURL  string
	ClientID string
	Timeout  time.Duration
}

// NewCloud creates a cloud session client.
func NewCloud(log *zap.Logger, cfg CloudConfig) *Cloud {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultCloudURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.ClientID == "" {
		cfg.ClientID = uuid.NewString()
	}
	return &Cloud{
		log:      log,
		http:     &http.Client{Timeout: cfg.Timeout},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		clientID: cfg.ClientID,
	}
}

type signInResponse struct {
	User struct {
		AuthToken string `json:"authToken"`
		Username  string `json:"username"`
	} `json:"user"`
}

type resourcePayload struct {
	Name             string `json:"name"`
	ClientIdentifier string `json:"clientIdentifier"`
	Provides         string `json:"provides"`
	AccessToken      string `json:"accessToken"`
	Connections      []struct {
		URI   string `json:"uri"`
		Local bool   `json:"local"`
	} `json:"connections"`
}

// SignIn exchanges credentials for an account token. On failure the caller's
// session state must be left untouched.
func (c *Cloud) SignIn(ctx context.Context, username string, password string) (string, error) {
	if username == "" || password == "" {
		return "", errors.New("username and password required")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/users/sign_in.json", nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConnection, err)
	}
	req.SetBasicAuth(username, password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Client-Identifier", c.clientID)
	req.Header.Set("X-Plex-Product", "plexdesk")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", ErrAuthentication
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: server returned %d", ErrConnection, resp.StatusCode)
	}

	var body signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if body.User.AuthToken == "" {
		return "", ErrAuthentication
	}
	return body.User.AuthToken, nil
}

// Devices lists servers and players registered to the account.
func (c *Cloud) Devices(ctx context.Context, token string) ([]Device, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/v2/resources?includeHttps=1", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Token", token)
	req.Header.Set("X-Plex-Client-Identifier", c.clientID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrAuthentication
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: server returned %d", ErrConnection, resp.StatusCode)
	}

	var payload []resourcePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	devices := make([]Device, 0, len(payload))
	for _, res := range payload {
		device := Device{
			Name:             res.Name,
			ClientIdentifier: res.ClientIdentifier,
			Provides:         res.Provides,
			AccessToken:      res.AccessToken,
		}
		for _, conn := range res.Connections {
			device.Connections = append(device.Connections, conn.URI)
		}
		devices = append(devices, device)
	}
	return devices, nil
}

// Servers filters devices down to ones that provide a catalog.
func Servers(devices []Device) []Device {
	out := make([]Device, 0, len(devices))
	for _, device := range devices {
		if strings.Contains(device.Provides, "server") {
			out = append(out, device)
		}
	}
	return out
}

// BestConnection picks the first reachable connection URI for a device.
func (c *Cloud) BestConnection(ctx context.Context, device Device) (string, error) {
	for _, uri := range device.Connections {
		req, err := http.NewRequestWithContext(ctx, "GET", uri+"/identity", nil)
		if err != nil {
			continue
		}
		req.Header.Set("X-Plex-Token", device.AccessToken)
		resp, err := c.http.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode < 400 {
			return uri, nil
		}
	}
	return "", fmt.Errorf("%w: no reachable connection for %s", ErrConnection, device.Name)
}
