package navidrome

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stylus/internal/config"
	"stylus/internal/services"
)

const (
	userAgent       = "Stylus/0.1.0"
	subsonicVersion = "1.16.1"
	subsonicClient  = "stylus"
)

// Service defines the library rescan surface used by the organizer.
type Service interface {
	StartScan(ctx context.Context) error
}

// NewConfiguredService builds a rescan service from configuration. When
// rescan is disabled, a noop implementation is returned.
func NewConfiguredService(cfg *config.Config) Service {
	if cfg == nil || !cfg.Library.RescanEnabled {
		return noopService{}
	}
	timeout := time.Duration(cfg.Library.RescanTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &client{
		baseURL: strings.TrimRight(cfg.Library.RescanURL, "/"),
		user:    cfg.Library.RescanUser,
		secret:  cfg.Library.RescanToken,
		client:  &http.Client{Timeout: timeout},
	}
}

type client struct {
	baseURL string
	user    string
	secret  string
	client  *http.Client
}

type subsonicResponse struct {
	SubsonicResponse struct {
		Status string `json:"status"`
		Error  struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"subsonic-response"`
}

// StartScan asks the server to rescan its library.
func (c *client) StartScan(ctx context.Context) error {
	endpoint, err := c.buildURL("startScan")
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrTransient, "navidrome", "build request", "", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "navidrome", "start scan", "request failed", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrUnavailable, "navidrome", "start scan",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var parsed subsonicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return services.Wrap(services.ErrUnavailable, "navidrome", "start scan", "malformed response", err)
	}
	if parsed.SubsonicResponse.Status != "ok" {
		message := parsed.SubsonicResponse.Error.Message
		if message == "" {
			message = "scan rejected"
		}
		marker := services.ErrUnavailable
		if parsed.SubsonicResponse.Error.Code == 40 { // wrong username or password
			marker = services.ErrAuth
		}
		return services.Wrap(marker, "navidrome", "start scan", message, nil)
	}
	return nil
}

// buildURL assembles a Subsonic REST call with per-request salted token
// authentication.
func (c *client) buildURL(endpoint string) (string, error) {
	salt := make([]byte, 6)
	if _, err := rand.Read(salt); err != nil {
		return "", services.Wrap(services.ErrTransient, "navidrome", "generate salt", "", err)
	}
	saltStr := base64.RawURLEncoding.EncodeToString(salt)
	token := fmt.Sprintf("%x", md5.Sum([]byte(c.secret+saltStr)))

	values := url.Values{}
	values.Set("u", c.user)
	values.Set("t", token)
	values.Set("s", saltStr)
	values.Set("v", subsonicVersion)
	values.Set("c", subsonicClient)
	values.Set("f", "json")

	return fmt.Sprintf("%s/rest/%s?%s", c.baseURL, endpoint, values.Encode()), nil
}

type noopService struct{}

func (noopService) StartScan(context.Context) error { return nil }
