package acoustid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stylus/internal/album"
	"stylus/internal/services"
	"stylus/internal/services/chromaprint"
)

const userAgent = "Stylus/0.1.0"

// Client queries the AcoustID lookup endpoint.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// Config carries the AcoustID connection settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// New constructs an AcoustID client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrValidation, "acoustid", "configure", "API key required", nil)
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, services.Wrap(services.ErrValidation, "acoustid", "configure", "base URL required", nil)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: base,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Lookup resolves one fingerprint into ranked candidates. An empty result is
// a genuine no-match, not an error. Lookups are idempotent from the caller's
// perspective; repeated calls return equivalent candidate sets modulo
// service-side ranking drift.
func (c *Client) Lookup(ctx context.Context, fp chromaprint.Fingerprint) ([]album.Candidate, error) {
	form := url.Values{}
	form.Set("client", c.apiKey)
	form.Set("fingerprint", fp.Value)
	form.Set("duration", strconv.Itoa(fp.Duration))
	form.Set("meta", "recordings releases")
	form.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "acoustid", "build request", "", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "acoustid", "lookup", "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "acoustid", "lookup", "read response", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusTooManyRequests:
		return nil, services.Wrap(services.ErrAuth, "acoustid", "lookup",
			fmt.Sprintf("service rejected request (%d): %s", resp.StatusCode, snippet(body)), nil)
	case resp.StatusCode >= 500:
		return nil, services.Wrap(services.ErrUnavailable, "acoustid", "lookup",
			fmt.Sprintf("service error (%d)", resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		// AcoustID reports malformed requests with 400 plus an error body.
		return nil, classifyError(body, resp.StatusCode)
	}

	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "acoustid", "lookup", "malformed response", err)
	}
	if parsed.Status != "ok" {
		return nil, classifyError(body, resp.StatusCode)
	}

	return flatten(parsed), nil
}

// AcoustID error codes for key and quota problems.
const (
	errCodeInvalidAPIKey = 4
	errCodeThrottled     = 14
)

func classifyError(body []byte, status int) error {
	var parsed lookupResponse
	_ = json.Unmarshal(body, &parsed)
	message := strings.TrimSpace(parsed.Error.Message)
	if message == "" {
		message = fmt.Sprintf("status %d", status)
	}
	marker := services.ErrUnavailable
	if parsed.Error.Code == errCodeInvalidAPIKey || parsed.Error.Code == errCodeThrottled {
		marker = services.ErrAuth
	}
	return services.Wrap(marker, "acoustid", "lookup", message, nil)
}

func snippet(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > 200 {
		return trimmed[:200]
	}
	return trimmed
}

type lookupResponse struct {
	Status string `json:"status"`
	Error  struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Results []lookupResult `json:"results"`
}

type lookupResult struct {
	ID         string      `json:"id"`
	Score      float64     `json:"score"`
	Recordings []recording `json:"recordings"`
}

type recording struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Artists  []artist  `json:"artists"`
	Releases []release `json:"releases"`
}

type artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type release struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Date    date     `json:"date"`
	Mediums []medium `json:"mediums"`
}

type date struct {
	Year int `json:"year"`
}

type medium struct {
	Position int         `json:"position"`
	Tracks   []trackSlot `json:"tracks"`
}

type trackSlot struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
}

// flatten expands the nested response into one candidate per
// (result, recording, release) combination. Scores apply at the result
// level; recordings without titles or artists are dropped later by the
// normalizer.
func flatten(parsed lookupResponse) []album.Candidate {
	var candidates []album.Candidate
	for _, result := range parsed.Results {
		for _, rec := range result.Recordings {
			artistName := ""
			if len(rec.Artists) > 0 {
				artistName = rec.Artists[0].Name
			}
			if len(rec.Releases) == 0 {
				candidates = append(candidates, album.Candidate{
					RecordingID: rec.ID,
					Artist:      artistName,
					Title:       rec.Title,
					Score:       result.Score,
				})
				continue
			}
			for _, rel := range rec.Releases {
				cand := album.Candidate{
					RecordingID: rec.ID,
					ReleaseID:   rel.ID,
					Artist:      artistName,
					Album:       rel.Title,
					Title:       rec.Title,
					Score:       result.Score,
				}
				if rel.Date.Year > 0 {
					cand.Year = strconv.Itoa(rel.Date.Year)
				}
				if len(rel.Mediums) > 0 {
					cand.DiscNo = rel.Mediums[0].Position
					if len(rel.Mediums[0].Tracks) > 0 {
						cand.TrackNo = rel.Mediums[0].Tracks[0].Position
					}
				}
				candidates = append(candidates, cand)
			}
		}
	}
	return candidates
}
