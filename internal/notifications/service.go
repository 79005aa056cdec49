package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stylus/internal/config"
)

const userAgent = "Stylus/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyAlbumIdentified(ctx context.Context, artist, albumTitle string, trackCount int) error
	NotifyAlbumUndecided(ctx context.Context, folder, reason string) error
	NotifyOrganizationCompleted(ctx context.Context, artist, albumTitle, finalDir string) error
	NotifyCleanupCompleted(ctx context.Context, removed, skipped int) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyAlbumIdentified(ctx context.Context, artist, albumTitle string, trackCount int) error {
	artist = strings.TrimSpace(artist)
	albumTitle = strings.TrimSpace(albumTitle)
	data := payload{
		title:   "Stylus - Album Identified",
		message: fmt.Sprintf("🎵 Identified: %s - %s (%d tracks)", artist, albumTitle, trackCount),
		tags:    []string{"stylus", "identify", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAlbumUndecided(ctx context.Context, folder, reason string) error {
	folder = strings.TrimSpace(folder)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "insufficient data"
	}
	data := payload{
		title:   "Stylus - Needs Review",
		message: fmt.Sprintf("Could not identify: %s (%s)\nManual review required", folder, reason),
		tags:    []string{"stylus", "identify", "review"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyOrganizationCompleted(ctx context.Context, artist, albumTitle, finalDir string) error {
	artist = strings.TrimSpace(artist)
	albumTitle = strings.TrimSpace(albumTitle)
	finalDir = strings.TrimSpace(finalDir)
	message := fmt.Sprintf("Added to library: %s - %s", artist, albumTitle)
	if finalDir != "" {
		message = fmt.Sprintf("%s\nLocation: %s", message, finalDir)
	}
	data := payload{
		title:    "Stylus - Library Updated",
		message:  message,
		tags:     []string{"stylus", "library", "added"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCleanupCompleted(ctx context.Context, removed, skipped int) error {
	var message string
	if skipped == 0 {
		message = fmt.Sprintf("Cleanup complete: %d items removed", removed)
	} else {
		message = fmt.Sprintf("Cleanup complete: %d removed, %d skipped", removed, skipped)
	}
	data := payload{
		title:   "Stylus - Cleanup Complete",
		message: message,
		tags:    []string{"stylus", "cleanup", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Stylus - Error",
		message:  builder.String(),
		tags:     []string{"stylus", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Stylus - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"stylus", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyAlbumIdentified(context.Context, string, string, int) error       { return nil }
func (noopService) NotifyAlbumUndecided(context.Context, string, string) error             { return nil }
func (noopService) NotifyOrganizationCompleted(context.Context, string, string, string) error {
	return nil
}
func (noopService) NotifyCleanupCompleted(context.Context, int, int) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error       { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }
