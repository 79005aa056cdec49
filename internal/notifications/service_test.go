package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"stylus/internal/config"
	"stylus/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyAlbumIdentified(context.Background(), "Artist", "Album", 10); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	type captured struct {
		title    string
		tags     string
		priority string
		body     string
	}

	tests := []struct {
		name           string
		publish        func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "album identified",
			publish: func(svc notifications.Service) error {
				return svc.NotifyAlbumIdentified(context.Background(), "Boards of Canada", "Geogaddi", 23)
			},
			expectTitle:   "Stylus - Album Identified",
			expectMessage: "🎵 Identified: Boards of Canada - Geogaddi (23 tracks)",
			expectTags:    "stylus,identify,completed",
		},
		{
			name: "album undecided",
			publish: func(svc notifications.Service) error {
				return svc.NotifyAlbumUndecided(context.Background(), "abcde.a1b2c3", "low agreement")
			},
			expectTitle:   "Stylus - Needs Review",
			expectMessage: "Could not identify: abcde.a1b2c3 (low agreement)\nManual review required",
			expectTags:    "stylus,identify,review",
		},
		{
			name: "organization completed",
			publish: func(svc notifications.Service) error {
				return svc.NotifyOrganizationCompleted(context.Background(), "Autechre", "Tri Repetae", "/music/Autechre/Tri Repetae")
			},
			expectTitle:    "Stylus - Library Updated",
			expectMessage:  "Added to library: Autechre - Tri Repetae\nLocation: /music/Autechre/Tri Repetae",
			expectTags:     "stylus,library,added",
			expectPriority: "high",
		},
		{
			name: "cleanup completed with skips",
			publish: func(svc notifications.Service) error {
				return svc.NotifyCleanupCompleted(context.Background(), 3, 1)
			},
			expectTitle:   "Stylus - Cleanup Complete",
			expectMessage: "Cleanup complete: 3 removed, 1 skipped",
			expectTags:    "stylus,cleanup,completed",
		},
		{
			name: "error",
			publish: func(svc notifications.Service) error {
				return svc.NotifyError(context.Background(), errors.New("lookup failed"), "identify")
			},
			expectTitle:    "Stylus - Error",
			expectMessage:  "❌ Error with identify: lookup failed",
			expectTags:     "stylus,error,alert",
			expectPriority: "high",
		},
		{
			name: "test notification",
			publish: func(svc notifications.Service) error {
				return svc.TestNotification(context.Background())
			},
			expectTitle:    "Stylus - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "stylus,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got captured
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				got.title = r.Header.Get("Title")
				got.tags = r.Header.Get("Tags")
				got.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				got.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := tc.publish(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if got.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got.title)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, got.body)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got.tags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got.priority)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "topic not found", http.StatusNotFound)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
