package acoustid

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stylus/internal/services"
	"stylus/internal/services/chromaprint"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

const sampleResponse = `{
  "status": "ok",
  "results": [
    {
      "id": "result-1",
      "score": 0.97,
      "recordings": [
        {
          "id": "rec-1",
          "title": "Dreams",
          "artists": [{"id": "art-1", "name": "Fleetwood Mac"}],
          "releases": [
            {
              "id": "rel-1",
              "title": "Rumours",
              "date": {"year": 1977},
              "mediums": [{"position": 1, "tracks": [{"position": 2, "title": "Dreams"}]}]
            }
          ]
        }
      ]
    }
  ]
}`

func TestLookupFlattensCandidates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.Form.Get("client") != "test-key" {
			t.Errorf("missing client key in form: %v", r.Form)
		}
		if r.Form.Get("fingerprint") == "" || r.Form.Get("duration") == "" {
			t.Errorf("missing fingerprint params: %v", r.Form)
		}
		w.Write([]byte(sampleResponse))
	})

	candidates, err := client.Lookup(context.Background(), chromaprint.Fingerprint{Duration: 257, Value: "AQAD"})
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	cand := candidates[0]
	if cand.Artist != "Fleetwood Mac" || cand.Album != "Rumours" || cand.Title != "Dreams" {
		t.Fatalf("candidate = %+v", cand)
	}
	if cand.Score != 0.97 || cand.Year != "1977" || cand.TrackNo != 2 || cand.DiscNo != 1 {
		t.Fatalf("candidate = %+v", cand)
	}
}

func TestLookupNoMatchIsNotError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status": "ok", "results": []}`))
	})

	candidates, err := client.Lookup(context.Background(), chromaprint.Fingerprint{Duration: 100, Value: "AQAD"})
	if err != nil {
		t.Fatalf("no-match must not be an error: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %v", candidates)
	}
}

func TestLookupInvalidKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status": "error", "error": {"code": 4, "message": "invalid API key"}}`))
	})

	_, err := client.Lookup(context.Background(), chromaprint.Fingerprint{Duration: 100, Value: "AQAD"})
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func TestLookupServerErrorIsRetryable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Lookup(context.Background(), chromaprint.Fingerprint{Duration: 100, Value: "AQAD"})
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if !services.Retryable(err) {
		t.Fatal("service errors must be retryable")
	}
}

func TestLookupUnreachableService(t *testing.T) {
	client, err := New(Config{APIKey: "k", BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.Lookup(context.Background(), chromaprint.Fingerprint{Duration: 100, Value: "AQAD"})
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(Config{BaseURL: "https://api.acoustid.org/v2/lookup"}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
