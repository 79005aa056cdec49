package album

import (
	"reflect"
	"testing"
)

func TestNormalizeCandidatesDropsIncomplete(t *testing.T) {
	raw := []Candidate{
		{RecordingID: "r1", ReleaseID: "a1", Artist: "Artist", Title: "Song", Score: 0.9},
		{RecordingID: "r2", ReleaseID: "a1", Artist: "", Title: "No Artist", Score: 0.95},
		{RecordingID: "r3", ReleaseID: "a1", Artist: "Artist", Title: "", Score: 0.95},
	}
	got := NormalizeCandidates(raw)
	if len(got) != 1 || got[0].RecordingID != "r1" {
		t.Fatalf("expected only complete candidate to survive, got %+v", got)
	}
}

func TestNormalizeCandidatesDedupesByRecordingRelease(t *testing.T) {
	raw := []Candidate{
		{RecordingID: "r1", ReleaseID: "a1", Artist: "Artist", Title: "Song", Score: 0.82},
		{RecordingID: "r1", ReleaseID: "a1", Artist: "Artist", Title: "Song", Score: 0.91},
		{RecordingID: "r1", ReleaseID: "a2", Artist: "Artist", Title: "Song", Score: 0.85},
	}
	got := NormalizeCandidates(raw)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates after dedupe, got %d", len(got))
	}
	if got[0].Score != 0.91 {
		t.Fatalf("expected highest-score duplicate kept first, got %+v", got[0])
	}
}

func TestNormalizeCandidatesClampsScore(t *testing.T) {
	raw := []Candidate{
		{RecordingID: "r1", ReleaseID: "a1", Artist: "A", Title: "T", Score: 1.5},
		{RecordingID: "r2", ReleaseID: "a1", Artist: "A", Title: "T", Score: -0.25},
	}
	got := NormalizeCandidates(raw)
	if got[0].Score != 1 || got[1].Score != 0 {
		t.Fatalf("scores not clamped: %+v", got)
	}
}

func TestNormalizeCandidatesDeterministic(t *testing.T) {
	raw := []Candidate{
		{RecordingID: "r2", ReleaseID: "a1", Artist: "A", Title: "T", Score: 0.8},
		{RecordingID: "r1", ReleaseID: "a1", Artist: "A", Title: "T", Score: 0.8},
		{RecordingID: "r3", ReleaseID: "a2", Artist: "B", Title: "U", Score: 0.9},
	}
	first := NormalizeCandidates(raw)
	second := NormalizeCandidates(raw)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalization not deterministic:\n%+v\n%+v", first, second)
	}
	if first[0].RecordingID != "r3" || first[1].RecordingID != "r1" {
		t.Fatalf("unexpected ordering: %+v", first)
	}
}

func TestBestCandidate(t *testing.T) {
	if _, ok := BestCandidate(nil); ok {
		t.Fatal("empty list must report no candidate")
	}
	best, ok := BestCandidate([]Candidate{
		{RecordingID: "r1", Score: 0.5},
		{RecordingID: "r2", Score: 0.95},
		{RecordingID: "r3", Score: 0.7},
	})
	if !ok || best.RecordingID != "r2" {
		t.Fatalf("best = %+v, ok = %v", best, ok)
	}
}
