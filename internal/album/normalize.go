package album

import (
	"sort"
	"strings"
)

// NormalizeCandidates maps raw per-track candidates into the canonical shape
// the voting engine consumes: candidates without an artist or title are
// dropped, scores are clamped to [0, 1], and duplicate recordings reported
// for the same release collapse into the highest-scoring instance.
//
// The input slice is not mutated and the result ordering is deterministic
// (descending score, then recording/release key) so repeated runs over the
// same response produce identical decisions.
func NormalizeCandidates(raw []Candidate) []Candidate {
	type dedupeKey struct {
		recording string
		release   string
	}

	best := make(map[dedupeKey]Candidate, len(raw))
	for _, cand := range raw {
		cand.Artist = strings.TrimSpace(cand.Artist)
		cand.Album = strings.TrimSpace(cand.Album)
		cand.Title = strings.TrimSpace(cand.Title)
		if cand.Artist == "" || cand.Title == "" {
			continue
		}
		if cand.Score < 0 {
			cand.Score = 0
		} else if cand.Score > 1 {
			cand.Score = 1
		}

		key := dedupeKey{recording: cand.RecordingID, release: cand.ReleaseID}
		if existing, ok := best[key]; !ok || cand.Score > existing.Score {
			best[key] = cand
		}
	}

	out := make([]Candidate, 0, len(best))
	for _, cand := range best {
		out = append(out, cand)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].RecordingID != out[j].RecordingID {
			return out[i].RecordingID < out[j].RecordingID
		}
		return out[i].ReleaseID < out[j].ReleaseID
	})
	return out
}

// BestCandidate returns the highest-scoring candidate, or false when the
// list is empty.
func BestCandidate(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	best := candidates[0]
	for _, cand := range candidates[1:] {
		if cand.Score > best.Score {
			best = cand
		}
	}
	return best, true
}
