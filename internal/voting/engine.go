package voting

import (
	"fmt"
	"sort"

	"stylus/internal/album"
)

// Outcome is the album-level decision.
type Outcome string

const (
	// Accept means all three safety thresholds held and the album carries an
	// accepted identity.
	Accept Outcome = "accept"
	// InsufficientData means the thresholds did not hold; the album must be
	// left untouched.
	InsufficientData Outcome = "insufficient_data"
)

// Thresholds are the three safety thresholds an accept requires. They are
// configuration inputs, never constants.
type Thresholds struct {
	// MinTrackScore is the per-track confidence a best candidate must reach
	// for the track to count as identified.
	MinTrackScore float64 `json:"min_track_score"`
	// MinCoverage is the minimum identified-track fraction of the album.
	MinCoverage float64 `json:"min_coverage"`
	// MinAgreement is the minimum fraction of identified tracks whose best
	// candidate names the same (artist, release).
	MinAgreement float64 `json:"min_agreement"`
}

// Ballot pairs one track with its normalized candidates.
type Ballot struct {
	Track      album.Track
	Candidates []album.Candidate
}

// Decision is the aggregate outcome for one album folder.
type Decision struct {
	Outcome    Outcome         `json:"outcome"`
	Identity   *album.Identity `json:"identity,omitempty"`
	Thresholds Thresholds      `json:"thresholds"`

	TotalTracks      int     `json:"total_tracks"`
	IdentifiedTracks int     `json:"identified_tracks"`
	Coverage         float64 `json:"coverage"`
	Agreement        float64 `json:"agreement"`
	// Reason explains an InsufficientData outcome.
	Reason string `json:"reason,omitempty"`
}

// Decide converts the per-track ballots of one album into a Decision.
//
// A track is identified when its best candidate scores at least
// MinTrackScore. Coverage and agreement are then evaluated against the
// thresholds; ties between equally large (artist, release) groups break by
// highest cumulative score, then lexicographic release key, so the decision
// is a pure function of the ballot set.
func Decide(ballots []Ballot, thresholds Thresholds) Decision {
	decision := Decision{
		Outcome:     InsufficientData,
		Thresholds:  thresholds,
		TotalTracks: len(ballots),
	}
	if len(ballots) == 0 {
		decision.Reason = "no tracks found"
		return decision
	}

	type vote struct {
		ballot album.Track
		best   album.Candidate
	}

	votes := make([]vote, 0, len(ballots))
	for _, ballot := range ballots {
		best, ok := album.BestCandidate(ballot.Candidates)
		if !ok || best.Score < thresholds.MinTrackScore {
			continue
		}
		votes = append(votes, vote{ballot: ballot.Track, best: best})
	}

	decision.IdentifiedTracks = len(votes)
	decision.Coverage = float64(len(votes)) / float64(len(ballots))
	if decision.Coverage < thresholds.MinCoverage {
		decision.Reason = fmt.Sprintf("coverage %.2f below threshold %.2f (%d/%d tracks identified)",
			decision.Coverage, thresholds.MinCoverage, len(votes), len(ballots))
		return decision
	}

	groups := make(map[string][]album.Candidate)
	for _, v := range votes {
		key := v.best.ReleaseKey()
		groups[key] = append(groups[key], v.best)
	}

	winnerKey := pickWinningGroup(groups)
	winner := groups[winnerKey]
	decision.Agreement = float64(len(winner)) / float64(len(votes))
	if decision.Agreement < thresholds.MinAgreement {
		decision.Reason = fmt.Sprintf("agreement %.2f below threshold %.2f (largest group %d of %d identified tracks)",
			decision.Agreement, thresholds.MinAgreement, len(winner), len(votes))
		return decision
	}

	identity := &album.Identity{
		Artist: winner[0].Artist,
		Album:  winner[0].Album,
		Year:   majorityField(winner, func(c album.Candidate) string { return c.Year }),
		// AcoustID responses carry no genre; leaving it empty is deliberate.
		Genre: "",
	}

	for _, ballot := range ballots {
		identity.Tracks = append(identity.Tracks, trackIdentity(ballot, winnerKey))
	}

	decision.Outcome = Accept
	decision.Identity = identity
	return decision
}

// trackIdentity picks the track's title and number from its own best
// candidate within the winning group. Tracks without a winning-group
// candidate keep an empty title; nothing is fabricated here.
func trackIdentity(ballot Ballot, winnerKey string) album.TrackIdentity {
	identity := album.TrackIdentity{
		Path:    ballot.Track.Path,
		TrackNo: ballot.Track.Ordinal,
	}

	var best album.Candidate
	found := false
	for _, cand := range ballot.Candidates {
		if cand.ReleaseKey() != winnerKey {
			continue
		}
		if !found || cand.Score > best.Score {
			best = cand
			found = true
		}
	}
	if !found {
		return identity
	}

	identity.Identified = true
	identity.Title = best.Title
	identity.Score = best.Score
	if best.TrackNo > 0 {
		identity.TrackNo = best.TrackNo
	}
	return identity
}

// pickWinningGroup returns the key of the largest group; ties break by
// highest cumulative score, then lexicographically smallest key.
func pickWinningGroup(groups map[string][]album.Candidate) string {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := groups[keys[i]], groups[keys[j]]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		scoreA, scoreB := cumulativeScore(a), cumulativeScore(b)
		if scoreA != scoreB {
			return scoreA > scoreB
		}
		return keys[i] < keys[j]
	})
	return keys[0]
}

func cumulativeScore(candidates []album.Candidate) float64 {
	var total float64
	for _, cand := range candidates {
		total += cand.Score
	}
	return total
}

// majorityField votes a single metadata field across the winning group.
// Empty values abstain; ties break by the voters' cumulative score, then by
// the smaller value.
func majorityField(group []album.Candidate, field func(album.Candidate) string) string {
	counts := make(map[string]int)
	scores := make(map[string]float64)
	for _, cand := range group {
		value := field(cand)
		if value == "" {
			continue
		}
		counts[value]++
		scores[value] += cand.Score
	}
	if len(counts) == 0 {
		return ""
	}

	values := make([]string, 0, len(counts))
	for value := range counts {
		values = append(values, value)
	}
	sort.Slice(values, func(i, j int) bool {
		if counts[values[i]] != counts[values[j]] {
			return counts[values[i]] > counts[values[j]]
		}
		if scores[values[i]] != scores[values[j]] {
			return scores[values[i]] > scores[values[j]]
		}
		return values[i] < values[j]
	})
	return values[0]
}
