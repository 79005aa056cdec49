package album

// Track is one audio file inside an album folder, read-only until
// reorganization.
type Track struct {
	// Path is the absolute location of the audio file.
	Path string
	// Ordinal is the 1-based position within the folder's sorted listing.
	Ordinal int
	// FallbackTitle is derived from the filename and used when the winning
	// release group has no title for this track.
	FallbackTitle string
}

// Candidate is one fingerprint match for a single track.
type Candidate struct {
	RecordingID string
	ReleaseID   string
	Artist      string
	Album       string
	Title       string
	TrackNo     int
	DiscNo      int
	Year        string
	// Score is the match confidence reported by the fingerprint service,
	// clamped to [0, 1].
	Score float64
}

// ReleaseKey identifies the (artist, release) group a candidate votes for.
func (c Candidate) ReleaseKey() string {
	return c.Artist + "\x00" + c.Album
}

// TrackIdentity is the accepted metadata for one track of a decided album.
type TrackIdentity struct {
	Path string `json:"path"`
	// Title is the accepted track title. Never fabricated: it comes from the
	// track's own best candidate within the winning group, or from the
	// filename-derived fallback.
	Title string `json:"title"`
	// TrackNo is the canonical track number (folder ordinal when the winning
	// candidate does not report one).
	TrackNo int `json:"track_no"`
	// Identified reports whether the title came from a fingerprint match.
	Identified bool `json:"identified"`
	// Score is the best per-track score that crossed the confidence
	// threshold; zero for unidentified tracks.
	Score float64 `json:"score,omitempty"`
}

// Identity is the accepted album-level metadata of an ACCEPT decision.
type Identity struct {
	Artist string          `json:"artist"`
	Album  string          `json:"album"`
	Year   string          `json:"year,omitempty"`
	Genre  string          `json:"genre,omitempty"`
	Tracks []TrackIdentity `json:"tracks"`
}
