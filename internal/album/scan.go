package album

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"stylus/internal/textutil"
)

// numberedPrefix matches rip-pipeline filenames like "03 - Title.flac".
var numberedPrefix = regexp.MustCompile(`^\d{1,3}\s*[-._]\s*`)

// ListUnknownAlbums returns the album folders awaiting identification inside
// the unknown-artist directory, sorted by name. A missing directory means no
// pending work, not an error.
func ListUnknownAlbums(unknownDir string) ([]string, error) {
	entries, err := os.ReadDir(unknownDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read unknown-artist directory: %w", err)
	}

	var folders []string
	for _, entry := range entries {
		if entry.IsDir() {
			folders = append(folders, filepath.Join(unknownDir, entry.Name()))
		}
	}
	sort.Strings(folders)
	return folders, nil
}

// LoadTracks lists the FLAC files of one album folder in sorted order and
// assigns folder ordinals and filename-derived fallback titles.
func LoadTracks(albumDir string) ([]Track, error) {
	entries, err := os.ReadDir(albumDir)
	if err != nil {
		return nil, fmt.Errorf("read album directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".flac") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	tracks := make([]Track, 0, len(names))
	for i, name := range names {
		tracks = append(tracks, Track{
			Path:          filepath.Join(albumDir, name),
			Ordinal:       i + 1,
			FallbackTitle: fallbackTitle(name),
		})
	}
	return tracks, nil
}

func fallbackTitle(fileName string) string {
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	stem = numberedPrefix.ReplaceAllString(stem, "")
	title := textutil.TitleCase(stem)
	if title == "" {
		return stem
	}
	return title
}
