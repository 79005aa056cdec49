package album

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestListUnknownAlbums(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Unknown Album 2", "Unknown Album 1"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	writeFiles(t, dir, "stray.txt")

	folders, err := ListUnknownAlbums(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(folders) != 2 {
		t.Fatalf("expected 2 folders, got %v", folders)
	}
	if filepath.Base(folders[0]) != "Unknown Album 1" {
		t.Fatalf("expected sorted order, got %v", folders)
	}
}

func TestListUnknownAlbumsMissingDir(t *testing.T) {
	folders, err := ListUnknownAlbums(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("missing directory must not error: %v", err)
	}
	if folders != nil {
		t.Fatalf("expected no pending work, got %v", folders)
	}
}

func TestLoadTracks(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"02 - second_song.flac",
		"01 - first_song.flac",
		"cover.jpg",
		"notes.txt",
	)

	tracks, err := LoadTracks(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}
	if tracks[0].Ordinal != 1 || tracks[1].Ordinal != 2 {
		t.Fatalf("ordinals wrong: %+v", tracks)
	}
	if tracks[0].FallbackTitle != "First Song" {
		t.Fatalf("fallback title = %q", tracks[0].FallbackTitle)
	}
	if tracks[1].FallbackTitle != "Second Song" {
		t.Fatalf("fallback title = %q", tracks[1].FallbackTitle)
	}
}
