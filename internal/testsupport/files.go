package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WriteTrackSet creates count empty FLAC-named files in dir, using the
// "NN - Track.flac" naming the rip pipeline produces for unknown albums.
func WriteTrackSet(t testing.TB, dir string, count int) []string {
	t.Helper()

	paths := make([]string, 0, count)
	for n := 1; n <= count; n++ {
		path := filepath.Join(dir, fmt.Sprintf("%02d - Track.flac", n))
		WriteFile(t, path, 4)
		paths = append(paths, path)
	}
	return paths
}
