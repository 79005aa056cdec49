package organizer

import (
	"fmt"
	"sort"

	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"
)

// Tagger writes embedded metadata into an audio file.
type Tagger interface {
	WriteTags(path string, tags map[string]string) error
}

// flacTagger rewrites the vorbis comment block of a FLAC file, replacing
// whatever the ripper left behind.
type flacTagger struct{}

func (flacTagger) WriteTags(path string, tags map[string]string) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse flac %s: %w", path, err)
	}

	var kept []*flac.MetaDataBlock
	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment {
			kept = append(kept, block)
		}
	}
	f.Meta = kept

	comment := flacvorbis.New()
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if tags[key] == "" {
			continue
		}
		if err := comment.Add(key, tags[key]); err != nil {
			return fmt.Errorf("add tag %s: %w", key, err)
		}
	}

	block := comment.Marshal()
	f.Meta = append(f.Meta, &block)

	if err := f.Save(path); err != nil {
		return fmt.Errorf("save flac %s: %w", path, err)
	}
	return nil
}
