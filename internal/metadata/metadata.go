// Package metadata implements per-track post-processing (spec.md §4.10):
// ID3 tag writing, timestamp stamping, and tag-directory symlinking.
// Failures in any step are logged, never fatal to the download job.
package metadata

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/oshokin/id3v2/v2"

	"github.com/radio4000/r4fuse/internal/catalog"
	"github.com/radio4000/r4fuse/internal/rdate"
	"github.com/radio4000/r4fuse/internal/sanitize"
)

// artistTitle splits a track title on the first " - " into (artist, title),
// falling back to ("Unknown Artist", title) when there is no separator.
func artistTitle(title string) (artist, remainder string) {
	if before, after, ok := strings.Cut(title, " - "); ok && strings.TrimSpace(before) != "" {
		return strings.TrimSpace(before), strings.TrimSpace(after)
	}
	return "Unknown Artist", title
}

// WriteID3 writes title/artist/comment/track-number/year and the
// DISCOGS_URL/SOURCE_URL user text frames into an MP3 file at path. Only
// .mp3 is supported; other extensions are a silent no-op (ID3v2 doesn't
// apply to opus/m4a/webm containers).
func WriteID3(path string, t catalog.Track, index int) {
	if !strings.EqualFold(filepath.Ext(path), ".mp3") {
		return
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: false})
	if err != nil {
		log.Printf("metadata: open %s: %v", path, err)
		return
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	artist, title := artistTitle(t.Title)
	if title == "" {
		title = t.Title
	}
	tag.SetArtist(artist)
	tag.SetTitle(title)
	tag.AddTextFrame(tag.CommonID("Track number/Position in set"), tag.DefaultEncoding(), strconv.Itoa(index+1))

	if created, ok := rdate.TryParseDate(t.CreatedAt); ok {
		tag.SetYear(created.Format("2006"))
	}

	if t.Description != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    id3v2.EnglishISO6392Code,
			Description: "",
			Text:        t.Description,
		})
	}

	if t.DiscogsURL != "" {
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: "DISCOGS_URL",
			Value:       t.DiscogsURL,
		})
	}
	tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
		Encoding:    id3v2.EncodingUTF8,
		Description: "SOURCE_URL",
		Value:       t.URL,
	})

	if err := tag.Save(); err != nil {
		log.Printf("metadata: save %s: %v", path, err)
	}
}

// StampTimes sets path's mtime/atime from t (mtime=created_at, atime=updated_at,
// both falling back to wall clock when absent/invalid). A missing file is
// tolerated and logged, not treated as an error: the downloader may still be
// finalizing the write when post-processing runs.
func StampTimes(path string, t catalog.Track) {
	mtime, ok := rdate.TryParseDate(t.CreatedAt)
	if !ok {
		mtime = rdate.Now()
	}
	atime, ok := rdate.TryParseDate(t.UpdatedAt)
	if !ok {
		atime = rdate.Now()
	}
	if err := os.Chtimes(path, atime, mtime); err != nil {
		log.Printf("metadata: chtimes %s: %v", path, err)
	}
}

// LinkTags creates, under tagsRoot/{sanitize(tag)}/, a relative symlink
// pointing back at trackPath for every tag in the track's effective
// (derived-or-untagged) tag set. Any pre-existing link with the same name is
// removed first. Failures are logged, never returned.
func LinkTags(tagsRoot, trackPath string, t catalog.Track) {
	tags := sanitize.EffectiveTags(t.Description, t.Tags)
	filename := filepath.Base(trackPath)

	for _, tag := range tags {
		dir := filepath.Join(tagsRoot, sanitize.Sanitize(tag))
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Printf("metadata: mkdir %s: %v", dir, err)
			continue
		}

		linkPath := filepath.Join(dir, filename)
		target, err := filepath.Rel(dir, trackPath)
		if err != nil {
			target = trackPath
		}

		if _, err := os.Lstat(linkPath); err == nil {
			if err := os.Remove(linkPath); err != nil {
				log.Printf("metadata: remove stale link %s: %v", linkPath, err)
				continue
			}
		}
		if err := os.Symlink(target, linkPath); err != nil {
			log.Printf("metadata: symlink %s -> %s: %v", linkPath, target, err)
		}
	}
}
