package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/radio4000/r4fuse/internal/catalog"
	"github.com/radio4000/r4fuse/internal/rdate"
	"github.com/radio4000/r4fuse/internal/sanitize"
)

// Content returns the synthesized byte content for a classified file node.
// storageBaseURL is the catalog's public storage origin, used only to
// resolve image.url for channels whose image field is a bare storage key
// rather than a full URL. Directory and control node kinds are not handled
// here; callers must route them elsewhere (control writes go through the
// queue, not this package).
func Content(ctx context.Context, cat catalog.Catalog, storageBaseURL string, n Node) ([]byte, error) {
	switch n.Kind {
	case KindHelp:
		return helpText(), nil

	case KindChannelAbout:
		ch, err := cat.Channel(ctx, n.Slug)
		if err != nil {
			return nil, wrapLookup(err)
		}
		tracks, err := cat.Tracks(ctx, n.Slug)
		if err != nil {
			return nil, catalogErr(err)
		}
		return channelAboutText(ch, tracks), nil

	case KindChannelImage:
		ch, err := cat.Channel(ctx, n.Slug)
		if err != nil {
			return nil, wrapLookup(err)
		}
		return []byte(imageURLText(ch, storageBaseURL)), nil

	case KindChannelM3U:
		tracks, err := cat.Tracks(ctx, n.Slug)
		if err != nil {
			return nil, catalogErr(err)
		}
		return m3uText(tracks), nil

	case KindTracksJSON:
		tracks, err := cat.Tracks(ctx, n.Slug)
		if err != nil {
			return nil, catalogErr(err)
		}
		return tracksJSONText(tracks)

	case KindTrackText:
		t, err := ResolveTrack(ctx, cat, n.Slug, n.Stem)
		if err != nil {
			return nil, err
		}
		return trackText(t), nil

	case KindTagTrackText:
		tracks, err := cat.Tracks(ctx, n.Slug)
		if err != nil {
			return nil, catalogErr(err)
		}
		for _, t := range tracksWithTag(tracks, n.Tag) {
			if sanitizedStem(t) == n.Stem {
				return trackText(t), nil
			}
		}
		return nil, notFound()

	default:
		return nil, notFound()
	}
}

func helpText() []byte {
	return []byte(`r4fuse - a filesystem view of radio4000 channels

/HELP.txt               this file
/control                write a channel slug to enqueue it for download
/channels/               every known channel, by slug
/favorites/              channels listed in favorites.txt
/downloads/              channels listed in downloads.txt

Inside a channel directory:
  ABOUT.txt              channel name and description
  image.url              channel artwork URL
  tracks.m3u             playlist, catalog order
  tracks/                one .txt file per track, plus tracks.json
  tags/                  one directory per derived tag, same tracks linked by tag
`)
}

// channelAboutText renders the ABOUT.txt template from spec.md §4.3: name,
// an underline rule matching the name's length, description (or a default
// phrase), a stats block, the website URL if present, and a quick-access
// section pointing at the channel's other projected paths.
func channelAboutText(ch catalog.Channel, tracks []catalog.Track) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", ch.Name)
	b.WriteString(strings.Repeat("=", len([]rune(ch.Name))))
	b.WriteString("\n\n")

	description := ch.Description
	if description == "" {
		description = "No description available."
	}
	fmt.Fprintf(&b, "%s\n\n", description)

	b.WriteString("Stats\n")
	fmt.Fprintf(&b, "  Tracks: %d\n", len(tracks))
	if created, ok := localizedDate(ch.CreatedAt); ok {
		fmt.Fprintf(&b, "  Created: %s\n", created)
	}
	b.WriteString("\n")

	if ch.WebsiteURL != "" {
		fmt.Fprintf(&b, "Website: %s\n\n", ch.WebsiteURL)
	}

	b.WriteString("Quick access\n")
	fmt.Fprintf(&b, "  image.url    channel artwork URL\n")
	fmt.Fprintf(&b, "  tracks.m3u   playlist, catalog order\n")
	fmt.Fprintf(&b, "  tracks/      one .txt file per track\n")
	fmt.Fprintf(&b, "  tags/        tracks grouped by derived tag\n")

	return []byte(b.String())
}

// imageURLText implements spec.md §4.3's image.url contract: a full URL
// passes through untouched; a bare storage key is resolved against the
// catalog's public storage origin; an empty image field yields an empty
// file.
func imageURLText(ch catalog.Channel, storageBaseURL string) string {
	if ch.Image == "" {
		return ""
	}
	if strings.HasPrefix(ch.Image, "http") {
		return ch.Image + "\n"
	}
	base := strings.TrimSuffix(storageBaseURL, "/")
	return base + "/storage/v1/object/public/channels/" + ch.Image + "\n"
}

func m3uText(tracks []catalog.Track) []byte {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, t := range tracks {
		fmt.Fprintf(&b, "#EXTINF:-1,%s\n%s\n", titleOrUntitled(t.Title), t.URL)
	}
	return []byte(b.String())
}

// trackJSON is the wire shape for one entry in tracks.json: the catalog
// fields a consumer actually needs, with tags resolved to the effective
// (derived-or-untagged) set rather than the raw explicit list.
type trackJSON struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func tracksJSONText(tracks []catalog.Track) ([]byte, error) {
	reversedTracks := reversed(tracks)
	out := make([]trackJSON, 0, len(reversedTracks))
	for _, t := range reversedTracks {
		out = append(out, trackJSON{
			ID:          t.ID,
			Title:       titleOrUntitled(t.Title),
			URL:         t.URL,
			Description: t.Description,
			Tags:        sanitize.EffectiveTags(t.Description, t.Tags),
			CreatedAt:   t.CreatedAt,
			UpdatedAt:   t.UpdatedAt,
		})
	}
	body, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(body, '\n'), nil
}

// trackText renders the track text format from spec.md §4.3: title and URL,
// then an optional description block, an optional Discogs line, optional
// Added/Updated lines, and a trailing Tags line drawn from the derived
// (not effective/untagged) tag set.
func trackText(t catalog.Track) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", titleOrUntitled(t.Title))
	fmt.Fprintf(&b, "URL: %s\n", t.URL)

	if t.Description != "" {
		b.WriteString("\nDescription:\n")
		fmt.Fprintf(&b, "%s\n", t.Description)
	}

	if t.DiscogsURL != "" {
		b.WriteString("\n")
		fmt.Fprintf(&b, "Discogs: %s\n", t.DiscogsURL)
	}

	created, createdOK := localizedDate(t.CreatedAt)
	updated, updatedOK := localizedDate(t.UpdatedAt)
	if createdOK || updatedOK {
		b.WriteString("\n")
		if createdOK {
			fmt.Fprintf(&b, "Added: %s\n", created)
		}
		if updatedOK {
			fmt.Fprintf(&b, "Updated: %s\n", updated)
		}
	}

	tags := sanitize.DeriveTags(t.Description, t.Tags)
	if len(tags) > 0 {
		b.WriteString("\n")
		hashed := make([]string, len(tags))
		for i, tag := range tags {
			hashed[i] = "#" + tag
		}
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(hashed, " "))
	}

	return []byte(b.String())
}

func localizedDate(s string) (string, bool) {
	t, ok := rdate.TryParseDate(s)
	if !ok {
		return "", false
	}
	return t.Format("1/2/2006"), true
}

func sanitizedStem(t catalog.Track) string {
	return sanitize.Sanitize(titleOrUntitled(t.Title))
}
