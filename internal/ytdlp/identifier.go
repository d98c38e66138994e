package ytdlp

import "regexp"

// youtubeIDRe matches any of watch?v=, youtu.be/, embed/, v/ followed by an
// 11-character YouTube video ID (spec.md §4.9).
var youtubeIDRe = regexp.MustCompile(`(?:watch\?v=|youtu\.be/|embed/|v/)([A-Za-z0-9_-]{11})`)

// ExtractYouTubeID returns the first 11-character video ID found in url, and
// whether one was found at all.
func ExtractYouTubeID(url string) (string, bool) {
	m := youtubeIDRe.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}
