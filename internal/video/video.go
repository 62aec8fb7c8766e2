// Package video recognizes hosted lesson video URLs and derives embed links from them.
package video

import "regexp"

const embedBase = "https://www.youtube.com/embed/"

// idLength is the length of a YouTube video identifier.
const idLength = 11

var (
	hostPattern = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.?be)/.+$`)
	idPattern   = regexp.MustCompile(`^.*(youtu.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)
)

// IsRecognized reports whether rawURL points at a supported video host.
func IsRecognized(rawURL string) bool {
	return hostPattern.MatchString(rawURL)
}

// ID extracts the video identifier from rawURL.
// The second return value is false when no identifier of the expected length can be found.
func ID(rawURL string) (string, bool) {
	m := idPattern.FindStringSubmatch(rawURL)
	if m == nil || len(m[2]) != idLength {
		return "", false
	}
	return m[2], true
}

// EmbedURL returns the embeddable player URL for rawURL.
func EmbedURL(rawURL string) (string, bool) {
	videoID, ok := ID(rawURL)
	if !ok {
		return "", false
	}
	return embedBase + videoID, true
}
