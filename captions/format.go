package captions

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// Format is the payload shape of a downloaded caption track.
type Format int

const (
	FormatUnknown Format = iota
	FormatStructuredEvents
	FormatCueText
	FormatPlaylist
)

func (f Format) String() string {
	switch f {
	case FormatStructuredEvents:
		return "structured_events"
	case FormatCueText:
		return "cue_text"
	case FormatPlaylist:
		return "playlist"
	default:
		return "unknown"
	}
}

// DetectFormat classifies a caption payload from its Content-Type header and
// source URL. The checks run in a fixed order and the first match wins.
func DetectFormat(contentType, rawURL string) Format {
	ct := strings.ToLower(contentType)

	switch {
	case strings.Contains(ct, "json"):
		return FormatStructuredEvents
	case hasSuffix(rawURL, ".vtt") || strings.Contains(ct, "text/vtt"):
		return FormatCueText
	case strings.Contains(ct, "mpegurl") || hasSuffix(rawURL, ".m3u8"):
		return FormatPlaylist
	default:
		return FormatUnknown
	}
}

func hasSuffix(rawURL, suffix string) bool {
	if strings.HasSuffix(strings.ToLower(rawURL), suffix) {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), suffix)
}

type timedText struct {
	Events []struct {
		Segs []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// NormalizeEvents flattens a JSON timed-text document into the space-joined
// text of its segments, in document order.
func NormalizeEvents(body []byte) (string, error) {
	var doc timedText
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", errors.Wrapf(ErrParse, "timed text: %v", err)
	}

	var parts []string
	for _, ev := range doc.Events {
		for _, seg := range ev.Segs {
			if text := strings.TrimSpace(seg.UTF8); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, " "), nil
}

// NormalizeCues keeps the spoken lines of a WebVTT document and joins them
// with single spaces.
func NormalizeCues(text string) string {
	return strings.Join(cueLines(text), " ")
}

func cueLines(text string) []string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if isCueNoise(line) {
			continue
		}
		kept = append(kept, line)
	}
	return kept
}

func isCueNoise(line string) bool {
	if line == "" || strings.Contains(line, "-->") {
		return true
	}
	lower := strings.ToLower(line)
	return isVTTHeader(lower) ||
		strings.HasPrefix(lower, "kind:") ||
		strings.HasPrefix(lower, "language:")
}

// isVTTHeader matches the header token alone or followed by a space or tab,
// as in "WEBVTT - title".
func isVTTHeader(lower string) bool {
	return lower == "webvtt" ||
		strings.HasPrefix(lower, "webvtt ") ||
		strings.HasPrefix(lower, "webvtt\t")
}

// PlaylistSegmentURLs returns the absolute segment URLs of an m3u8 manifest
// in order. Tag and comment lines are skipped.
func PlaylistSegmentURLs(manifest string) []string {
	var urls []string
	for _, line := range strings.Split(manifest, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "http") {
			urls = append(urls, line)
		}
	}
	return urls
}
