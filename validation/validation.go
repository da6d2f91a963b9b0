package validation

import (
	"net/url"
	"regexp"
	"strings"
)

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ValidateVideoID accepts a bare 11-character video id or a YouTube URL and
// returns the id.
func ValidateVideoID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", invalid("video ID is required")
	}

	if videoIDPattern.MatchString(input) {
		return input, nil
	}

	if !strings.Contains(input, "://") && (strings.Contains(input, "youtube.com/") || strings.Contains(input, "youtu.be/")) {
		input = "https://" + input
	}

	parsedURL, err := url.ParseRequestURI(input)
	if err != nil {
		return "", invalid("invalid video ID or URL")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", invalid("URL must start with http or https")
	}

	host := strings.TrimPrefix(strings.ToLower(parsedURL.Hostname()), "www.")
	var id string
	switch host {
	case "youtu.be":
		id = firstSegment(parsedURL.Path)
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if parsedURL.Path == "/watch" {
			id = parsedURL.Query().Get("v")
			break
		}
		segments := strings.Split(strings.Trim(parsedURL.Path, "/"), "/")
		if len(segments) == 2 {
			switch segments[0] {
			case "shorts", "embed", "live", "v":
				id = segments[1]
			}
		}
	default:
		return "", invalid("URL must be a YouTube video link")
	}

	if !videoIDPattern.MatchString(id) {
		return "", invalid("YouTube URL must contain a valid video ID")
	}
	return id, nil
}

func firstSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.Index(path, "/"); i >= 0 {
		return path[:i]
	}
	return path
}

func ValidateQuestion(question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", invalid("question is required")
	}
	if len(question) > 4000 {
		return "", invalid("question is too long")
	}
	return question, nil
}
