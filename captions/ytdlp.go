package captions

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"os/exec"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Resolver looks up the caption tracks available for a video.
type Resolver interface {
	Resolve(ctx context.Context, videoID, language string) (*VideoInfo, error)
}

const watchURL = "https://www.youtube.com/watch?v="

// YtDlpResolver reads caption metadata from the yt-dlp executable.
type YtDlpResolver struct {
	Path        string
	MaxAttempts int
	ExecFunc    func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewYtDlpResolver(path string) *YtDlpResolver {
	if path == "" {
		path = "yt-dlp"
	}
	return &YtDlpResolver{
		Path:        path,
		MaxAttempts: 3,
		ExecFunc:    execCommand,
	}
}

type ytDlpFormat struct {
	URL  string `json:"url"`
	Ext  string `json:"ext"`
	Name string `json:"name"`
}

type ytDlpInfo struct {
	ID                string                   `json:"id"`
	Title             string                   `json:"title"`
	Subtitles         map[string][]ytDlpFormat `json:"subtitles"`
	AutomaticCaptions map[string][]ytDlpFormat `json:"automatic_captions"`
}

func (r *YtDlpResolver) Resolve(ctx context.Context, videoID, language string) (*VideoInfo, error) {
	args := []string{
		"--dump-single-json",
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", language,
		"--no-warnings",
		"--no-playlist",
		watchURL + videoID,
	}

	output, err := r.runWithRetry(ctx, videoID, args)
	if err != nil {
		return nil, err
	}

	var raw ytDlpInfo
	if err := json.Unmarshal(output, &raw); err != nil {
		return nil, errors.Wrapf(ErrMetadata, "decoding yt-dlp output: %v", err)
	}

	info := &VideoInfo{
		ID:                raw.ID,
		Title:             raw.Title,
		Subtitles:         map[string][]Track{},
		AutomaticCaptions: map[string][]Track{},
	}
	if formats, ok := raw.Subtitles[language]; ok {
		info.Subtitles[language] = toTracks(language, OriginManual, formats)
	}
	if formats, ok := raw.AutomaticCaptions[language]; ok {
		info.AutomaticCaptions[language] = toTracks(language, OriginAuto, formats)
	}
	return info, nil
}

func toTracks(language string, origin Origin, formats []ytDlpFormat) []Track {
	tracks := make([]Track, 0, len(formats))
	for _, f := range formats {
		if f.URL == "" {
			continue
		}
		tracks = append(tracks, Track{Language: language, Origin: origin, URL: f.URL, Ext: f.Ext})
	}
	return tracks
}

func (r *YtDlpResolver) runWithRetry(ctx context.Context, videoID string, args []string) ([]byte, error) {
	const (
		initialBackoff = 2 * time.Second
		maxBackoff     = 30 * time.Second
		backoffFactor  = 2.0
	)

	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		output []byte
		err    error
	)

	for attempt := 1; attempt <= attempts; attempt++ {
		output, err = r.ExecFunc(ctx, r.Path, args...)
		if err == nil {
			return output, nil
		}

		logrus.WithFields(logrus.Fields{
			"attempt":     attempt,
			"maxAttempts": attempts,
			"video_id":    videoID,
			"error":       err,
		}).Warn("yt-dlp metadata lookup failed")

		if attempt == attempts {
			break
		}

		backoff := time.Duration(float64(initialBackoff) * math.Pow(backoffFactor, float64(attempt-1)))
		if backoff > maxBackoff {
			backoff = maxBackoff
		}

		select {
		case <-time.After(backoff + time.Duration(rand.Int63n(int64(backoff/2)))):
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "metadata lookup cancelled")
		}
	}

	return nil, errors.Wrapf(ErrMetadata, "yt-dlp failed after %d attempts: %v", attempts, err)
}

func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, errors.Errorf("%v: %s", err, exitErr.Stderr)
		}
		return nil, err
	}
	return output, nil
}
