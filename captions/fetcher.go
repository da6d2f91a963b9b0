package captions

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Fetcher turns a video id and language into a flat transcript.
type Fetcher struct {
	Resolver Resolver
	Client   *http.Client
	// Limiter paces playlist segment downloads. Nil means no pacing.
	Limiter *rate.Limiter
}

// NewFetcher builds a Fetcher. A zero segmentInterval leaves segment
// downloads unpaced.
func NewFetcher(resolver Resolver, client *http.Client, segmentInterval time.Duration) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &Fetcher{Resolver: resolver, Client: client}
	if segmentInterval > 0 {
		f.Limiter = rate.NewLimiter(rate.Every(segmentInterval), 1)
	}
	return f
}

// Fetch resolves the tracks for videoID, downloads the preferred one for
// language and returns it as plain text.
func (f *Fetcher) Fetch(ctx context.Context, videoID, language string) (string, error) {
	log := logrus.WithFields(logrus.Fields{
		"video_id": videoID,
		"language": language,
	})

	info, err := f.Resolver.Resolve(ctx, videoID, language)
	if err != nil {
		log.WithError(err).Error("Failed to resolve caption tracks")
		return "", err
	}

	track, err := SelectTrack(info, language)
	if err != nil {
		log.WithError(err).Warn("No caption track for language")
		return "", err
	}
	log = log.WithField("origin", track.Origin.String())

	body, contentType, err := f.download(ctx, track.URL)
	if err != nil {
		log.WithError(err).Error("Failed to download caption track")
		return "", err
	}

	format := DetectFormat(contentType, track.URL)
	log = log.WithFields(logrus.Fields{
		"format":       format.String(),
		"content_type": contentType,
	})

	var text string
	switch format {
	case FormatStructuredEvents:
		text, err = NormalizeEvents(body)
	case FormatCueText:
		text = NormalizeCues(string(body))
	case FormatPlaylist:
		text, err = f.normalizePlaylist(ctx, string(body), log)
	default:
		log.Warn("Unknown caption format, returning raw body")
		text = string(body)
	}
	if err != nil {
		log.WithError(err).Error("Failed to normalize captions")
		return "", err
	}

	log.WithField("length", len(text)).Info("Captions fetched")
	return text, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", errors.Wrapf(ErrDownload, "building request: %v", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, "", errors.Wrapf(ErrDownload, "%v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", errors.Wrapf(ErrDownload, "status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errors.Wrapf(ErrDownload, "reading body: %v", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// normalizePlaylist downloads every segment of an m3u8 manifest in order and
// joins their spoken lines. Segments that fail to download are skipped.
func (f *Fetcher) normalizePlaylist(ctx context.Context, manifest string, log *logrus.Entry) (string, error) {
	segments := PlaylistSegmentURLs(manifest)

	var lines []string
	for i, segURL := range segments {
		if f.Limiter != nil {
			if err := f.Limiter.Wait(ctx); err != nil {
				return "", errors.Wrap(err, "waiting for segment slot")
			}
		}

		body, _, err := f.download(ctx, segURL)
		if err != nil {
			if ctx.Err() != nil {
				return "", errors.Wrap(ctx.Err(), "playlist fetch cancelled")
			}
			log.WithError(err).WithFields(logrus.Fields{
				"segment": i,
				"url":     segURL,
			}).Warn("Failed to fetch segment, skipping")
			continue
		}
		lines = append(lines, cueLines(string(body))...)
	}

	log.WithField("segments", len(segments)).Debug("Combined playlist segments")
	return strings.Join(lines, " "), nil
}
