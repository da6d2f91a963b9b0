// Package captions resolves, downloads and flattens YouTube caption tracks
// into plain transcript text.
package captions

import (
	"github.com/pkg/errors"
)

var (
	ErrCaptionsUnavailable = errors.New("no captions available for language")
	ErrMetadata            = errors.New("caption metadata lookup failed")
	ErrDownload            = errors.New("download error")
	ErrParse               = errors.New("parse error")
)

// Origin tells uploaded captions from speech-recognized ones.
type Origin int

const (
	OriginManual Origin = iota
	OriginAuto
)

func (o Origin) String() string {
	if o == OriginAuto {
		return "auto"
	}
	return "manual"
}

// Track is one downloadable caption file for a language.
type Track struct {
	Language string
	Origin   Origin
	URL      string
	Ext      string
}

// VideoInfo holds the caption tracks a resolver found, keyed by exact
// language code.
type VideoInfo struct {
	ID                string
	Title             string
	Subtitles         map[string][]Track
	AutomaticCaptions map[string][]Track
}

// SelectTrack prefers the first manual track for language and falls back to
// the first automatic one. Language codes must match exactly.
func SelectTrack(info *VideoInfo, language string) (Track, error) {
	if info != nil {
		if tracks := info.Subtitles[language]; len(tracks) > 0 {
			t := tracks[0]
			t.Language, t.Origin = language, OriginManual
			return t, nil
		}
		if tracks := info.AutomaticCaptions[language]; len(tracks) > 0 {
			t := tracks[0]
			t.Language, t.Origin = language, OriginAuto
			return t, nil
		}
	}
	return Track{}, errors.Wrapf(ErrCaptionsUnavailable, "language %q", language)
}
