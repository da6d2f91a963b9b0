// Package session holds the state of the single active chat: which video is
// loaded, its transcript, the answerer built over it and the history.
package session

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-chat/db"
	"github.com/nijaru/yt-chat/errors"
	"github.com/nijaru/yt-chat/utils"
	"github.com/nijaru/yt-chat/validation"
)

const (
	noTranscriptMessage = "Could not fetch transcript. Please check the video ID and try again."
	previewLength       = 500
	timestampLayout     = "15:04:05"
)

var (
	ErrNoTranscript = stderrors.New("transcript unavailable")
	ErrNotLoaded    = stderrors.New("no video loaded")
)

type Fetcher interface {
	Fetch(ctx context.Context, videoID, language string) (string, error)
}

type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Builder constructs an Answerer over a transcript.
type Builder func(ctx context.Context, transcript string) (Answerer, error)

type Store interface {
	GetTranscript(ctx context.Context, videoID, language string) (string, bool, error)
	SetTranscript(ctx context.Context, videoID, language, text string) error
	AddExchange(ctx context.Context, ex db.Exchange) (int64, error)
	ListExchanges(ctx context.Context) ([]db.Exchange, error)
	CountExchanges(ctx context.Context) (int, error)
	ClearExchanges(ctx context.Context) error
}

type Exchange struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp string    `json:"timestamp"`
	AskedAt   time.Time `json:"-"`
}

type Snapshot struct {
	Loaded       bool   `json:"loaded"`
	VideoID      string `json:"video_id,omitempty"`
	Language     string `json:"language,omitempty"`
	LanguageName string `json:"language_name,omitempty"`
	Preview      string `json:"preview,omitempty"`
	HistoryCount int    `json:"history_count"`
}

type Session struct {
	mu sync.Mutex

	fetcher Fetcher
	build   Builder
	store   Store
	now     func() time.Time

	videoID    string
	language   Language
	transcript string
	answerer   Answerer
}

func New(fetcher Fetcher, build Builder, store Store) *Session {
	return &Session{
		fetcher: fetcher,
		build:   build,
		store:   store,
		now:     time.Now,
	}
}

// Load fetches the transcript for a video, builds a new answerer and resets
// the history. On any failure the previous session stays as it was.
func (s *Session) Load(ctx context.Context, videoInput, languageCode string) (Snapshot, error) {
	const op = "Session.Load"

	lang, err := LookupLanguage(languageCode)
	if err != nil {
		return Snapshot{}, errors.InvalidInput(op, err, err.Error())
	}
	videoID, err := validation.ValidateVideoID(videoInput)
	if err != nil {
		return Snapshot{}, errors.InvalidInput(op, err, err.Error())
	}

	log := logrus.WithFields(logrus.Fields{
		"video_id": videoID,
		"language": lang.Code,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	transcript, err := s.transcriptFor(ctx, videoID, lang.Code, log)
	if err != nil {
		return Snapshot{}, err
	}

	answerer, err := s.build(ctx, transcript)
	if err != nil {
		log.WithError(err).Error("Failed to build answering pipeline")
		return Snapshot{}, errors.Unavailable(op, err, "Failed to build chatbot: "+err.Error())
	}

	if err := s.store.ClearExchanges(ctx); err != nil {
		return Snapshot{}, err
	}

	s.videoID = videoID
	s.language = lang
	s.transcript = transcript
	s.answerer = answerer

	log.WithField("transcript_length", len(transcript)).Info("Video loaded")
	return s.snapshotLocked(ctx)
}

func (s *Session) transcriptFor(ctx context.Context, videoID, language string, log *logrus.Entry) (string, error) {
	const op = "Session.Load"

	cached, found, err := s.store.GetTranscript(ctx, videoID, language)
	if err != nil {
		log.WithError(err).Warn("Transcript cache lookup failed")
	} else if found {
		log.Debug("Transcript found in cache")
		return cached, nil
	}

	transcript, err := s.fetcher.Fetch(ctx, videoID, language)
	if err != nil {
		log.WithError(err).Error("Failed to fetch transcript")
		return "", errors.NotFound(op, ErrNoTranscript, noTranscriptMessage)
	}
	if strings.TrimSpace(transcript) == "" {
		log.Warn("Fetched transcript is empty")
		return "", errors.NotFound(op, ErrNoTranscript, noTranscriptMessage)
	}

	if err := s.store.SetTranscript(ctx, videoID, language, transcript); err != nil {
		log.WithError(err).Warn("Failed to cache transcript")
	}
	return transcript, nil
}

// Ask answers a question about the loaded video and records the exchange.
func (s *Session) Ask(ctx context.Context, question string) (Exchange, error) {
	const op = "Session.Ask"

	question, err := validation.ValidateQuestion(question)
	if err != nil {
		return Exchange{}, errors.InvalidInput(op, err, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.answerer == nil {
		return Exchange{}, errors.Conflict(op, ErrNotLoaded, "Please load a video first.")
	}

	answer, err := s.answerer.Answer(ctx, question)
	if err != nil {
		logrus.WithError(err).WithField("video_id", s.videoID).Error("Failed to generate answer")
		return Exchange{}, errors.Unavailable(op, err, "Failed to generate answer: "+err.Error())
	}

	askedAt := s.now()
	id, err := s.store.AddExchange(ctx, db.Exchange{
		VideoID:  s.videoID,
		Question: question,
		Answer:   answer,
		AskedAt:  askedAt,
	})
	if err != nil {
		return Exchange{}, err
	}

	return Exchange{
		ID:        id,
		Question:  question,
		Answer:    answer,
		Timestamp: askedAt.Format(timestampLayout),
		AskedAt:   askedAt,
	}, nil
}

// History returns the recorded exchanges, newest first.
func (s *Session) History(ctx context.Context) ([]Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.store.ListExchanges(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Exchange, 0, len(rows))
	for _, r := range rows {
		out = append(out, Exchange{
			ID:        r.ID,
			Question:  r.Question,
			Answer:    r.Answer,
			Timestamp: r.AskedAt.Format(timestampLayout),
			AskedAt:   r.AskedAt,
		})
	}
	return out, nil
}

// Clear drops the chat history but keeps the loaded video.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.ClearExchanges(ctx)
}

func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked(ctx)
}

func (s *Session) snapshotLocked(ctx context.Context) (Snapshot, error) {
	count, err := s.store.CountExchanges(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if s.answerer == nil {
		return Snapshot{HistoryCount: count}, nil
	}
	return Snapshot{
		Loaded:       true,
		VideoID:      s.videoID,
		Language:     s.language.Code,
		LanguageName: s.language.Name,
		Preview:      utils.Preview(s.transcript, previewLength),
		HistoryCount: count,
	}, nil
}
