package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nijaru/yt-chat/db"
	"github.com/nijaru/yt-chat/errors"
)

type fakeFetcher struct {
	transcripts map[string]string
	err         error
	calls       int
}

func (f *fakeFetcher) Fetch(ctx context.Context, videoID, language string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	text, ok := f.transcripts[videoID+"/"+language]
	if !ok {
		return "", fmt.Errorf("no captions available for language")
	}
	return text, nil
}

type echoAnswerer struct {
	transcript string
	err        error
}

func (a *echoAnswerer) Answer(ctx context.Context, question string) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	return fmt.Sprintf("answer about %q from %d chars", question, len(a.transcript)), nil
}

func echoBuilder(ctx context.Context, transcript string) (Answerer, error) {
	return &echoAnswerer{transcript: transcript}, nil
}

func newSession(t *testing.T, fetcher Fetcher, build Builder) *Session {
	t.Helper()
	store, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s := New(fetcher, build, store)
	clock := time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

const videoA = "aaaaaaaaaaa"
const videoB = "bbbbbbbbbbb"

func testFetcher() *fakeFetcher {
	return &fakeFetcher{transcripts: map[string]string{
		videoA + "/en": strings.Repeat("x", 600),
		videoB + "/hi": "namaste duniya",
	}}
}

func TestLanguages(t *testing.T) {
	langs := Languages()
	require.Len(t, langs, 12)
	assert.Equal(t, Language{"en", "English"}, langs[0])
	assert.Equal(t, Language{"ru", "Russian"}, langs[11])

	lang, err := LookupLanguage("ja")
	require.NoError(t, err)
	assert.Equal(t, "Japanese", lang.Name)

	_, err = LookupLanguage("en-US")
	assert.Error(t, err)
}

func TestLoadAndSnapshot(t *testing.T) {
	s := newSession(t, testFetcher(), echoBuilder)

	snap, err := s.Load(context.Background(), "https://youtu.be/"+videoA, "en")
	require.NoError(t, err)

	assert.True(t, snap.Loaded)
	assert.Equal(t, videoA, snap.VideoID)
	assert.Equal(t, "English", snap.LanguageName)
	assert.Equal(t, strings.Repeat("x", 500)+"...", snap.Preview)
	assert.Zero(t, snap.HistoryCount)
}

func TestLoadUsesTranscriptCache(t *testing.T) {
	fetcher := testFetcher()
	s := newSession(t, fetcher, echoBuilder)

	_, err := s.Load(context.Background(), videoA, "en")
	require.NoError(t, err)
	_, err = s.Load(context.Background(), videoA, "en")
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.calls)
}

func TestLoadFetchFailureKeepsPreviousSession(t *testing.T) {
	fetcher := testFetcher()
	s := newSession(t, fetcher, echoBuilder)

	_, err := s.Load(context.Background(), videoA, "en")
	require.NoError(t, err)
	_, err = s.Ask(context.Background(), "what happens?")
	require.NoError(t, err)

	_, err = s.Load(context.Background(), videoA, "fr")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoTranscript)
	assert.Equal(t, http.StatusNotFound, errors.HTTPStatus(err))

	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, noTranscriptMessage, appErr.Message)

	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "en", snap.Language)
	assert.Equal(t, 1, snap.HistoryCount)
}

func TestLoadEmptyTranscript(t *testing.T) {
	fetcher := &fakeFetcher{transcripts: map[string]string{videoA + "/en": "   "}}
	s := newSession(t, fetcher, echoBuilder)

	_, err := s.Load(context.Background(), videoA, "en")
	assert.ErrorIs(t, err, ErrNoTranscript)
}

func TestLoadBuildFailure(t *testing.T) {
	s := newSession(t, testFetcher(), func(ctx context.Context, transcript string) (Answerer, error) {
		return nil, fmt.Errorf("pipeline build failed: GROQ_API_KEY is not set")
	})

	_, err := s.Load(context.Background(), videoA, "en")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, errors.HTTPStatus(err))
	assert.Contains(t, err.Error(), "GROQ_API_KEY")

	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.Loaded)
}

func TestLoadValidation(t *testing.T) {
	s := newSession(t, testFetcher(), echoBuilder)

	_, err := s.Load(context.Background(), videoA, "xx")
	assert.Equal(t, http.StatusBadRequest, errors.HTTPStatus(err))

	_, err = s.Load(context.Background(), "not a video", "en")
	assert.Equal(t, http.StatusBadRequest, errors.HTTPStatus(err))
}

func TestAskBeforeLoad(t *testing.T) {
	s := newSession(t, testFetcher(), echoBuilder)

	_, err := s.Ask(context.Background(), "anything?")
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.Equal(t, http.StatusConflict, errors.HTTPStatus(err))
}

func TestAskRecordsHistoryNewestFirst(t *testing.T) {
	s := newSession(t, testFetcher(), echoBuilder)
	_, err := s.Load(context.Background(), videoA, "en")
	require.NoError(t, err)

	first, err := s.Ask(context.Background(), "  first question  ")
	require.NoError(t, err)
	assert.Equal(t, "first question", first.Question)
	assert.Equal(t, "09:30:01", first.Timestamp)

	_, err = s.Ask(context.Background(), "second question")
	require.NoError(t, err)

	history, err := s.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "second question", history[0].Question)
	assert.Equal(t, "09:30:02", history[0].Timestamp)
	assert.Equal(t, "first question", history[1].Question)
}

func TestAskBlankQuestion(t *testing.T) {
	s := newSession(t, testFetcher(), echoBuilder)
	_, err := s.Load(context.Background(), videoA, "en")
	require.NoError(t, err)

	_, err = s.Ask(context.Background(), "   ")
	assert.Equal(t, http.StatusBadRequest, errors.HTTPStatus(err))
}

func TestAskGenerationFailure(t *testing.T) {
	s := newSession(t, testFetcher(), func(ctx context.Context, transcript string) (Answerer, error) {
		return &echoAnswerer{err: fmt.Errorf("generation failed: rate limited")}, nil
	})
	_, err := s.Load(context.Background(), videoA, "en")
	require.NoError(t, err)

	_, err = s.Ask(context.Background(), "why?")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, errors.HTTPStatus(err))

	history, err := s.History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestClearAndReloadResetHistory(t *testing.T) {
	s := newSession(t, testFetcher(), echoBuilder)
	ctx := context.Background()

	_, err := s.Load(ctx, videoA, "en")
	require.NoError(t, err)
	_, err = s.Ask(ctx, "one?")
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx))
	history, err := s.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Loaded)

	_, err = s.Ask(ctx, "two?")
	require.NoError(t, err)

	snap, err = s.Load(ctx, videoB, "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hindi", snap.LanguageName)
	assert.Equal(t, "namaste duniya", snap.Preview)
	assert.Zero(t, snap.HistoryCount)
}
