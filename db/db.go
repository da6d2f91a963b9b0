// Package db keeps per-process session data in SQLite: the chat history and
// a cache of fetched transcripts. Tables are recreated on every start.
package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-chat/errors"
)

const schema = `
DROP TABLE IF EXISTS exchanges;
DROP TABLE IF EXISTS transcripts;

CREATE TABLE transcripts (
    video_id TEXT NOT NULL,
    language TEXT NOT NULL,
    text TEXT NOT NULL,
    fetched_at INTEGER NOT NULL,
    PRIMARY KEY (video_id, language)
);

CREATE TABLE exchanges (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    video_id TEXT NOT NULL,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    asked_at INTEGER NOT NULL
);
`

type Exchange struct {
	ID       int64
	VideoID  string
	Question string
	Answer   string
	AskedAt  time.Time
}

type Store struct {
	db *sql.DB
}

// Open connects to dsn and resets the schema. In-memory DSNs are kept alive
// on a single connection that is never recycled.
func Open(dsn string) (*Store, error) {
	const op = "db.Open"

	logrus.WithField("dsn", dsn).Info("Initializing database")

	if !isMemoryDSN(dsn) {
		path := strings.TrimPrefix(strings.SplitN(dsn, "?", 2)[0], "file:")
		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return nil, errors.Internal(op, err, "failed to create database directory")
		}
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Internal(op, err, "failed to open database")
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, errors.Internal(op, err, "failed to create tables")
	}

	return &Store{db: conn}, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetTranscript returns the cached transcript and whether one was found.
func (s *Store) GetTranscript(ctx context.Context, videoID, language string) (string, bool, error) {
	const op = "db.GetTranscript"

	var text string
	err := s.db.QueryRowContext(ctx,
		"SELECT text FROM transcripts WHERE video_id = ? AND language = ?",
		videoID, language,
	).Scan(&text)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, errors.Internal(op, err, "failed to query transcript")
	}
	return text, true, nil
}

func (s *Store) SetTranscript(ctx context.Context, videoID, language, text string) error {
	const op = "db.SetTranscript"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Internal(op, err, "failed to begin transaction")
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transcripts (video_id, language, text, fetched_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(video_id, language) DO UPDATE SET text = excluded.text, fetched_at = excluded.fetched_at`)
	if err != nil {
		tx.Rollback()
		return errors.Internal(op, err, "failed to prepare statement")
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, videoID, language, text, time.Now().UnixNano()); err != nil {
		tx.Rollback()
		return errors.Internal(op, err, "failed to save transcript")
	}

	if err := tx.Commit(); err != nil {
		return errors.Internal(op, err, "failed to commit transaction")
	}
	return nil
}

func (s *Store) AddExchange(ctx context.Context, ex Exchange) (int64, error) {
	const op = "db.AddExchange"

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO exchanges (video_id, question, answer, asked_at) VALUES (?, ?, ?, ?)",
		ex.VideoID, ex.Question, ex.Answer, ex.AskedAt.UnixNano(),
	)
	if err != nil {
		return 0, errors.Internal(op, err, "failed to save exchange")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Internal(op, err, "failed to read exchange id")
	}
	return id, nil
}

// ListExchanges returns the chat history, newest first.
func (s *Store) ListExchanges(ctx context.Context) ([]Exchange, error) {
	const op = "db.ListExchanges"

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, video_id, question, answer, asked_at FROM exchanges ORDER BY id DESC")
	if err != nil {
		return nil, errors.Internal(op, err, "failed to query exchanges")
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		var (
			ex    Exchange
			nanos int64
		)
		if err := rows.Scan(&ex.ID, &ex.VideoID, &ex.Question, &ex.Answer, &nanos); err != nil {
			return nil, errors.Internal(op, err, "failed to scan exchange")
		}
		ex.AskedAt = time.Unix(0, nanos)
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal(op, err, "failed to read exchanges")
	}
	return out, nil
}

func (s *Store) CountExchanges(ctx context.Context) (int, error) {
	const op = "db.CountExchanges"

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exchanges").Scan(&n); err != nil {
		return 0, errors.Internal(op, err, "failed to count exchanges")
	}
	return n, nil
}

func (s *Store) ClearExchanges(ctx context.Context) error {
	const op = "db.ClearExchanges"

	if _, err := s.db.ExecContext(ctx, "DELETE FROM exchanges"); err != nil {
		return errors.Internal(op, err, "failed to clear exchanges")
	}
	return nil
}
