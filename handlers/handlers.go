package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"time"

	"github.com/nijaru/yt-chat/config"
	"github.com/nijaru/yt-chat/errors"
	"github.com/nijaru/yt-chat/middleware"
	"github.com/nijaru/yt-chat/session"
	"github.com/nijaru/yt-chat/utils"
)

const maxBodyBytes = 1 << 20

var (
	cfg  *config.Config
	sess *session.Session
)

type loadRequest struct {
	VideoID  string `json:"video_id"`
	Language string `json:"language"`
}

type askRequest struct {
	Question string `json:"question"`
}

func InitHandlers(config *config.Config, s *session.Session) {
	cfg = config
	sess = s
}

// Routes registers every endpoint on a new mux.
func Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", IndexHandler)
	mux.HandleFunc("/health", HealthHandler)
	mux.HandleFunc("/api/languages", LanguagesHandler)
	mux.HandleFunc("/api/load", LoadHandler)
	mux.HandleFunc("/api/session", SessionHandler)
	mux.HandleFunc("/api/ask", AskHandler)
	mux.HandleFunc("/api/history", HistoryHandler)
	mux.HandleFunc("/api/clear", ClearHandler)
	return mux
}

func IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		utils.HandleError(w, "Not found", http.StatusNotFound)
		return
	}
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	http.ServeFile(w, r, filepath.Join(cfg.StaticDir, "index.html"))
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func LanguagesHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string][]session.Language{
		"languages": session.Languages(),
	})
}

func LoadHandler(w http.ResponseWriter, r *http.Request) {
	const op = "LoadHandler"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req loadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, errors.InvalidInput(op, err, "Invalid request body"))
		return
	}

	logger := middleware.GetLogger(r.Context()).WithField("video", req.VideoID)
	logger.Info("Loading video")

	ctx, cancel := context.WithTimeout(r.Context(), cfg.LoadTimeout)
	defer cancel()

	snap, err := sess.Load(ctx, req.VideoID, req.Language)
	if err != nil {
		respondWithContextError(ctx, w, op, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, snap)
}

func SessionHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	snap, err := sess.Snapshot(r.Context())
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, snap)
}

func AskHandler(w http.ResponseWriter, r *http.Request) {
	const op = "AskHandler"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req askRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, errors.InvalidInput(op, err, "Invalid request body"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), cfg.AskTimeout)
	defer cancel()

	start := time.Now()
	ex, err := sess.Ask(ctx, req.Question)
	if err != nil {
		respondWithContextError(ctx, w, op, err)
		return
	}
	middleware.GetLogger(r.Context()).WithField("duration", time.Since(start)).Info("Question answered")
	utils.RespondWithJSON(w, http.StatusOK, ex)
}

func HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	history, err := sess.History(r.Context())
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string][]session.Exchange{"history": history})
}

func ClearHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if err := sess.Clear(r.Context()); err != nil {
		utils.RespondWithError(w, err)
		return
	}
	middleware.GetLogger(r.Context()).Info("Chat history cleared")
	utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	utils.HandleError(w, "Invalid request method", http.StatusMethodNotAllowed)
	return false
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// respondWithContextError reports a timeout as 504 when the handler's own
// deadline fired; otherwise err is written as is.
func respondWithContextError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if ctx.Err() == context.DeadlineExceeded {
		utils.RespondWithError(w, errors.E(op, err, "Request timed out", http.StatusGatewayTimeout))
		return
	}
	utils.RespondWithError(w, err)
}
