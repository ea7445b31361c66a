// Package handlers implements the HTTP endpoints of the question service:
// session lifecycle, synchronous asks and queued turns.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"finassist/internal/api/middleware"
	"finassist/internal/domain"
	"finassist/internal/engine"
	"finassist/internal/session"
	"finassist/internal/source"
	"finassist/internal/store"
	"finassist/internal/turns"
)

// Answerer runs one question against a session's transactions.
type Answerer interface {
	Answer(ctx context.Context, req engine.TurnRequest) engine.Result
}

// SessionsHandler handles session lifecycle endpoints.
type SessionsHandler struct {
	sessions *session.Store
	src      source.Source
	log      zerolog.Logger
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(sessions *session.Store, src source.Source, log zerolog.Logger) *SessionsHandler {
	return &SessionsHandler{
		sessions: sessions,
		src:      src,
		log:      log,
	}
}

// CreateSession handles POST /api/sessions
func (h *SessionsHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Locale struct {
			Language string `json:"language"`
			Country  string `json:"country"`
			Currency string `json:"currency"`
		} `json:"locale"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	locale := domain.UserLocale{
		Language: domain.NormalizeLanguage(req.Locale.Language),
		Country:  req.Locale.Country,
		Currency: req.Locale.Currency,
	}
	if locale.Country == "" {
		locale.Country = "USA"
	}
	if locale.Currency == "" {
		locale.Currency = "USD"
	}

	ctx := r.Context()

	rows, err := h.src.Rows(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load transactions")
		var formatErr *domain.DataFormatError
		if errors.As(err, &formatErr) {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load transactions")
		return
	}

	st, err := store.Load(rows)
	if err != nil {
		h.log.Error().Err(err).Msg("Transaction data failed validation")
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	transactions := st.All()
	meta, err := store.Meta(transactions)
	if err != nil && !errors.Is(err, domain.ErrEmptyDataset) {
		h.log.Error().Err(err).Msg("Failed to describe dataset")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	sess := h.sessions.Create(locale, transactions, meta)

	h.log.Info().
		Str("session_id", sess.ID).
		Int("transactions", len(transactions)).
		Msg("Session created")

	middleware.WriteJSON(w, http.StatusOK, sessionInfo(sess))
}

// GetSession handles GET /api/sessions/{id}
func (h *SessionsHandler) GetSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := h.sessions.Get(sessionID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, sessionInfo(sess))
}

func sessionInfo(sess session.Session) map[string]interface{} {
	info := map[string]interface{}{
		"session_id":   sess.ID,
		"transactions": len(sess.Transactions),
		"locale": map[string]string{
			"language": sess.Locale.Language,
			"country":  sess.Locale.Country,
			"currency": sess.Locale.Currency,
		},
		"created_at": sess.CreatedAt.Format(time.RFC3339),
	}
	if sess.Meta.DateStart.IsValid() {
		info["date_start"] = sess.Meta.DateStart.String()
		info["date_end"] = sess.Meta.DateEnd.String()
	}
	return info
}

// TurnsHandler handles question turns, synchronous and queued.
type TurnsHandler struct {
	sessions *session.Store
	answerer Answerer
	queue    *turns.Queue
	store    *turns.Store
	log      zerolog.Logger
}

// NewTurnsHandler creates a new turns handler.
func NewTurnsHandler(sessions *session.Store, answerer Answerer, queue *turns.Queue, store *turns.Store, log zerolog.Logger) *TurnsHandler {
	return &TurnsHandler{
		sessions: sessions,
		answerer: answerer,
		queue:    queue,
		store:    store,
		log:      log,
	}
}

// Ask handles POST /api/sessions/{id}/ask
func (h *TurnsHandler) Ask(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req struct {
		Question string `json:"question"`
		UserID   string `json:"user_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Question == "" || req.UserID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "question and user_id are required")
		return
	}

	sess, err := h.sessions.Get(sessionID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	ok, err := h.sessions.TryLockTurn(sessionID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}
	if !ok {
		middleware.WriteError(w, http.StatusConflict, "A turn is already in flight for this session")
		return
	}
	defer h.sessions.UnlockTurn(sessionID)

	result := h.answerer.Answer(r.Context(), engine.TurnRequest{
		Question:     req.Question,
		Transactions: sess.Transactions,
		Locale:       sess.Locale,
		UserID:       req.UserID,
	})

	middleware.WriteJSON(w, http.StatusOK, result)
}

// EnqueueTurn handles POST /api/sessions/{id}/turns
func (h *TurnsHandler) EnqueueTurn(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req struct {
		Question string `json:"question"`
		UserID   string `json:"user_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Question == "" || req.UserID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "question and user_id are required")
		return
	}

	if _, err := h.sessions.Get(sessionID); err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	// The lock is taken here and released by the worker, so the session
	// rejects concurrent asks for as long as the turn is pending or running.
	ok, err := h.sessions.TryLockTurn(sessionID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}
	if !ok {
		middleware.WriteError(w, http.StatusConflict, "A turn is already in flight for this session")
		return
	}

	turn := &turns.Turn{
		SessionID: sessionID,
		Question:  req.Question,
		UserID:    req.UserID,
	}

	if err := h.queue.Publish(r.Context(), turn); err != nil {
		h.sessions.UnlockTurn(sessionID)
		h.log.Error().Err(err).Msg("Failed to enqueue turn")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue turn")
		return
	}

	h.log.Info().Str("turn_id", turn.ID).Str("session_id", sessionID).Msg("Turn enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"turn_id":    turn.ID,
		"session_id": sessionID,
		"status":     string(turn.Status),
	})
}

// GetTurn handles GET /api/sessions/{id}/turns/{turnID}
func (h *TurnsHandler) GetTurn(w http.ResponseWriter, r *http.Request, sessionID, turnID string) {
	turn, err := h.store.Get(turnID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Turn not found")
		return
	}

	if turn.SessionID != sessionID {
		middleware.WriteError(w, http.StatusNotFound, "Turn not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, turn)
}
