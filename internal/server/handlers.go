package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/quizlens/internal/analysis"
	"github.com/abhisek/quizlens/internal/catalog"
	"github.com/abhisek/quizlens/internal/grading"
	"github.com/abhisek/quizlens/internal/i18n"
	"github.com/abhisek/quizlens/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
}

type groupedQuiz struct {
	ContestKey string          `json:"contestKey"`
	Groups     []catalog.Group `json:"groups"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorBody{Error: msg})
}

// handleError maps domain errors onto status codes. Anything unrecognized
// is logged and reported as a 500 without detail.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, catalog.ErrUnknownContest):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, catalog.ErrNoContests):
		respondError(w, http.StatusServiceUnavailable, "no question bank loaded")
	case errors.Is(err, grading.ErrInvalidQuestionSet), errors.Is(err, analysis.ErrNoQuestionSource),
		errors.Is(err, catalog.ErrNoServedQuestions):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("request failed", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// GET /api/quiz?quizId=2[&grouped=1]
func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	selector := r.URL.Query().Get("quizId")
	if grouped, _ := strconv.ParseBool(r.URL.Query().Get("grouped")); grouped && s.grouper != nil {
		key, groups := s.grouper.Grouped(selector)
		respondJSON(w, http.StatusOK, groupedQuiz{ContestKey: key, Groups: groups})
		return
	}
	set, err := s.svc.Quiz(selector)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, set)
}

// POST /api/analyze
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analysis.Request
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Language == "" {
		req.Language = i18n.LanguageFrom(r.Context())
	}

	res, err := s.svc.Submit(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// GET /api/results/{submissionID}
func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "submissionID"))
	res, err := s.svc.Get(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// GET /api/users/{userID}/results?limit=10
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	hist, err := s.svc.History(r.Context(), chi.URLParam(r, "userID"), limit)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, hist)
}
