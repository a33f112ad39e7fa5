package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"document-quiz/internal/app"
	"document-quiz/internal/export"
	"document-quiz/internal/models"
)

type questionView struct {
	Index    int      `json:"index"`
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
	Points   int      `json:"points"`
	Answer   string   `json:"answer,omitempty"`
}

type quizView struct {
	Questions []questionView      `json:"questions"`
	Answers   models.AnswerSheet  `json:"answers"`
	Submitted bool                `json:"submitted"`
	Result    *models.ScoreResult `json:"result,omitempty"`
}

type sessionView struct {
	ID         string        `json:"id"`
	CreatedAt  time.Time     `json:"created_at"`
	LastActive time.Time     `json:"last_active"`
	DocumentID string        `json:"document_id,omitempty"`
	Filename   string        `json:"filename,omitempty"`
	TextLength int           `json:"text_length"`
	QAState    string        `json:"qa_state"`
	Quiz       quizView      `json:"quiz"`
	History    []models.Turn `json:"history"`
}

// questionsView hides the correct answers unless reveal is set
func questionsView(q models.Quiz, reveal bool) []questionView {
	out := make([]questionView, len(q))
	for i, item := range q {
		out[i] = questionView{Index: i, Question: item.Question, Choices: item.Choices, Points: item.Points}
		if reveal {
			out[i].Answer = item.Answer
		}
	}
	return out
}

func toQuizView(snap app.Snapshot) quizView {
	return quizView{
		Questions: questionsView(snap.Quiz, snap.Submitted),
		Answers:   snap.Answers,
		Submitted: snap.Submitted,
		Result:    snap.Result,
	}
}

func toSessionView(snap app.Snapshot) sessionView {
	history := snap.History
	if history == nil {
		history = []models.Turn{}
	}
	return sessionView{
		ID:         snap.ID,
		CreatedAt:  snap.CreatedAt,
		LastActive: snap.LastActive,
		DocumentID: snap.DocumentID,
		Filename:   snap.Filename,
		TextLength: snap.TextLength,
		QAState:    snap.QAState,
		Quiz:       toQuizView(snap),
		History:    history,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.CreateSession(r.Context())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toSessionView(snap))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Session(chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toSessionView(snap))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.service.DeleteSession(r.Context(), id); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

// handleUploadDocument stores the file and indexes it right away. A failed
// index keeps the document; POST /index retries.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		s.respondError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if _, err := s.service.Upload(r.Context(), id, header.Filename, data); err != nil {
		s.respondServiceError(w, err)
		return
	}
	snap, err := s.service.IndexDocument(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toSessionView(snap))
}

func (s *Server) handleIndexDocument(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.IndexDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toSessionView(snap))
}

func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.service.GenerateQuiz(r.Context(), id); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondQuiz(w, id, http.StatusCreated)
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	s.respondQuiz(w, chi.URLParam(r, "id"), http.StatusOK)
}

type selectRequest struct {
	Choice string `json:"choice"`
}

func (s *Server) handleSelectAnswer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	index, ok := s.questionIndex(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.service.SelectAnswer(r.Context(), id, index, req.Choice); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondQuiz(w, id, http.StatusOK)
}

func (s *Server) handleClearAnswer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	index, ok := s.questionIndex(w, r)
	if !ok {
		return
	}
	if err := s.service.ClearAnswer(r.Context(), id, index); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondQuiz(w, id, http.StatusOK)
}

func (s *Server) handleResetAnswers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.service.ResetAnswers(r.Context(), id); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondQuiz(w, id, http.StatusOK)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	answer, err := s.service.Ask(r.Context(), chi.URLParam(r, "id"), req.Question)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, answer)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.service.History(chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	if history == nil {
		history = []models.Turn{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"history": history})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	includeAnswers, _ := strconv.ParseBool(r.URL.Query().Get("answers"))
	data, err := s.service.Export(chi.URLParam(r, "id"), format, includeAnswers)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "quiz"+format.Extension()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) questionIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "question index must be an integer")
		return 0, false
	}
	return index, true
}

func (s *Server) respondQuiz(w http.ResponseWriter, id string, status int) {
	snap, err := s.service.Session(id)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, status, toQuizView(snap))
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNoDocument),
		errors.Is(err, models.ErrQANotReady),
		errors.Is(err, models.ErrNoQuiz),
		errors.Is(err, models.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, models.ErrExtraction),
		errors.Is(err, models.ErrUnsupportedFormat),
		errors.Is(err, models.ErrNoContent):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrInvalidAnswer),
		errors.Is(err, models.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrGeneration),
		errors.Is(err, models.ErrEmbedding),
		errors.Is(err, models.ErrMalformedOutput):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("Request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Msg("Request rejected")
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
