package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"document-quiz/internal/export"
	"document-quiz/internal/helper"
	"document-quiz/internal/models"
	"document-quiz/internal/parser"
	"document-quiz/internal/quiz"
	"document-quiz/internal/rag"
)

// SessionRepository abstracts how session states are stored (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(id string) *State
	Get(id string) (*State, bool)
	// Save is called after every committed change.
	Save(ctx context.Context, st *State)
	Delete(ctx context.Context, id string)
	List() []*State
}

// QABuilder builds a QA session over a document.
type QABuilder interface {
	Build(ctx context.Context, doc *models.Document) (*rag.Session, error)
}

// QuizGenerator produces a validated quiz from document text.
type QuizGenerator interface {
	Generate(ctx context.Context, text string) (models.Quiz, error)
}

// Service contains the document quiz use cases. Collaborator calls across
// all sessions are bounded by a shared semaphore.
type Service struct {
	sessions SessionRepository
	qa       QABuilder
	quizzes  QuizGenerator
	sem      *semaphore.Weighted
	points   int
}

func NewService(store SessionRepository, qa QABuilder, quizzes QuizGenerator, maxInflight int64, pointsPerQuestion int) *Service {
	if maxInflight <= 0 {
		maxInflight = 1
	}
	return &Service{
		sessions: store,
		qa:       qa,
		quizzes:  quizzes,
		sem:      semaphore.NewWeighted(maxInflight),
		points:   pointsPerQuestion,
	}
}

// CreateSession starts an empty session.
func (s *Service) CreateSession(ctx context.Context) (Snapshot, error) {
	id, err := helper.NewID()
	if err != nil {
		return Snapshot{}, err
	}
	st := s.sessions.GetOrCreate(id)
	s.sessions.Save(ctx, st)
	log.Info().Str("session", id).Msg("Session created")
	return st.Snapshot(), nil
}

func (s *Service) state(id string) (*State, error) {
	st, ok := s.sessions.Get(id)
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return st, nil
}

// Session returns a snapshot of the session.
func (s *Service) Session(id string) (Snapshot, error) {
	st, err := s.state(id)
	if err != nil {
		return Snapshot{}, err
	}
	return st.Snapshot(), nil
}

// DeleteSession drops the session and its index. An action still running
// on the session finishes against a closed state and its result is
// discarded.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	st, err := s.state(id)
	if err != nil {
		return err
	}
	s.sessions.Delete(ctx, id)
	st.close(ctx)
	return nil
}

// SweepIdle deletes sessions inactive for longer than ttl.
func (s *Service) SweepIdle(ctx context.Context, ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	removed := 0
	for _, st := range s.sessions.List() {
		if st.LastActive().Before(cutoff) {
			if err := s.DeleteSession(ctx, st.ID()); err == nil {
				removed++
			}
		}
	}
	if removed > 0 {
		log.Info().Int("sessions", removed).Msg("Swept idle sessions")
	}
	return removed
}

// Upload extracts the file and makes it the session's document. The
// previous document's quiz, answers and QA session are discarded. On error
// the session is left unchanged.
func (s *Service) Upload(ctx context.Context, id, filename string, data []byte) (Snapshot, error) {
	st, err := s.state(id)
	if err != nil {
		return Snapshot{}, err
	}
	done, err := st.tryBegin()
	if err != nil {
		return Snapshot{}, err
	}
	defer done()

	text, err := parser.ExtractFile(filename, data)
	if err != nil {
		return Snapshot{}, err
	}
	docID, err := helper.NewID()
	if err != nil {
		return Snapshot{}, err
	}
	doc := &models.Document{ID: docID, Filename: filename, Text: text, UploadedAt: time.Now()}

	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		return Snapshot{}, models.ErrSessionNotFound
	}
	old := st.qa
	st.doc = doc
	st.qa = nil
	st.quiz = nil
	st.answers = models.AnswerSheet{}
	st.submitted = false
	st.result = nil
	st.touch()
	st.mu.Unlock()

	closeQA(ctx, old)
	s.save(ctx, st)
	log.Info().Str("session", id).Str("file", filename).Int("chars", len(text)).Msg("Document uploaded")
	return st.Snapshot(), nil
}

// IndexDocument builds the QA session for the current document.
func (s *Service) IndexDocument(ctx context.Context, id string) (Snapshot, error) {
	st, err := s.state(id)
	if err != nil {
		return Snapshot{}, err
	}
	done, err := st.tryBegin()
	if err != nil {
		return Snapshot{}, err
	}
	defer done()

	st.mu.RLock()
	doc := st.doc
	st.mu.RUnlock()
	if doc == nil {
		return Snapshot{}, models.ErrNoDocument
	}
	if doc.Empty() {
		return Snapshot{}, models.ErrNoContent
	}

	var session *rag.Session
	err = s.withSlot(ctx, func() error {
		var err error
		session, err = s.qa.Build(ctx, doc)
		return err
	})
	if err != nil {
		return Snapshot{}, err
	}

	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		closeQA(ctx, session)
		return Snapshot{}, models.ErrSessionNotFound
	}
	old := st.qa
	st.qa = session
	st.touch()
	st.mu.Unlock()

	closeQA(ctx, old)
	s.save(ctx, st)
	return st.Snapshot(), nil
}

// GenerateQuiz replaces the quiz only when generation succeeds; the answer
// sheet is cleared together with it.
func (s *Service) GenerateQuiz(ctx context.Context, id string) (models.Quiz, error) {
	st, err := s.state(id)
	if err != nil {
		return nil, err
	}
	done, err := st.tryBegin()
	if err != nil {
		return nil, err
	}
	defer done()

	st.mu.RLock()
	doc := st.doc
	st.mu.RUnlock()
	if doc == nil {
		return nil, models.ErrNoDocument
	}
	if doc.Empty() {
		return nil, models.ErrNoContent
	}

	var generated models.Quiz
	err = s.withSlot(ctx, func() error {
		var err error
		generated, err = s.quizzes.Generate(ctx, doc.Text)
		return err
	})
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		return nil, models.ErrSessionNotFound
	}
	st.quiz = generated
	st.answers = models.AnswerSheet{}
	st.submitted = false
	st.result = nil
	st.touch()
	st.mu.Unlock()

	s.save(ctx, st)
	return append(models.Quiz(nil), generated...), nil
}

// SelectAnswer records choice for question index. Changing an answer
// after submission reopens the quiz.
func (s *Service) SelectAnswer(ctx context.Context, id string, index int, choice string) error {
	st, err := s.state(id)
	if err != nil {
		return err
	}
	st.mu.Lock()
	if len(st.quiz) == 0 {
		st.mu.Unlock()
		return models.ErrNoQuiz
	}
	if index < 0 || index >= len(st.quiz) {
		st.mu.Unlock()
		return fmt.Errorf("%w: question %d out of range", models.ErrInvalidAnswer, index)
	}
	if !st.quiz[index].HasChoice(choice) {
		st.mu.Unlock()
		return fmt.Errorf("%w: %q is not a choice of question %d", models.ErrInvalidAnswer, choice, index)
	}
	st.answers[index] = choice
	st.submitted = false
	st.result = nil
	st.touch()
	st.mu.Unlock()

	s.save(ctx, st)
	return nil
}

// ClearAnswer marks question index as unanswered.
func (s *Service) ClearAnswer(ctx context.Context, id string, index int) error {
	st, err := s.state(id)
	if err != nil {
		return err
	}
	st.mu.Lock()
	if len(st.quiz) == 0 {
		st.mu.Unlock()
		return models.ErrNoQuiz
	}
	if index < 0 || index >= len(st.quiz) {
		st.mu.Unlock()
		return fmt.Errorf("%w: question %d out of range", models.ErrInvalidAnswer, index)
	}
	delete(st.answers, index)
	st.submitted = false
	st.result = nil
	st.touch()
	st.mu.Unlock()

	s.save(ctx, st)
	return nil
}

// ResetAnswers clears every selection and the last result.
func (s *Service) ResetAnswers(ctx context.Context, id string) error {
	st, err := s.state(id)
	if err != nil {
		return err
	}
	st.mu.Lock()
	st.answers = models.AnswerSheet{}
	st.submitted = false
	st.result = nil
	st.touch()
	st.mu.Unlock()

	s.save(ctx, st)
	return nil
}

// Submit scores the current answers.
func (s *Service) Submit(ctx context.Context, id string) (models.ScoreResult, error) {
	st, err := s.state(id)
	if err != nil {
		return models.ScoreResult{}, err
	}
	st.mu.Lock()
	if len(st.quiz) == 0 {
		st.mu.Unlock()
		return models.ScoreResult{}, models.ErrNoQuiz
	}
	res := quiz.Score(st.quiz, st.answers, s.points)
	st.submitted = true
	st.result = &res
	st.touch()
	st.mu.Unlock()

	s.save(ctx, st)
	log.Info().Str("session", id).Int("earned", res.Earned).Int("total", res.Total).Str("grade", string(res.Grade)).Msg("Quiz submitted")
	return res, nil
}

// Ask forwards question to the session's QA session.
func (s *Service) Ask(ctx context.Context, id, question string) (models.Answer, error) {
	st, err := s.state(id)
	if err != nil {
		return models.Answer{}, err
	}
	done, err := st.tryBegin()
	if err != nil {
		return models.Answer{}, err
	}
	defer done()

	st.mu.RLock()
	doc, qa := st.doc, st.qa
	st.mu.RUnlock()
	if doc == nil {
		return models.Answer{}, models.ErrNoDocument
	}
	if qa.State() != rag.StateReady {
		return models.Answer{}, models.ErrQANotReady
	}

	var answer models.Answer
	err = s.withSlot(ctx, func() error {
		var err error
		answer, err = qa.Ask(ctx, question)
		return err
	})
	if err != nil {
		return models.Answer{}, err
	}

	st.mu.Lock()
	st.touch()
	st.mu.Unlock()
	s.save(ctx, st)
	return answer, nil
}

// History returns the QA turns of the session, oldest first.
func (s *Service) History(id string) ([]models.Turn, error) {
	st, err := s.state(id)
	if err != nil {
		return nil, err
	}
	st.mu.RLock()
	qa := st.qa
	st.mu.RUnlock()
	return qa.History(), nil
}

// Export renders the current quiz.
func (s *Service) Export(id string, format export.Format, includeAnswers bool) ([]byte, error) {
	st, err := s.state(id)
	if err != nil {
		return nil, err
	}
	st.mu.RLock()
	q := append(models.Quiz(nil), st.quiz...)
	st.mu.RUnlock()
	if len(q) == 0 {
		return nil, models.ErrNoQuiz
	}
	return export.Export(q, format, export.Options{IncludeAnswers: includeAnswers, PointsPerQuestion: s.points})
}

// save persists st unless it was deleted meanwhile.
func (s *Service) save(ctx context.Context, st *State) {
	if st.isClosed() {
		return
	}
	s.sessions.Save(ctx, st)
}

// withSlot runs fn while holding one collaborator slot. Giving up on the
// wait is reported as ErrBusy.
func (s *Service) withSlot(ctx context.Context, fn func() error) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: wait for a free slot: %w", models.ErrBusy, err)
	}
	defer s.sem.Release(1)
	return fn()
}

func closeQA(ctx context.Context, qa *rag.Session) {
	if qa == nil {
		return
	}
	if err := qa.Close(ctx); err != nil {
		log.Warn().Err(err).Str("document_id", qa.DocumentID()).Msg("Failed to drop index")
	}
}
