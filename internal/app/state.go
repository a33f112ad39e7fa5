package app

import (
	"context"
	"sync"
	"time"

	"document-quiz/internal/models"
	"document-quiz/internal/rag"
)

// State is everything one user session owns: the document, its QA session,
// the current quiz and the answer sheet. States never share data.
type State struct {
	id        string
	createdAt time.Time
	now       func() time.Time

	// busy is held for the whole of a long running action
	busy sync.Mutex

	mu         sync.RWMutex
	lastActive time.Time
	doc        *models.Document
	qa         *rag.Session
	quiz       models.Quiz
	answers    models.AnswerSheet
	submitted  bool
	result     *models.ScoreResult
	// closed is set once the state is deleted; its QA session is then
	// dropped by whichever of delete or the running action finishes last
	closed bool
}

// NewState is exported for infrastructure layers that need to seed sessions.
func NewState(id string) *State {
	return newStateWithClock(id, time.Now)
}

func newStateWithClock(id string, now func() time.Time) *State {
	t := now()
	return &State{
		id:         id,
		createdAt:  t,
		now:        now,
		lastActive: t,
		answers:    models.AnswerSheet{},
	}
}

func (s *State) ID() string {
	return s.id
}

// LastActive is the time of the latest action on the state.
func (s *State) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

func (s *State) touch() {
	s.lastActive = s.now()
}

// tryBegin claims the state for a long running action. The returned func
// releases the claim and drops the QA session if the state was deleted
// meanwhile.
func (s *State) tryBegin() (func(), error) {
	if !s.busy.TryLock() {
		return nil, models.ErrBusy
	}
	return func() {
		s.busy.Unlock()
		if qa := s.takeClosedQA(); qa != nil {
			closeQA(context.Background(), qa)
		}
	}, nil
}

// close marks the state deleted and drops its QA session unless an action
// is still running; that action drops it when it ends.
func (s *State) close(ctx context.Context) {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	if !s.busy.TryLock() {
		return
	}
	qa := s.takeClosedQA()
	s.busy.Unlock()
	closeQA(ctx, qa)
}

func (s *State) takeClosedQA() *rag.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		return nil
	}
	qa := s.qa
	s.qa = nil
	return qa
}

func (s *State) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Snapshot is a serializable copy of a State.
type Snapshot struct {
	ID          string              `json:"id"`
	CreatedAt   time.Time           `json:"created_at"`
	LastActive  time.Time           `json:"last_active"`
	DocumentID  string              `json:"document_id,omitempty"`
	Filename    string              `json:"filename,omitempty"`
	TextLength  int                 `json:"text_length"`
	QAState     string              `json:"qa_state"`
	Quiz        models.Quiz         `json:"quiz,omitempty"`
	Answers     models.AnswerSheet  `json:"answers"`
	Submitted   bool                `json:"submitted"`
	Result      *models.ScoreResult `json:"result,omitempty"`
	History     []models.Turn       `json:"history,omitempty"`
}

// Snapshot copies the state. The QA session is read after mu is released
// so a running question never delays it.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	qa := s.qa
	snap := Snapshot{
		ID:         s.id,
		CreatedAt:  s.createdAt,
		LastActive: s.lastActive,
		Quiz:       append(models.Quiz(nil), s.quiz...),
		Answers:    s.answers.Clone(),
		Submitted:  s.submitted,
	}
	if s.doc != nil {
		snap.DocumentID = s.doc.ID
		snap.Filename = s.doc.Filename
		snap.TextLength = len(s.doc.Text)
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	s.mu.RUnlock()

	snap.QAState = qa.State().String()
	snap.History = qa.History()
	return snap
}
