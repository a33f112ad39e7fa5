package models

import "errors"

var (
	// ErrExtraction is returned when the input is not a readable document.
	ErrExtraction = errors.New("extraction failed")
	// ErrUnsupportedFormat is returned for file types or export formats that are not handled.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrConfig indicates invalid parameters such as overlap >= chunk size.
	ErrConfig = errors.New("invalid configuration")
	// ErrEmbedding wraps failures of the embedding collaborator or a bad vector shape.
	ErrEmbedding = errors.New("embedding failed")
	// ErrGeneration wraps failures of the LLM collaborator (transport, timeout, quota).
	ErrGeneration = errors.New("generation failed")
	// ErrMalformedOutput indicates the LLM answered but the quiz could not be decoded or validated.
	ErrMalformedOutput = errors.New("malformed quiz output")

	// ErrNoContent is returned when an action needs document text and there is none.
	ErrNoContent = errors.New("document has no text")
	// ErrNoDocument is returned when an action needs an uploaded document.
	ErrNoDocument = errors.New("no document uploaded")
	// ErrQANotReady is returned when a question is asked before the QA session is built.
	ErrQANotReady = errors.New("qa session not initialized")
	// ErrNoQuiz is returned when answering, submitting or exporting without a quiz.
	ErrNoQuiz = errors.New("no quiz generated")
	// ErrInvalidAnswer indicates a question index or choice outside the current quiz.
	ErrInvalidAnswer = errors.New("invalid answer")
	// ErrEmptyQuestion is returned for blank QA questions.
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrSessionNotFound is returned for unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")
	// ErrBusy is returned when another action is already running on the same session.
	ErrBusy = errors.New("session busy")
)
