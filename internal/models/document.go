package models

import "time"

// Document is an uploaded file reduced to its plain text.
type Document struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Text       string    `json:"text"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Empty reports whether the document carries no usable text.
func (d *Document) Empty() bool {
	return d == nil || len(d.Text) == 0
}

// Turn is one completed question/answer exchange in a QA session.
type Turn struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"asked_at"`
}

// Answer is what a QA session returns for a question
type Answer struct {
	Text    string  `json:"text"`
	Sources []Chunk `json:"sources"`
}
